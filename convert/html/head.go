package html

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"ebh/config"
	ebhcss "ebh/css"
	"ebh/font"
	"ebh/misc"
	"ebh/pack"
)

// Preamble opens every document we produce. Input detection relies on it to
// recognize our own output, change both together.
const Preamble = "<!DOCTYPE html>\n<html><head><!--\n\tebook converted to HTML with ebh "

// topCSS builds the presentation stylesheet layered after the book's own
// styles. Book CSS only sees the configured values through the variables, so
// a reader can retune the output by editing :root alone.
func topCSS(p *config.PresentationConfig) string {
	return fmt.Sprintf(`%s

:root {
    --base-font-size: %s;
    --base-font-family: %s;
    --monospace-font-family: %s;
    --min-font-size: %s;
    --min-line-height: %s;
    --inside-margin-when-wide: %s;
    --inside-margin-when-narrow: %s;
    --outside-bgcolor: %s;
    --inside-bgcolor: %s;
}

html {
    background-color: var(--outside-bgcolor);
}

body {
    background-color: var(--inside-bgcolor);
    max-width: %s;
    margin: 0 auto;
    padding: var(--inside-margin-when-narrow);

    line-height: var(--min-line-height);

    font-size: var(--base-font-size);
    /* Keep mobile Safari from enlarging text in landscape orientation. */
    -webkit-text-size-adjust: none;
    text-size-adjust: none;

    font-family: var(--base-font-family);

    /* Long unbreakable words (usually URLs) must not widen the page. */
    word-break: break-word;
}

@media only screen and (min-width: calc(%s + %s + %s)) {
    body {
        padding: var(--inside-margin-when-wide);
    }
}

sup, sub {
    /* Keep super/subscripts from stretching the containing line.
     * !important because books often set vertical-align: 0.55em on them. */
    vertical-align: baseline !important;
    position: relative;
    top: -0.4em;
}
sub {
    top: 0.4em;
}

img {
    /* Images must not widen the page, especially on mobile. */
    max-width: 100%%;

    /* Author width/height pairs would stretch a max-width constrained image. */
    height: auto !important;
    width: auto !important;

    vertical-align: middle;
}

/* Center the cover when the image is smaller than the max-width */
img.ebh-cover {
    display: block;
    margin: 1em auto;
}

/* book */`,
		ebhcss.Marker,
		p.BaseFontSize, p.BaseFontFamily, p.MonospaceFontFamily,
		p.MinFontSize, p.MinLineHeight,
		p.MarginWhenWide, p.MarginWhenNarrow,
		p.OutsideBGColor, p.InsideBGColor,
		p.MaxWidth,
		p.MarginWhenNarrow, p.MaxWidth, p.MarginWhenNarrow)
}

// cspMeta forbids the book from reaching any external resource. Inline
// styles and data URIs are all a self-contained document needs, configured
// extras widen individual directives.
func cspMeta(c *config.CSPConfig) string {
	dir := func(name, base, extra string) string {
		v := base
		if len(strings.TrimSpace(extra)) > 0 {
			v += " " + strings.TrimSpace(extra)
		}
		return fmt.Sprintf("\n    %s %s;", name, v)
	}
	var sb strings.Builder
	sb.WriteString(`<meta http-equiv="Content-Security-Policy" content="`)
	sb.WriteString(dir("default-src", "'none'", c.DefaultSrc))
	sb.WriteString(dir("font-src", "'self' data:", c.FontSrc))
	sb.WriteString(dir("img-src", "'self' data:", c.ImgSrc))
	sb.WriteString(dir("style-src", "'unsafe-inline'", c.StyleSrc))
	sb.WriteString(dir("media-src", "'self' data:", c.MediaSrc))
	sb.WriteString(dir("script-src", "'unsafe-inline' data:", c.ScriptSrc))
	sb.WriteString(dir("object-src", "'self' data:", c.ObjectSrc))
	sb.WriteString("\n\">")
	return sb.String()
}

// escapeCommentClose keeps embedded report text from terminating the header
// comment early.
func escapeCommentClose(s string) string {
	return strings.ReplaceAll(s, "-->", `-[was \x2D\x2D\x3E]->`)
}

var lineStart = regexp.MustCompile(`(?m)^`)

func indent(prefix, text string) string {
	if len(text) == 0 {
		return ""
	}
	return lineStart.ReplaceAllString(text, prefix)
}

// headerComment documents the conversion inside the output itself: where
// the book came from, what the package contained, which font stacks were
// seen and what the external converter had to say.
func headerComment(pkg *pack.Package, inv *font.Inventory, convLog string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<!--\n\tebook converted to HTML with ebh %s\n\n", misc.GetVersion())
	fmt.Fprintf(&sb, "\toriginal file name: %s\n", escapeCommentClose(filepath.Base(pkg.Name)))
	fmt.Fprintf(&sb, "\toriginal file size: %d\n\n", pkg.Size)

	sb.WriteString("\tmetadata.opf:\n")
	sb.WriteString(indent("\t\t", escapeCommentClose(pkg.Metadata.Raw)))

	unread := pkg.UnreadFiles()
	fmt.Fprintf(&sb, "\n\n\tpackage files which were not referenced by the book (count: %d):\n", len(unread))
	sb.WriteString(indent("\t\t", escapeCommentClose(strings.Join(unread, "\n"))))
	sb.WriteString("\n\tnote: a single unreferenced image is typically a cover duplicated by the converter.\n")

	missing := pkg.MissingFiles()
	fmt.Fprintf(&sb, "\n\tfiles which were referenced but missing from the package (count: %d):\n", len(missing))
	sb.WriteString(indent("\t\t", escapeCommentClose(strings.Join(missing, "\n"))))

	sb.WriteString("\n\n\tfont stacks:\n")
	for _, cat := range []font.Category{
		font.Unclassified, font.Serif, font.SansSerif, font.Monospace, font.Fantasy, font.Cursive,
	} {
		stacks := inv.Stacks(cat)
		fmt.Fprintf(&sb, "\t\t%s (count: %d):\n", cat, len(stacks))
		if len(stacks) > 0 {
			sb.WriteString(indent("\t\t\t", escapeCommentClose(strings.Join(stacks, "\n"))))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n\tconversion log:\n")
	sb.WriteString(indent("\t\t", escapeCommentClose(convLog)))
	sb.WriteString("\n-->")
	return sb.String()
}

const viewportMeta = `<!-- viewport-fit=cover keeps mobile Safari from painting the body
     background over the safe area -->
<meta name="viewport" content="width=device-width, viewport-fit=cover" />
<meta name="referrer" content="no-referrer" />`
