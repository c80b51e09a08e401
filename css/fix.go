package css

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// Marker is appended to every declaration this program changed so the edit
// is attributable when reading the output source.
const Marker = "/* ebh */"

// FixOptions controls the presentation rewrites applied to book styles.
type FixOptions struct {
	// InsideBGColor is the configured page background. Author backgrounds
	// close to it (per channel, within the threshold) on wrapper selectors
	// are replaced with inherit. Empty disables the background rewrite.
	InsideBGColor              string
	BGColorSimilarityThreshold float64
}

// smallMarginPattern matches paragraph margins small enough to zero without
// changing document structure: up to ~0.3em, or below 5px/5pt.
var smallMarginPattern = regexp.MustCompile(`^(?:0\.[123]\d?em|[1234](?:\.\d+)?px|[1234](?:\.\d+)?pt)$`)

// Fix applies the reading comfort rewrites to every rule in the sheet:
// line-height and font-size floors, justification removal, small paragraph
// margin zeroing, near-page background removal and the superscript
// vertical-align correction. @font-face blocks are left untouched. Every
// change keeps the original declaration in a trailing comment.
func Fix(sheet *Stylesheet, opts FixOptions) {
	var bg *csscolorparser.Color
	if opts.InsideBGColor != "" {
		if c, err := csscolorparser.Parse(opts.InsideBGColor); err == nil {
			bg = &c
		}
	}
	sheet.EachRule(func(_ string, r *Rule) {
		fixRule(r, bg, opts.BGColorSimilarityThreshold)
	})
}

func fixRule(r *Rule, bg *csscolorparser.Color, threshold float64) {
	paragraph := probablyAParagraph(r)
	bgCandidate := r.Selectors == ".calibre" || strings.HasPrefix(r.Selectors, ".x-ebookmaker")

	out := make([]Declaration, 0, len(r.Declarations))
	for _, d := range r.Declarations {
		switch {
		case d.Property == "line-height" && !strings.Contains(d.Value, "var(--min-line-height)"):
			// A minimum line height aids reading by reducing the chance of
			// regressing to an already read line.
			d.Value = fmt.Sprintf("max(%s, var(--min-line-height))", d.Value)
			d.Comment = Marker

		case d.Property == "font-size" && !strings.Contains(d.Value, "var(--min-font-size)"):
			d.Value = fmt.Sprintf("max(%s, var(--min-font-size))", d.Value)
			d.Comment = Marker

		case d.Property == "text-align" && d.Value == "justify":
			// Justified text creates uneven word spacing and is hopeless on
			// narrow screens.
			d = Declaration{Comment: fmt.Sprintf("/* was text-align: justify; */ %s", Marker)}

		case paragraph && (d.Property == "margin-top" || d.Property == "margin-bottom") &&
			smallMarginPattern.MatchString(d.Value):
			d.Comment = fmt.Sprintf("/* was %s: %s; */ %s", d.Property, d.Value, Marker)
			d.Value = "0"

		case bgCandidate && bg != nil && (d.Property == "background" || d.Property == "background-color"):
			if similarColor(d.Value, bg, threshold) {
				d.Comment = fmt.Sprintf("/* was background-color: %s; */ %s", d.Value, Marker)
				d.Value = "inherit"
			}

		case d.Property == "vertical-align" && d.Value == "super":
			// Superscript styling heightens the containing line. Same fix as
			// the one injected for <sup> elements.
			out = append(out,
				Declaration{
					Property: "vertical-align",
					Value:    "baseline",
					Comment:  fmt.Sprintf("/* was vertical-align: super; */ %s", Marker),
				},
				Declaration{Property: "position", Value: "relative", Comment: Marker},
			)
			d = Declaration{Property: "top", Value: "-0.4em", Comment: Marker}
		}
		out = append(out, d)
	}
	r.Declarations = out
}

// probablyAParagraph reports whether the rule most likely styles body
// paragraphs, judged by selector naming conventions of common converters.
func probablyAParagraph(r *Rule) bool {
	sel := r.Selectors
	return (strings.HasPrefix(sel, ".calibre") && r.HasProperty("text-indent")) ||
		sel == ".indent" ||
		sel == ".noindent" ||
		sel == ".indent-para" ||
		strings.Contains(sel, ".para") ||
		strings.HasPrefix(sel, ".class_indent")
}

// similarColor reports whether value parses as a color whose every channel
// is within threshold of want.
func similarColor(value string, want *csscolorparser.Color, threshold float64) bool {
	got, err := csscolorparser.Parse(value)
	if err != nil {
		return false
	}
	return abs(want.R-got.R) <= threshold &&
		abs(want.G-got.G) <= threshold &&
		abs(want.B-got.B) <= threshold
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
