// Package html assembles the final self-contained document: fixed book
// styles, inlined assets and merged fragments under our presentation layer.
package html

import (
	_ "embed"
	"fmt"
	"io"
	"path"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ebh/common"
	"ebh/config"
	ebhcss "ebh/css"
	"ebh/font"
	"ebh/inline"
	"ebh/merge"
	"ebh/pack"
)

//go:embed text_fragments.js
var textFragmentsJS string

// Result describes what a conversion produced besides the document itself.
// Warnings are recoverable content issues, Skipped lists fragments left out
// of the output entirely.
type Result struct {
	Warnings []string
	Skipped  []string
	Bytes    int64
}

func (r *Result) warnf(log *zap.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// Generate converts a loaded package into a single document written to w.
// It fails only when nothing usable remains, content problems surface as
// warnings on the Result.
func Generate(w io.Writer, pkg *pack.Package, cfg *config.DocumentConfig, convLog string, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("generate")
	res := &Result{}

	// Book styles: parse, inventory the font stacks, fix presentation,
	// apply the replacement policy.
	parser := ebhcss.NewParser(log)
	inv := font.NewInventory()
	sheets := make([]*ebhcss.Stylesheet, 0, len(pkg.Styles))
	for _, s := range pkg.Styles {
		sheet := parser.Parse(s.Data, s.Path)
		inv.Collect(sheet)
		sheets = append(sheets, sheet)
	}
	dec := font.Decide(inv, cfg.Fonts.ReplaceSerifAndSansSerif, cfg.Fonts.ReplaceMonospace)
	replaced := 0
	for _, sheet := range sheets {
		ebhcss.Fix(sheet, ebhcss.FixOptions{
			InsideBGColor:              cfg.Presentation.InsideBGColor,
			BGColorSimilarityThreshold: cfg.Presentation.BGColorSimilarityThreshold,
		})
		replaced += font.Apply(sheet, dec)
	}
	log.Debug("Book styles processed",
		zap.Int("sheets", len(sheets)), zap.Int("fonts-replaced", replaced))

	// Fragments: parse and inline while each fragment still knows its
	// directory, then merge into one anchor namespace.
	in := inline.New(pkg, &cfg.Images, log)
	frags := make([]merge.Fragment, 0, len(pkg.Fragments))
	for _, raw := range pkg.Fragments {
		f, err := merge.Parse(raw)
		if err != nil {
			res.Skipped = append(res.Skipped, raw.Path)
			res.warnf(log, "fragment %s is not parseable and was skipped: %v", raw.Path, err)
			continue
		}
		in.Apply(path.Dir(raw.Path), f.Doc)
		frags = append(frags, f)
	}
	if len(frags) == 0 {
		return nil, fmt.Errorf("package %q has no usable markup fragments", pkg.Name)
	}
	for i, s := range pkg.Styles {
		in.Stylesheet(path.Dir(s.Path), sheets[i])
	}
	merged := merge.Merge(frags, log)

	for _, ref := range merged.Dangling {
		res.warnf(log, "link target %s does not exist, link points at its fragment", ref)
	}
	for _, p := range in.Skipped() {
		res.warnf(log, "referenced file %s is missing from the package", p)
	}

	cover := coverNodes(pkg, in, log)

	header := headerComment(pkg, inv, convLog)
	cw := &countingWriter{w: w}
	if err := writeDocument(cw, header, cfg, sheets, cover, merged.Nodes); err != nil {
		return nil, fmt.Errorf("unable to write output document: %w", err)
	}
	res.Bytes = cw.n

	if cfg.SizeWarnThreshold > 0 && cw.n > cfg.SizeWarnThreshold {
		res.warnf(log, "output document is %d bytes, above the configured threshold of %d", cw.n, cfg.SizeWarnThreshold)
	}
	return res, nil
}

// coverNodes builds the cover image followed by a skip anchor when the OPF
// names a cover that no fragment displayed on its own.
func coverNodes(pkg *pack.Package, in *inline.Inliner, log *zap.Logger) []*xhtml.Node {
	coverPath := pkg.Metadata.Cover
	if len(coverPath) == 0 || in.Seen(coverPath) {
		return nil
	}
	uri, ok := in.DataURI("", coverPath)
	if !ok {
		return nil
	}
	log.Debug("Prepending cover image", zap.String("path", coverPath))
	img := &xhtml.Node{
		Type:     xhtml.ElementNode,
		DataAtom: atom.Img,
		Data:     "img",
		Attr: []xhtml.Attribute{
			{Key: "class", Val: inline.CoverClass},
			{Key: "alt", Val: "Cover"},
			{Key: "src", Val: uri},
		},
	}
	anchor := &xhtml.Node{
		Type:     xhtml.ElementNode,
		DataAtom: atom.A,
		Data:     "a",
		Attr:     []xhtml.Attribute{{Key: "id", Val: "ebh-after-cover"}},
	}
	return []*xhtml.Node{img, anchor}
}

func writeDocument(w io.Writer, header string, cfg *config.DocumentConfig, sheets []*ebhcss.Stylesheet, cover, body []*xhtml.Node) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html><head>"); err != nil {
		return err
	}
	for _, part := range []string{header, "\n", cspMeta(&cfg.CSP), "\n", viewportMeta, "\n<style>\n", topCSS(&cfg.Presentation), "\n"} {
		if _, err := io.WriteString(w, part); err != nil {
			return err
		}
	}
	for _, sheet := range sheets {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if _, err := sheet.WriteTo(w); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</style>"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, polyfillMarkup(cfg.Polyfill)); err != nil {
		return err
	}
	if len(cfg.AppendHead) > 0 {
		if _, err := io.WriteString(w, "\n"+cfg.AppendHead); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n</head><body>\n"); err != nil {
		return err
	}
	for _, n := range cover {
		if err := xhtml.Render(w, n); err != nil {
			return err
		}
	}
	for _, n := range body {
		if err := xhtml.Render(w, n); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}

// polyfillMarkup enables fragment-based text highlighting on browsers
// without native support. inline embeds the script, unpkg defers to the
// published package and costs a network fetch at read time.
func polyfillMarkup(mode common.PolyfillMode) string {
	switch mode {
	case common.PolyfillModeInline:
		return "\n<script type=\"module\">\n" + textFragmentsJS + "</script>"
	case common.PolyfillModeUnpkg:
		return `
<script type="module">
if (!('fragmentDirective' in Location.prototype) && !('fragmentDirective' in document)) {
    import('https://unpkg.com/text-fragments-polyfill');
}
</script>`
	default:
		return ""
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
