// Package inline embeds package assets into the output document as data
// URIs so the result needs no companion files.
package inline

import (
	"encoding/base64"
	"net/url"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ebh/config"
	ebhcss "ebh/css"
	"ebh/pack"
)

// CoverClass is set on the cover image element so the injected styles can
// size it differently from in-text images.
const CoverClass = "ebh-cover"

// Inliner resolves asset references against a package and replaces them
// with data URIs. Each asset is encoded once no matter how many times it
// is referenced.
type Inliner struct {
	pkg *pack.Package
	cfg *config.ImagesConfig
	log *zap.Logger

	cache   map[string]string // resolved package path -> data URI
	skipped map[string]bool   // references that did not resolve
}

func New(pkg *pack.Package, cfg *config.ImagesConfig, log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inliner{
		pkg:     pkg,
		cfg:     cfg,
		log:     log.Named("inline"),
		cache:   make(map[string]string),
		skipped: make(map[string]bool),
	}
}

// Skipped returns sorted package paths of references that could not be
// inlined because the asset is missing from the package.
func (in *Inliner) Skipped() []string {
	out := make([]string, 0, len(in.skipped))
	for name := range in.skipped {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Apply rewrites asset references in a parsed markup fragment in place.
// base is the package directory of the fragment, all relative references
// resolve against it.
func (in *Inliner) Apply(base string, doc *html.Node) {
	in.applyNode(base, doc)
}

func (in *Inliner) applyNode(base string, n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			in.applyElement(base, c)
		}
		in.applyNode(base, c)
		c = next
	}
}

func (in *Inliner) applyElement(base string, n *html.Node) {
	switch n.DataAtom {
	case atom.Img:
		if in.rewriteAttr(base, n, "src", true) {
			fence(n)
		}
	case atom.Image:
		// SVG <image> carries href or the legacy xlink:href
		changed := in.rewriteAttr(base, n, "href", true)
		changed = in.rewriteAttr(base, n, "xlink:href", true) || changed
		if changed {
			fence(n)
		}
	case atom.Video:
		in.rewriteAttr(base, n, "src", false)
		in.rewriteAttr(base, n, "poster", false)
	case atom.Audio, atom.Source, atom.Embed:
		in.rewriteAttr(base, n, "src", false)
	case atom.Object:
		in.rewriteAttr(base, n, "data", false)
	}
	for i := range n.Attr {
		if n.Attr[i].Key == "style" && strings.Contains(n.Attr[i].Val, "url(") {
			n.Attr[i].Val = ebhcss.RewriteValueURLs(n.Attr[i].Val, func(ref string) string {
				if uri, ok := in.inlineRef(base, ref); ok {
					return uri
				}
				return ref
			})
		}
	}
}

// rewriteAttr inlines one attribute reference. Reports whether the
// attribute now holds a data URI.
func (in *Inliner) rewriteAttr(base string, n *html.Node, key string, markCover bool) bool {
	for i := range n.Attr {
		if n.Attr[i].Key != key || len(n.Attr[i].Val) == 0 {
			continue
		}
		resolved, ok := in.resolve(base, n.Attr[i].Val)
		if !ok {
			return false
		}
		uri, ok := in.dataURI(resolved)
		if !ok {
			return false
		}
		n.Attr[i].Val = uri
		if markCover && len(in.pkg.Metadata.Cover) > 0 && resolved == path.Clean(in.pkg.Metadata.Cover) {
			addClass(n, CoverClass)
		}
		return true
	}
	return false
}

// Stylesheet rewrites url() references in a parsed stylesheet in place.
func (in *Inliner) Stylesheet(base string, sheet *ebhcss.Stylesheet) {
	sheet.RewriteURLs(func(ref string) string {
		if uri, ok := in.inlineRef(base, ref); ok {
			return uri
		}
		return ref
	})
}

// DataURI inlines one reference directly, outside any markup or stylesheet.
func (in *Inliner) DataURI(base, ref string) (string, bool) {
	return in.inlineRef(base, ref)
}

// Seen reports whether the asset was already inlined during this run.
func (in *Inliner) Seen(assetPath string) bool {
	return len(in.cache[path.Clean(assetPath)]) > 0
}

func (in *Inliner) inlineRef(base, ref string) (string, bool) {
	resolved, ok := in.resolve(base, ref)
	if !ok {
		return "", false
	}
	return in.dataURI(resolved)
}

// resolve turns a relative reference into a package path. External and
// fragment-only references are left alone.
func (in *Inliner) resolve(base, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || len(u.Opaque) > 0 || len(u.Host) > 0 {
		return "", false
	}
	if len(u.Path) == 0 {
		return "", false
	}
	p := u.Path
	if !path.IsAbs(p) {
		p = path.Join(base, p)
	}
	return path.Clean(strings.TrimPrefix(p, "/")), true
}

func (in *Inliner) dataURI(assetPath string) (string, bool) {
	if uri, ok := in.cache[assetPath]; ok {
		return uri, len(uri) > 0
	}
	data, ok := in.pkg.Asset(assetPath)
	if !ok {
		if !in.skipped[assetPath] {
			in.log.Warn("Referenced file is missing from the package, reference kept", zap.String("path", assetPath))
			in.skipped[assetPath] = true
		}
		in.cache[assetPath] = ""
		return "", false
	}

	cover := len(in.pkg.Metadata.Cover) > 0 && assetPath == path.Clean(in.pkg.Metadata.Cover)
	data, mediaType := normalizeImage(assetPath, data, cover, in.cfg, in.log)

	uri := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	in.cache[assetPath] = uri
	in.log.Debug("Inlined asset",
		zap.String("path", assetPath),
		zap.String("media-type", mediaType),
		zap.Int("size", len(data)))
	return uri, true
}

// fence surrounds a node with newline comments so the serialized document
// does not put megabytes of base64 on the line the surrounding prose is on.
func fence(n *html.Node) {
	p := n.Parent
	if p == nil {
		return
	}
	p.InsertBefore(&html.Node{Type: html.CommentNode, Data: "\n"}, n)
	p.InsertBefore(&html.Node{Type: html.CommentNode, Data: "\n"}, n.NextSibling)
}

func addClass(n *html.Node, class string) {
	for i := range n.Attr {
		if n.Attr[i].Key != "class" {
			continue
		}
		for _, c := range strings.Fields(n.Attr[i].Val) {
			if c == class {
				return
			}
		}
		n.Attr[i].Val = strings.TrimSpace(n.Attr[i].Val + " " + class)
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}
