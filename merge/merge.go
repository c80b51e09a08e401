// Package merge combines chapter-level markup fragments into a single body
// while keeping every anchor addressable. Element ids collide freely between
// fragments produced by the external converter, so later duplicates are
// renamed and links are rewritten to follow them.
package merge

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"sort"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ebh/pack"
)

// Fragment is one parsed sub-document scheduled for merging, in reading
// order. Path is its package path, used to resolve cross-fragment links.
type Fragment struct {
	Path string
	Doc  *html.Node
}

// Result of a merge: wrapper elements in reading order, one per input
// fragment, plus link targets that resolved nowhere.
type Result struct {
	Nodes    []*html.Node
	Dangling []string
}

type merger struct {
	log   *zap.Logger
	frags []Fragment

	byPath map[string]int      // fragment path -> index
	owned  map[string]bool     // every id present in the merged document
	rename []map[string]string // per fragment: original id -> merged id

	dangling map[string]bool
}

// Merge flattens fragments into a single sequence of wrapper elements.
// Each fragment body lands inside a div carrying a stable id derived from
// the fragment path, so links to a fragment file keep working as links to
// its beginning.
func Merge(frags []Fragment, log *zap.Logger) *Result {
	if log == nil {
		log = zap.NewNop()
	}
	m := &merger{
		log:      log.Named("merge"),
		frags:    frags,
		byPath:   make(map[string]int, len(frags)),
		owned:    make(map[string]bool),
		rename:   make([]map[string]string, len(frags)),
		dangling: make(map[string]bool),
	}
	for i := range frags {
		m.byPath[path.Clean(frags[i].Path)] = i
	}
	m.planRenames()

	res := &Result{Nodes: make([]*html.Node, 0, len(frags))}
	for i := range frags {
		m.applyRenames(i)
		m.rewriteLinks(i)
		res.Nodes = append(res.Nodes, m.wrap(i))
	}

	res.Dangling = make([]string, 0, len(m.dangling))
	for target := range m.dangling {
		res.Dangling = append(res.Dangling, target)
	}
	sort.Strings(res.Dangling)
	return res
}

// FragmentAnchor returns the id of the wrapper element emitted for the
// fragment at the given package path.
func FragmentAnchor(p string) string {
	return "ebh-" + slug.Make(path.Clean(p))
}

// planRenames assigns every id a unique merged name. First fragment to use
// an id keeps it, later fragments get a suffix with their ordinal.
func (m *merger) planRenames() {
	// Wrapper anchors exist in the merged document before any content id.
	for i := range m.frags {
		m.owned[FragmentAnchor(m.frags[i].Path)] = true
	}
	for i := range m.frags {
		m.rename[i] = make(map[string]string)
		body := bodyOf(m.frags[i].Doc)
		if body == nil {
			continue
		}
		walk(body, func(n *html.Node) {
			for _, id := range anchorNames(n) {
				if _, seen := m.rename[i][id]; seen {
					// Duplicate inside one fragment, first occurrence rules.
					continue
				}
				if !m.owned[id] {
					m.owned[id] = true
					m.rename[i][id] = id
					continue
				}
				renamed := fmt.Sprintf("%s-f%d", id, i+1)
				for k := 2; m.owned[renamed]; k++ {
					renamed = fmt.Sprintf("%s-f%d-%d", id, i+1, k)
				}
				m.owned[renamed] = true
				m.rename[i][id] = renamed
				m.log.Debug("Renaming duplicate anchor",
					zap.String("fragment", m.frags[i].Path), zap.String("id", id), zap.String("renamed", renamed))
			}
		})
	}
}

func (m *merger) applyRenames(i int) {
	body := bodyOf(m.frags[i].Doc)
	if body == nil {
		return
	}
	walk(body, func(n *html.Node) {
		for j := range n.Attr {
			key := n.Attr[j].Key
			if key != "id" && !(key == "name" && n.DataAtom == atom.A) {
				continue
			}
			if renamed, ok := m.rename[i][n.Attr[j].Val]; ok && renamed != n.Attr[j].Val {
				n.Attr[j].Val = renamed
			}
		}
	})
}

func (m *merger) rewriteLinks(i int) {
	body := bodyOf(m.frags[i].Doc)
	if body == nil {
		return
	}
	base := path.Dir(m.frags[i].Path)
	walk(body, func(n *html.Node) {
		if n.DataAtom != atom.A {
			return
		}
		for j := range n.Attr {
			if n.Attr[j].Key != "href" || len(n.Attr[j].Val) == 0 {
				continue
			}
			if target, ok := m.resolveLink(i, base, n.Attr[j].Val); ok {
				n.Attr[j].Val = target
			}
		}
	})
}

// resolveLink maps an internal link to a merged-document anchor. External
// links report false and stay untouched.
func (m *merger) resolveLink(i int, base, href string) (string, bool) {
	u, err := url.Parse(href)
	if err != nil || u.IsAbs() || len(u.Opaque) > 0 || len(u.Host) > 0 {
		return "", false
	}

	// Same-fragment anchor.
	if len(u.Path) == 0 {
		if len(u.Fragment) == 0 {
			return "", false
		}
		return m.anchorFor(i, u.Fragment, href), true
	}

	p := path.Clean(path.Join(base, u.Path))
	target, ok := m.byPath[p]
	if !ok {
		return "", false
	}
	if len(u.Fragment) == 0 {
		return "#" + FragmentAnchor(m.frags[target].Path), true
	}
	return m.anchorFor(target, u.Fragment, href), true
}

// anchorFor finds the merged name of an anchor referenced from fragment i.
// A target that exists nowhere in the book is recorded as dangling and the
// link falls back to the owning fragment's wrapper.
func (m *merger) anchorFor(i int, id, original string) string {
	if renamed, ok := m.rename[i][id]; ok {
		return "#" + renamed
	}
	if m.owned[id] {
		return "#" + id
	}
	ref := m.frags[i].Path + "#" + id
	if !m.dangling[ref] {
		m.dangling[ref] = true
		m.log.Warn("Link target not found, pointing at fragment start",
			zap.String("fragment", m.frags[i].Path), zap.String("href", original))
	}
	return "#" + FragmentAnchor(m.frags[i].Path)
}

// wrap detaches the fragment's body children into a new wrapper div.
func (m *merger) wrap(i int) *html.Node {
	div := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "id", Val: FragmentAnchor(m.frags[i].Path)},
			{Key: "class", Val: "ebh-fragment"},
		},
	}
	body := bodyOf(m.frags[i].Doc)
	if body == nil {
		return div
	}
	for c := body.FirstChild; c != nil; {
		next := c.NextSibling
		body.RemoveChild(c)
		div.AppendChild(c)
		c = next
	}
	return div
}

// Parse prepares one raw package fragment for merging.
func Parse(f pack.Fragment) (Fragment, error) {
	doc, err := html.Parse(bytes.NewReader(f.Data))
	if err != nil {
		return Fragment{}, fmt.Errorf("unable to parse fragment %q: %w", f.Path, err)
	}
	return Fragment{Path: f.Path, Doc: doc}, nil
}

func bodyOf(doc *html.Node) *html.Node {
	var body *html.Node
	walk(doc, func(n *html.Node) {
		if body == nil && n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
		}
	})
	return body
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// anchorNames lists the addressable names an element defines.
func anchorNames(n *html.Node) []string {
	if n.Type != html.ElementNode {
		return nil
	}
	var out []string
	for _, a := range n.Attr {
		if len(a.Val) == 0 {
			continue
		}
		if a.Key == "id" || (a.Key == "name" && n.DataAtom == atom.A) {
			out = append(out, a.Val)
		}
	}
	return out
}
