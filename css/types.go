// Package css implements a tolerant stylesheet model: parsing into rules and
// ordered declarations, serialization back to text, and the presentation
// rewrites applied to book styles before they are embedded into the output.
package css

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Declaration is a single "property: value" entry inside a rule or an
// at-rule block. A Declaration with an empty Property carries only its
// Comment and serializes as a comment line, which is how removed
// declarations keep their provenance in the output.
type Declaration struct {
	Property  string
	Value     string
	Important bool
	Comment   string // trailing comment(s), including the surrounding /* */
}

// Rule is a selector list with its declaration block. Selectors keeps the
// author's text as written, we never interpret it beyond prefix checks.
type Rule struct {
	Selectors    string
	Declarations []Declaration
}

// HasProperty reports whether any declaration in the rule has the given
// property name.
func (r *Rule) HasProperty(name string) bool {
	for i := range r.Declarations {
		if r.Declarations[i].Property == name {
			return true
		}
	}
	return false
}

// AtRule is any @-rule. Block-less rules (@import, @charset) keep only
// Name and Prelude. Block rules hold either nested Items (@media, @supports)
// or plain Declarations (@font-face, @page).
type AtRule struct {
	Name    string // includes the leading "@"
	Prelude string
	Block   bool

	Items        []Item
	Declarations []Declaration
}

// Item is a single stylesheet member. Exactly one field is set. Raw carries
// text we could not interpret; it passes through serialization verbatim.
type Item struct {
	Rule   *Rule
	AtRule *AtRule
	Raw    string
}

// Stylesheet is an ordered sequence of items parsed from one CSS source.
type Stylesheet struct {
	Items []Item
}

// EachRule visits every rule in the stylesheet in source order, descending
// into nested at-rule blocks. The enclosing at-rule name is passed along
// ("" for top level) so callers can treat @media content differently.
// Declarations directly inside at-rules such as @font-face are not visited.
func (s *Stylesheet) EachRule(fn func(atName string, r *Rule)) {
	eachRule(s.Items, "", fn)
}

func eachRule(items []Item, atName string, fn func(string, *Rule)) {
	for i := range items {
		switch {
		case items[i].Rule != nil:
			fn(atName, items[i].Rule)
		case items[i].AtRule != nil:
			eachRule(items[i].AtRule.Items, items[i].AtRule.Name, fn)
		}
	}
}

// WriteTo serializes the stylesheet in source order, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	writeItems(&sb, s.Items, 0)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	writeItems(&sb, s.Items, 0)
	return sb.String()
}

const indentStep = "    "

func writeItems(sb *strings.Builder, items []Item, depth int) {
	indent := strings.Repeat(indentStep, depth)
	for i := range items {
		switch {
		case items[i].Rule != nil:
			r := items[i].Rule
			sb.WriteString(indent)
			sb.WriteString(r.Selectors)
			sb.WriteString(" {\n")
			writeDeclarations(sb, r.Declarations, depth+1)
			sb.WriteString(indent)
			sb.WriteString("}\n")
		case items[i].AtRule != nil:
			writeAtRule(sb, items[i].AtRule, depth)
		case items[i].Raw != "":
			sb.WriteString(indent)
			sb.WriteString(items[i].Raw)
			sb.WriteString("\n")
		}
	}
}

func writeAtRule(sb *strings.Builder, at *AtRule, depth int) {
	indent := strings.Repeat(indentStep, depth)
	sb.WriteString(indent)
	sb.WriteString(at.Name)
	if at.Prelude != "" {
		sb.WriteString(" ")
		sb.WriteString(at.Prelude)
	}
	if !at.Block {
		sb.WriteString(";\n")
		return
	}
	sb.WriteString(" {\n")
	if len(at.Declarations) > 0 {
		writeDeclarations(sb, at.Declarations, depth+1)
	}
	if len(at.Items) > 0 {
		writeItems(sb, at.Items, depth+1)
	}
	sb.WriteString(indent)
	sb.WriteString("}\n")
}

func writeDeclarations(sb *strings.Builder, decls []Declaration, depth int) {
	indent := strings.Repeat(indentStep, depth)
	for i := range decls {
		d := &decls[i]
		sb.WriteString(indent)
		if d.Property == "" {
			sb.WriteString(d.Comment)
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(d.Property)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		if d.Important {
			sb.WriteString(" !important")
		}
		sb.WriteString(";")
		if d.Comment != "" {
			sb.WriteString(" ")
			sb.WriteString(d.Comment)
		}
		sb.WriteString("\n")
	}
}

// urlPattern matches url() references in CSS values:
// url("path"), url('path'), url(path).
var urlPattern = regexp.MustCompile(`url\s*\(\s*(?:"([^"]*)"|'([^']*)'|([^)"']*))\s*\)`)

// RewriteURLs applies fn to every url() reference in the stylesheet,
// covering declaration values everywhere (including @font-face src) and
// block-less at-rule preludes (@import). References fn leaves unchanged
// are kept as written.
func (s *Stylesheet) RewriteURLs(fn func(ref string) string) {
	rewriteItems(s.Items, fn)
}

// RewriteValueURLs applies fn to every url() reference within a single CSS
// value, following the same rules as RewriteURLs. Useful for inline style
// attributes which never go through the stylesheet model.
func RewriteValueURLs(value string, fn func(ref string) string) string {
	return rewriteValue(value, fn)
}

func rewriteItems(items []Item, fn func(string) string) {
	for i := range items {
		switch {
		case items[i].Rule != nil:
			rewriteDeclarations(items[i].Rule.Declarations, fn)
		case items[i].AtRule != nil:
			at := items[i].AtRule
			if !at.Block {
				at.Prelude = rewriteValue(at.Prelude, fn)
				continue
			}
			rewriteDeclarations(at.Declarations, fn)
			rewriteItems(at.Items, fn)
		}
	}
}

func rewriteDeclarations(decls []Declaration, fn func(string) string) {
	for i := range decls {
		if strings.Contains(decls[i].Value, "url(") {
			decls[i].Value = rewriteValue(decls[i].Value, fn)
		}
	}
}

func rewriteValue(value string, fn func(string) string) string {
	return urlPattern.ReplaceAllStringFunc(value, func(match string) string {
		sub := urlPattern.FindStringSubmatch(match)
		ref := sub[1]
		if ref == "" {
			ref = sub[2]
		}
		if ref == "" {
			ref = strings.TrimSpace(sub[3])
		}
		replaced := fn(ref)
		if replaced == ref {
			return match
		}
		return fmt.Sprintf(`url("%s")`, escapeDoubleQuoted(replaced))
	})
}

// escapeDoubleQuoted escapes a string for use inside CSS double quotes.
func escapeDoubleQuoted(s string) string {
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
