package css

import (
	"strings"
	"testing"
)

func parseText(t *testing.T, text string) *Stylesheet {
	t.Helper()
	return NewParser(nil).Parse([]byte(text), "test")
}

func onlyRules(t *testing.T, sheet *Stylesheet) []*Rule {
	t.Helper()
	var rules []*Rule
	sheet.EachRule(func(_ string, r *Rule) {
		rules = append(rules, r)
	})
	return rules
}

func TestParse_SimpleRules(t *testing.T) {
	sheet := parseText(t, `
.block3 {
	color: red
}
.block4{
	color: blue;
	margin-bottom: 1em;
}
`)
	rules := onlyRules(t, sheet)
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].Selectors != ".block3" {
		t.Errorf("first selector = %q", rules[0].Selectors)
	}
	if len(rules[0].Declarations) != 1 || rules[0].Declarations[0].Property != "color" || rules[0].Declarations[0].Value != "red" {
		t.Errorf("first rule declarations = %+v", rules[0].Declarations)
	}
	if len(rules[1].Declarations) != 2 {
		t.Fatalf("second rule declarations = %+v", rules[1].Declarations)
	}
	if rules[1].Declarations[1].Property != "margin-bottom" || rules[1].Declarations[1].Value != "1em" {
		t.Errorf("second rule declarations = %+v", rules[1].Declarations)
	}
}

func TestParse_SelectorList(t *testing.T) {
	sheet := parseText(t, ".block2, img { display: block }")
	rules := onlyRules(t, sheet)
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if rules[0].Selectors != ".block2, img" {
		t.Errorf("selectors = %q, want %q", rules[0].Selectors, ".block2, img")
	}
}

func TestParse_RebuiltTextKeepsAuthorSpacing(t *testing.T) {
	sheet := parseText(t, "div p, .a > .b { border: 1px solid red; font-family: Georgia, serif; margin: 0 auto }")
	rules := onlyRules(t, sheet)
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	if rules[0].Selectors != "div p, .a > .b" {
		t.Errorf("selectors = %q, want %q", rules[0].Selectors, "div p, .a > .b")
	}
	want := []struct{ prop, val string }{
		{"border", "1px solid red"},
		{"font-family", "Georgia, serif"},
		{"margin", "0 auto"},
	}
	if len(rules[0].Declarations) != len(want) {
		t.Fatalf("declarations = %+v", rules[0].Declarations)
	}
	for i, w := range want {
		d := rules[0].Declarations[i]
		if d.Property != w.prop || d.Value != w.val {
			t.Errorf("declaration %d = %q: %q, want %q: %q", i, d.Property, d.Value, w.prop, w.val)
		}
	}
}

func TestParse_DeclarationOrderPreserved(t *testing.T) {
	sheet := parseText(t, `.para {
	margin-top: 1px;
	margin-bottom: 1px;
	margin-top: 2px;
}`)
	rules := onlyRules(t, sheet)
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
	want := []struct{ prop, val string }{
		{"margin-top", "1px"},
		{"margin-bottom", "1px"},
		{"margin-top", "2px"},
	}
	if len(rules[0].Declarations) != len(want) {
		t.Fatalf("declarations = %+v", rules[0].Declarations)
	}
	for i, w := range want {
		d := rules[0].Declarations[i]
		if d.Property != w.prop || d.Value != w.val {
			t.Errorf("declaration %d = %q: %q, want %q: %q", i, d.Property, d.Value, w.prop, w.val)
		}
	}
}

func TestParse_Important(t *testing.T) {
	sheet := parseText(t, "img { height: auto !important }")
	rules := onlyRules(t, sheet)
	if len(rules) != 1 || len(rules[0].Declarations) != 1 {
		t.Fatalf("unexpected parse result: %+v", sheet)
	}
	d := rules[0].Declarations[0]
	if !d.Important {
		t.Error("Important flag not set")
	}
	if d.Value != "auto" {
		t.Errorf("value = %q, want %q", d.Value, "auto")
	}
}

func TestParse_MediaBlock(t *testing.T) {
	sheet := parseText(t, `@media only screen and (min-width: 30em) {
	body { padding: 2em }
}`)
	if len(sheet.Items) != 1 || sheet.Items[0].AtRule == nil {
		t.Fatalf("items = %+v", sheet.Items)
	}
	at := sheet.Items[0].AtRule
	if at.Name != "@media" {
		t.Errorf("name = %q", at.Name)
	}
	if !at.Block {
		t.Error("expected a block at-rule")
	}
	if !strings.Contains(at.Prelude, "min-width") {
		t.Errorf("prelude = %q", at.Prelude)
	}
	if len(at.Items) != 1 || at.Items[0].Rule == nil || at.Items[0].Rule.Selectors != "body" {
		t.Errorf("nested items = %+v", at.Items)
	}
}

func TestParse_FontFace(t *testing.T) {
	sheet := parseText(t, `@font-face {
	font-family: Something;
	src: url(OEBPS/fonts/Something.ttf)
}`)
	if len(sheet.Items) != 1 || sheet.Items[0].AtRule == nil {
		t.Fatalf("items = %+v", sheet.Items)
	}
	at := sheet.Items[0].AtRule
	if at.Name != "@font-face" {
		t.Errorf("name = %q", at.Name)
	}
	if len(at.Declarations) != 2 {
		t.Fatalf("declarations = %+v", at.Declarations)
	}
	if at.Declarations[0].Property != "font-family" || at.Declarations[0].Value != "Something" {
		t.Errorf("declarations = %+v", at.Declarations)
	}
	// font-face content must not be visible as rules
	if rules := onlyRules(t, sheet); len(rules) != 0 {
		t.Errorf("EachRule visited @font-face content: %+v", rules)
	}
}

func TestParse_Import(t *testing.T) {
	sheet := parseText(t, `@import url("extra.css");
p { color: black }`)
	if len(sheet.Items) != 2 {
		t.Fatalf("items = %+v", sheet.Items)
	}
	at := sheet.Items[0].AtRule
	if at == nil || at.Name != "@import" || at.Block {
		t.Fatalf("first item = %+v", sheet.Items[0])
	}
	if !strings.Contains(at.Prelude, "extra.css") {
		t.Errorf("prelude = %q", at.Prelude)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	sheet := parseText(t, "")
	if len(sheet.Items) != 0 {
		t.Errorf("items = %+v", sheet.Items)
	}
}

func TestSerialize_Stylesheet(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{Rule: &Rule{
			Selectors: ".something",
			Declarations: []Declaration{
				{Property: "color", Value: "red"},
				{Property: "height", Value: "auto", Important: true},
				{Comment: "/* was text-align: justify; */"},
			},
		}},
		{AtRule: &AtRule{Name: "@import", Prelude: `url("extra.css")`}},
		{AtRule: &AtRule{
			Name:  "@font-face",
			Block: true,
			Declarations: []Declaration{
				{Property: "font-family", Value: "Something"},
				{Property: "src", Value: "url(fonts/Something.ttf)"},
			},
		}},
		{AtRule: &AtRule{
			Name:    "@media",
			Prelude: "print",
			Block:   true,
			Items: []Item{
				{Rule: &Rule{Selectors: "body", Declarations: []Declaration{{Property: "padding", Value: "0"}}}},
			},
		}},
	}}

	want := `.something {
    color: red;
    height: auto !important;
    /* was text-align: justify; */
}
@import url("extra.css");
@font-face {
    font-family: Something;
    src: url(fonts/Something.ttf);
}
@media print {
    body {
        padding: 0;
    }
}
`
	if got := sheet.String(); got != want {
		t.Errorf("serialized stylesheet:\n%s\nwant:\n%s", got, want)
	}
}

func TestRewriteURLs(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{Rule: &Rule{
			Selectors: ".bg",
			Declarations: []Declaration{
				{Property: "background", Value: `url("images/back.png") no-repeat`},
				{Property: "color", Value: "red"},
			},
		}},
		{AtRule: &AtRule{
			Name:  "@font-face",
			Block: true,
			Declarations: []Declaration{
				{Property: "src", Value: "url(fonts/A.ttf)"},
			},
		}},
		{AtRule: &AtRule{Name: "@import", Prelude: "url('extra.css')"}},
	}}

	var seen []string
	sheet.RewriteURLs(func(ref string) string {
		seen = append(seen, ref)
		return "data:" + ref
	})

	wantSeen := []string{"images/back.png", "fonts/A.ttf", "extra.css"}
	if len(seen) != len(wantSeen) {
		t.Fatalf("visited refs = %v, want %v", seen, wantSeen)
	}
	for i, w := range wantSeen {
		if seen[i] != w {
			t.Errorf("ref %d = %q, want %q", i, seen[i], w)
		}
	}
	if got := sheet.Items[0].Rule.Declarations[0].Value; got != `url("data:images/back.png") no-repeat` {
		t.Errorf("rewritten background = %q", got)
	}
	if got := sheet.Items[1].AtRule.Declarations[0].Value; got != `url("data:fonts/A.ttf")` {
		t.Errorf("rewritten src = %q", got)
	}
	if got := sheet.Items[2].AtRule.Prelude; got != `url("data:extra.css")` {
		t.Errorf("rewritten import = %q", got)
	}
}

func TestRewriteURLs_UnchangedKeepsOriginalQuoting(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{Rule: &Rule{
			Selectors:    ".bg",
			Declarations: []Declaration{{Property: "background", Value: "url(images/back.png)"}},
		}},
	}}
	sheet.RewriteURLs(func(ref string) string { return ref })
	if got := sheet.Items[0].Rule.Declarations[0].Value; got != "url(images/back.png)" {
		t.Errorf("value changed to %q", got)
	}
}
