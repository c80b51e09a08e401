package css

import (
	"testing"
)

func singleRule(selectors string, decls ...Declaration) *Stylesheet {
	return &Stylesheet{Items: []Item{
		{Rule: &Rule{Selectors: selectors, Declarations: decls}},
	}}
}

func TestFix_LineHeight(t *testing.T) {
	sheet := singleRule(".something",
		Declaration{Property: "line-height", Value: "1.2"},
		Declaration{Property: "font-family", Value: "Arial"},
	)
	Fix(sheet, FixOptions{})

	d := sheet.Items[0].Rule.Declarations[0]
	if d.Value != "max(1.2, var(--min-line-height))" {
		t.Errorf("line-height = %q", d.Value)
	}
	if d.Comment != Marker {
		t.Errorf("comment = %q", d.Comment)
	}
	if got := sheet.Items[0].Rule.Declarations[1].Value; got != "Arial" {
		t.Errorf("font-family touched: %q", got)
	}
}

func TestFix_LineHeightIdempotent(t *testing.T) {
	sheet := singleRule(".x", Declaration{Property: "line-height", Value: "1.2"})
	Fix(sheet, FixOptions{})
	Fix(sheet, FixOptions{})
	if got := sheet.Items[0].Rule.Declarations[0].Value; got != "max(1.2, var(--min-line-height))" {
		t.Errorf("line-height after second pass = %q", got)
	}
}

func TestFix_FontSize(t *testing.T) {
	sheet := singleRule(".something", Declaration{Property: "font-size", Value: "12px"})
	Fix(sheet, FixOptions{})
	if got := sheet.Items[0].Rule.Declarations[0].Value; got != "max(12px, var(--min-font-size))" {
		t.Errorf("font-size = %q", got)
	}
}

func TestFix_TextAlignJustify(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{Rule: &Rule{Selectors: ".s1", Declarations: []Declaration{{Property: "text-align", Value: "right"}}}},
		{Rule: &Rule{Selectors: ".s2", Declarations: []Declaration{{Property: "text-align", Value: "justify"}}}},
	}}
	Fix(sheet, FixOptions{})

	if got := sheet.Items[0].Rule.Declarations[0]; got.Property != "text-align" || got.Value != "right" {
		t.Errorf("non-justify alignment touched: %+v", got)
	}
	got := sheet.Items[1].Rule.Declarations[0]
	if got.Property != "" {
		t.Errorf("justify not removed: %+v", got)
	}
	if got.Comment != "/* was text-align: justify; */ "+Marker {
		t.Errorf("comment = %q", got.Comment)
	}
}

func TestFix_ParagraphMargins(t *testing.T) {
	tests := []struct {
		selectors string
		property  string
		value     string
		zeroed    bool
	}{
		{".para-p1", "margin-bottom", "0.5em", false}, // too large
		{".para-p2", "margin-bottom", "0.2em", true},
		{".para-p3", "margin-bottom", "0.23em", true},
		{".something", "margin-bottom", "0.2em", false}, // not paragraph-like
		{".indent", "margin-bottom", "0.1em", true},
		{".noindent", "margin-top", "1pt", true},
		{".para", "margin-top", "4.99px", true},
		{".para", "margin-top", "5px", false}, // too large
		{".class_indent1", "margin-top", "0.2em", true},
	}
	for _, tt := range tests {
		sheet := singleRule(tt.selectors, Declaration{Property: tt.property, Value: tt.value})
		Fix(sheet, FixOptions{})
		d := sheet.Items[0].Rule.Declarations[0]
		if tt.zeroed {
			if d.Value != "0" {
				t.Errorf("%s { %s: %s } not zeroed: %q", tt.selectors, tt.property, tt.value, d.Value)
			}
			want := "/* was " + tt.property + ": " + tt.value + "; */ " + Marker
			if d.Comment != want {
				t.Errorf("%s comment = %q, want %q", tt.selectors, d.Comment, want)
			}
		} else if d.Value != tt.value {
			t.Errorf("%s { %s: %s } changed to %q", tt.selectors, tt.property, tt.value, d.Value)
		}
	}
}

func TestFix_ParagraphMarginsCalibreNeedTextIndent(t *testing.T) {
	with := singleRule(".calibre3",
		Declaration{Property: "text-indent", Value: "1em"},
		Declaration{Property: "margin-bottom", Value: "0.2em"},
	)
	Fix(with, FixOptions{})
	if got := with.Items[0].Rule.Declarations[1].Value; got != "0" {
		t.Errorf("margin with text-indent = %q, want 0", got)
	}

	without := singleRule(".calibre3", Declaration{Property: "margin-bottom", Value: "0.2em"})
	Fix(without, FixOptions{})
	if got := without.Items[0].Rule.Declarations[0].Value; got != "0.2em" {
		t.Errorf("margin without text-indent = %q, want 0.2em", got)
	}
}

func TestFix_BackgroundColor(t *testing.T) {
	values := []struct {
		value    string
		replaced bool
	}{
		{"#000", false},
		{"black", false},
		{"#fff", true},
		{"#eee", true},
		{"white", true},
		{"rgb(255, 255, 255)", true},
	}

	for _, sel := range []string{".calibre", ".x-ebookmaker-inner"} {
		for _, tt := range values {
			sheet := singleRule(sel, Declaration{Property: "background-color", Value: tt.value})
			Fix(sheet, FixOptions{InsideBGColor: "#e9e9e9", BGColorSimilarityThreshold: 0.2})
			d := sheet.Items[0].Rule.Declarations[0]
			if tt.replaced && d.Value != "inherit" {
				t.Errorf("%s background %q = %q, want inherit", sel, tt.value, d.Value)
			}
			if !tt.replaced && d.Value != tt.value {
				t.Errorf("%s background %q changed to %q", sel, tt.value, d.Value)
			}
		}
	}

	// a selector that is not a wrapper keeps even near-white backgrounds
	sheet := singleRule(".something", Declaration{Property: "background-color", Value: "#fff"})
	Fix(sheet, FixOptions{InsideBGColor: "#e9e9e9", BGColorSimilarityThreshold: 0.2})
	if got := sheet.Items[0].Rule.Declarations[0].Value; got != "#fff" {
		t.Errorf("background on plain selector changed to %q", got)
	}
}

func TestFix_VerticalAlignSuper(t *testing.T) {
	sheet := singleRule(".calibre8", Declaration{Property: "vertical-align", Value: "super"})
	Fix(sheet, FixOptions{})

	decls := sheet.Items[0].Rule.Declarations
	if len(decls) != 3 {
		t.Fatalf("declarations = %+v", decls)
	}
	if decls[0].Property != "vertical-align" || decls[0].Value != "baseline" {
		t.Errorf("first declaration = %+v", decls[0])
	}
	if decls[1].Property != "position" || decls[1].Value != "relative" {
		t.Errorf("second declaration = %+v", decls[1])
	}
	if decls[2].Property != "top" || decls[2].Value != "-0.4em" {
		t.Errorf("third declaration = %+v", decls[2])
	}

	untouched := singleRule(".x", Declaration{Property: "vertical-align", Value: "top"})
	Fix(untouched, FixOptions{})
	if got := untouched.Items[0].Rule.Declarations; len(got) != 1 || got[0].Value != "top" {
		t.Errorf("vertical-align: top changed: %+v", got)
	}
}

func TestFix_LeavesFontFaceAlone(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{AtRule: &AtRule{
			Name:  "@font-face",
			Block: true,
			Declarations: []Declaration{
				{Property: "font-family", Value: "Something"},
				{Property: "font-size", Value: "10px"},
			},
		}},
	}}
	Fix(sheet, FixOptions{})
	if got := sheet.Items[0].AtRule.Declarations[1].Value; got != "10px" {
		t.Errorf("@font-face declaration changed to %q", got)
	}
}

func TestFix_AppliesInsideMediaBlocks(t *testing.T) {
	sheet := &Stylesheet{Items: []Item{
		{AtRule: &AtRule{
			Name:    "@media",
			Prelude: "screen",
			Block:   true,
			Items: []Item{
				{Rule: &Rule{Selectors: "p", Declarations: []Declaration{{Property: "line-height", Value: "1.1"}}}},
			},
		}},
	}}
	Fix(sheet, FixOptions{})
	if got := sheet.Items[0].AtRule.Items[0].Rule.Declarations[0].Value; got != "max(1.1, var(--min-line-height))" {
		t.Errorf("nested line-height = %q", got)
	}
}
