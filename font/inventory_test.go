package font

import (
	"reflect"
	"testing"

	"ebh/common"
	"ebh/css"
)

func sheetWithFamilies(families ...string) *css.Stylesheet {
	sheet := &css.Stylesheet{}
	for _, f := range families {
		sheet.Items = append(sheet.Items, css.Item{Rule: &css.Rule{
			Selectors:    ".x",
			Declarations: []css.Declaration{{Property: "font-family", Value: f}},
		}})
	}
	return sheet
}

func TestInventory_Collect(t *testing.T) {
	sheet := sheetWithFamilies(
		"Verdana, sans-serif",
		"Verdana,sans-serif", // same stack, different spacing
		"Courier, monospace",
	)
	// @font-face declares an embedded face and must be ignored
	sheet.Items = append(sheet.Items, css.Item{AtRule: &css.AtRule{
		Name:  "@font-face",
		Block: true,
		Declarations: []css.Declaration{
			{Property: "font-family", Value: "Something"},
			{Property: "src", Value: "url(fonts/Something.ttf)"},
		},
	}})

	inv := NewInventory()
	inv.Collect(sheet)

	if got := inv.Stacks(SansSerif); !reflect.DeepEqual(got, []string{"Verdana, sans-serif"}) {
		t.Errorf("sans-serif stacks = %v", got)
	}
	if got := inv.Count(SansSerif, "Verdana, sans-serif"); got != 2 {
		t.Errorf("occurrence count = %d, want 2", got)
	}
	if got := inv.Stacks(Monospace); !reflect.DeepEqual(got, []string{"Courier, monospace"}) {
		t.Errorf("monospace stacks = %v", got)
	}
	if got := inv.Stacks(Unclassified); len(got) != 0 {
		t.Errorf("unclassified stacks = %v", got)
	}
}

func TestInventory_CollectShorthand(t *testing.T) {
	sheet := &css.Stylesheet{Items: []css.Item{
		{Rule: &css.Rule{Selectors: "pre", Declarations: []css.Declaration{
			{Property: "font", Value: "italic 12px/1.5 Courier, monospace"},
		}}},
		{Rule: &css.Rule{Selectors: "p", Declarations: []css.Declaration{
			{Property: "font", Value: "caption"}, // system keyword, no family
		}}},
	}}
	inv := NewInventory()
	inv.Collect(sheet)

	if got := inv.Stacks(Monospace); !reflect.DeepEqual(got, []string{"Courier, monospace"}) {
		t.Errorf("monospace stacks = %v", got)
	}
}

func TestShorthandFamily(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12px Georgia, serif", "Georgia, serif"},
		{"italic bold 12px/1.5 Verdana, sans-serif", "Verdana, sans-serif"},
		{"caption", ""},
		{"12px", ""},
		{".8em Courier", "Courier"},
	}
	for _, tt := range tests {
		if got := shorthandFamily(tt.in); got != tt.want {
			t.Errorf("shorthandFamily(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecide_IfOne(t *testing.T) {
	one := NewInventory()
	one.Add("Verdana, sans-serif")
	one.Add("Verdana, sans-serif")
	dec := Decide(one, common.ReplacementModeIfOne, common.ReplacementModeNever)
	if _, ok := dec.Base["Verdana, sans-serif"]; !ok {
		t.Error("single prose stack not selected under if-one")
	}

	// serif and sans-serif count together: one of each is two distinct
	two := NewInventory()
	two.Add("Verdana, sans-serif")
	two.Add("Times, serif")
	dec = Decide(two, common.ReplacementModeIfOne, common.ReplacementModeNever)
	if len(dec.Base) != 0 {
		t.Errorf("two distinct prose stacks selected under if-one: %v", dec.Base)
	}
}

func TestDecide_AlwaysAndNever(t *testing.T) {
	inv := NewInventory()
	inv.Add("Verdana, sans-serif")
	inv.Add("Times, serif")
	inv.Add("Courier, monospace")
	inv.Add("Consolas, monospace")

	dec := Decide(inv, common.ReplacementModeAlways, common.ReplacementModeAlways)
	if len(dec.Base) != 2 {
		t.Errorf("always selected %v prose stacks, want 2", dec.Base)
	}
	if len(dec.Mono) != 2 {
		t.Errorf("always selected %v monospace stacks, want 2", dec.Mono)
	}

	dec = Decide(inv, common.ReplacementModeNever, common.ReplacementModeNever)
	if len(dec.Base) != 0 || len(dec.Mono) != 0 {
		t.Errorf("never selected stacks: %v %v", dec.Base, dec.Mono)
	}
}

func TestDecide_UnclassifiedNeverSelected(t *testing.T) {
	inv := NewInventory()
	inv.Add("Mystery Face")
	inv.Add("Blippo, fantasy")
	inv.Add("'Comic Sans', cursive")

	dec := Decide(inv, common.ReplacementModeAlways, common.ReplacementModeAlways)
	if len(dec.Base) != 0 || len(dec.Mono) != 0 {
		t.Errorf("non-replaceable categories selected: %v %v", dec.Base, dec.Mono)
	}
}
