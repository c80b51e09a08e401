package font

import (
	"sort"
	"strings"
	"unicode"

	"ebh/css"
)

// Inventory maps each category to the distinct stacks observed across the
// whole package, with occurrence counts. Built once per conversion before
// any rewriting, read-only afterwards.
type Inventory struct {
	counts map[Category]map[string]int
}

func NewInventory() *Inventory {
	return &Inventory{counts: make(map[Category]map[string]int)}
}

// Add records one occurrence of a font-family value.
func (inv *Inventory) Add(value string) {
	stack := Normalize(value)
	if stack == "" {
		return
	}
	cat := Classify(stack)
	if inv.counts[cat] == nil {
		inv.counts[cat] = make(map[string]int)
	}
	inv.counts[cat][stack]++
}

// Collect walks a stylesheet and records every font-family declaration and
// every font shorthand carrying a family list. @font-face blocks declare
// embedded faces, not usage, and are skipped.
func (inv *Inventory) Collect(sheet *css.Stylesheet) {
	sheet.EachRule(func(_ string, r *css.Rule) {
		for i := range r.Declarations {
			d := &r.Declarations[i]
			switch d.Property {
			case "font-family":
				inv.Add(d.Value)
			case "font":
				if family := shorthandFamily(d.Value); family != "" {
					inv.Add(family)
				}
			}
		}
	})
}

// Stacks returns the distinct stacks of a category, sorted for stable
// reporting.
func (inv *Inventory) Stacks(cat Category) []string {
	stacks := make([]string, 0, len(inv.counts[cat]))
	for s := range inv.counts[cat] {
		stacks = append(stacks, s)
	}
	sort.Strings(stacks)
	return stacks
}

// Count returns the number of occurrences recorded for a stack within a
// category.
func (inv *Inventory) Count(cat Category, stack string) int {
	return inv.counts[cat][stack]
}

// Distinct returns the union of distinct stacks across the given categories.
func (inv *Inventory) Distinct(cats ...Category) map[string]struct{} {
	out := make(map[string]struct{})
	for _, cat := range cats {
		for s := range inv.counts[cat] {
			out[s] = struct{}{}
		}
	}
	return out
}

// splitShorthand divides a font shorthand value at the font-size (or
// size/line-height) component: everything after it is the family list.
// System keywords like "caption" carry no explicit family.
func splitShorthand(value string) (prefix, family string) {
	fields := strings.Fields(value)
	for i, f := range fields {
		if startsFontSize(f) {
			if i+1 < len(fields) {
				return strings.Join(fields[:i+1], " ") + " ", strings.Join(fields[i+1:], " ")
			}
			return "", ""
		}
	}
	return "", ""
}

func shorthandFamily(value string) string {
	_, family := splitShorthand(value)
	return family
}

func startsFontSize(field string) bool {
	if field == "" {
		return false
	}
	r := rune(field[0])
	return unicode.IsDigit(r) || r == '.' || strings.Contains(field, "/")
}
