package font

import (
	"ebh/common"
)

// Decision is the replacement outcome for one conversion run: the sets of
// normalized stacks to override. Serif and SansSerif are governed together
// by one policy since most books use a single prose typeface; Monospace is
// governed separately. Computed once from the whole package inventory and
// applied uniformly, never re-decided per stylesheet.
type Decision struct {
	Base map[string]struct{} // replaced with var(--base-font-family)
	Mono map[string]struct{} // replaced with var(--monospace-font-family)
}

// Decide evaluates the configured policies against the inventory.
//
//   - never: the set stays empty regardless of inventory.
//   - always: every stack of the governed categories is replaced.
//   - if-one: replaced only when the governed categories hold exactly one
//     distinct stack across the whole package; multiple distinct stacks
//     likely encode authorial intent and suppress replacement.
//
// Cursive, Fantasy and Unclassified stacks are never candidates.
func Decide(inv *Inventory, serifAndSans, mono common.ReplacementMode) Decision {
	return Decision{
		Base: pick(inv.Distinct(Serif, SansSerif), serifAndSans),
		Mono: pick(inv.Distinct(Monospace), mono),
	}
}

func pick(stacks map[string]struct{}, mode common.ReplacementMode) map[string]struct{} {
	switch mode {
	case common.ReplacementModeAlways:
		return stacks
	case common.ReplacementModeIfOne:
		if len(stacks) == 1 {
			return stacks
		}
	}
	return map[string]struct{}{}
}
