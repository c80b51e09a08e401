package font

import (
	"fmt"

	"ebh/css"
)

// Apply rewrites every font-family declaration (and font shorthand) whose
// stack the decision marks for replacement. The original value is kept in a
// trailing comment. Returns the number of declarations changed.
func Apply(sheet *css.Stylesheet, dec Decision) int {
	replaced := 0
	sheet.EachRule(func(_ string, r *css.Rule) {
		for i := range r.Declarations {
			d := &r.Declarations[i]
			switch d.Property {
			case "font-family":
				if repl, ok := replacement(d.Value, dec); ok {
					d.Comment = fmt.Sprintf("/* was font-family: %s; */ %s", d.Value, css.Marker)
					d.Value = repl
					replaced++
				}
			case "font":
				prefix, family := splitShorthand(d.Value)
				if family == "" {
					continue
				}
				if repl, ok := replacement(family, dec); ok {
					d.Comment = fmt.Sprintf("/* was font: %s; */ %s", d.Value, css.Marker)
					d.Value = prefix + repl
					replaced++
				}
			}
		}
	})
	return replaced
}

func replacement(value string, dec Decision) (string, bool) {
	stack := Normalize(value)
	if _, ok := dec.Base[stack]; ok {
		return "var(--base-font-family)", true
	}
	if _, ok := dec.Mono[stack]; ok {
		return "var(--monospace-font-family)", true
	}
	return "", false
}
