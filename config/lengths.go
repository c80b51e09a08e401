package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

// cssLengthUnits are the units accepted in size configuration values.
var cssLengthUnits = map[string]bool{
	"px": true, "pt": true, "pc": true, "em": true, "rem": true,
	"ex": true, "ch": true, "in": true, "cm": true, "mm": true,
	"q": true, "vw": true, "vh": true, "vmin": true, "vmax": true,
	"%": true,
}

func splitCSSNumber(s string) (string, string) {
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || (i == 0 && (c == '-' || c == '+')) {
			continue
		}
		break
	}
	return s[:i], s[i:]
}

// ValidateCSSLength accepts a number followed by a known CSS length unit.
// Bare zero is allowed, any other bare number is not.
func ValidateCSSLength(value string) error {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return errors.New("empty value")
	}
	num, unit := splitCSSNumber(value)
	if len(num) == 0 {
		return fmt.Errorf("%q does not start with a number", value)
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number: %w", num, err)
	}
	if len(unit) == 0 {
		if f == 0 {
			return nil
		}
		return fmt.Errorf("%q is missing a unit", value)
	}
	if !cssLengthUnits[strings.ToLower(unit)] {
		return fmt.Errorf("%q is not a known CSS length unit", unit)
	}
	if f < 0 {
		return fmt.Errorf("%q is negative", value)
	}
	return nil
}

// ValidateCSSLineHeight accepts either a unitless multiplier or a CSS length.
func ValidateCSSLineHeight(value string) error {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return errors.New("empty value")
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if f <= 0 {
			return fmt.Errorf("%q must be positive", value)
		}
		return nil
	}
	return ValidateCSSLength(value)
}

// ValidateCSSColor accepts any color csscolorparser understands plus the
// CSS-wide "unset" keyword used to disable background coloring.
func ValidateCSSColor(value string) error {
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return errors.New("empty value")
	}
	if strings.EqualFold(value, "unset") || strings.EqualFold(value, "inherit") || strings.EqualFold(value, "transparent") {
		return nil
	}
	if _, err := csscolorparser.Parse(value); err != nil {
		return err
	}
	return nil
}
