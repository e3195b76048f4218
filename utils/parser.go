package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// nonNumeric matches everything that cannot be part of a locale-formatted number.
var nonNumeric = regexp.MustCompile(`[^\d.,]`)

// ErrNoNumber is returned when a string holds no digits at all.
var ErrNoNumber = errors.New("no number found")

// NormalizeNumber strips everything but digits and separators from s and
// rewrites it with '.' as the only decimal separator.
//
// When both ',' and '.' occur, whichever comes last is the decimal separator
// ("1.234,56" and "1,234.56" both become "1234.56"). A lone ',' followed by at
// most two digits is a decimal separator ("12,5"), otherwise it groups
// thousands ("1,234"). Dots alone are left as they are, so "12.345" stays 12.345.
func NormalizeNumber(s string) (string, error) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if strings.IndexAny(cleaned, "0123456789") < 0 {
		return "", ErrNoNumber
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}
	return cleaned, nil
}

// ParseDecimal parses a price string such as "1.234,56 TL" into an exact decimal.
func ParseDecimal(s string) (decimal.Decimal, error) {
	normalized, err := NormalizeNumber(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %q: %w", normalized, err)
	}
	return d, nil
}
