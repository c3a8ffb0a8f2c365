// Package core holds the transaction model shared by every other package.
//
// This file contains the amount parser used by the manual entry paths
// (HTTP form posts and the ledgerctl CLI).
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-typed decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading currency sign ("$12"). Negative values, signs, and anything
// that is not a plain decimal number are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("$300")  -> 300, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount with two decimals, e.g. "$12.50" or "-$3.00".
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := "$" + strconv.FormatFloat(v, 'f', 2, 64)
	if neg {
		return "-" + s
	}
	return s
}
