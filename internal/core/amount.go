// Package core holds the domain model of the shared ledger: workspaces,
// memberships, categories, expenses, and the pure aggregation functions
// that derive month summaries from them.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-entered amount string to whole currency
// units. Amounts carry no minor units, so only digits are accepted;
// thousands separators ("10,000") are tolerated and stripped.
// Returns an error for empty, signed, fractional, zero, or overflowing input.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders a whole-unit amount with thousands separators,
// e.g. 18000 -> "18,000".
func FormatAmount(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
