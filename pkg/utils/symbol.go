// Package utils provides common string helpers for stockbrief.
package utils

import "strings"

// NormalizeSymbol upper-cases a ticker symbol and strips surrounding
// whitespace and a leading "$" (common in chat and CLI input).
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	return strings.TrimPrefix(symbol, "$")
}

// Truncate returns at most n runes of s. It never splits a multi-byte rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// FirstSentence returns the text before the first period of s, or all of s
// if it contains no period.
func FirstSentence(s string) string {
	before, _, _ := strings.Cut(s, ".")
	return before
}

// ValidSymbol reports whether s looks like a ticker: 1 to 12 characters of
// A-Z, 0-9, '.' or '-' (e.g. "BRK.B", "RDS-A"). Normalize first.
func ValidSymbol(s string) bool {
	if len(s) == 0 || len(s) > 12 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return true
}
