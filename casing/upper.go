// Package casing implements the uppercase naming convention predicate.
package casing

import "unicode"

// IsUpper reports whether s contains at least one cased character and no
// lowercase or titlecase character. Digits, punctuation, and other uncased
// runes are ignored, so "AV1_10BIT" is upper and "123" is not.
func IsUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case isLower(r), unicode.IsTitle(r):
			return false
		case isUpper(r):
			cased = true
		}
	}
	return cased
}

func isUpper(r rune) bool {
	return unicode.IsUpper(r) || unicode.Is(unicode.Other_Uppercase, r)
}

func isLower(r rune) bool {
	return unicode.IsLower(r) || unicode.Is(unicode.Other_Lowercase, r)
}
