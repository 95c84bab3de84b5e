// Package numerals canonicalizes localized digit glyphs to ASCII digits so
// that substring checks against recognized text work regardless of which
// numeral system the recognition engine emitted.
package numerals

import "strings"

var digitMap = map[rune]rune{
	// Arabic-Indic digits (U+0660..U+0669).
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	// Extended Arabic-Indic digits (U+06F0..U+06F9), used in Persian/Urdu text.
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

// Normalize maps every localized digit glyph in s to its ASCII equivalent.
// All other runes pass through unchanged; the function is idempotent.
func Normalize(s string) string {
	if !containsLocalized(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if d, ok := digitMap[r]; ok {
			b.WriteRune(d)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContainsDigit reports whether s contains any digit, localized or ASCII.
func ContainsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
		if _, ok := digitMap[r]; ok {
			return true
		}
	}
	return false
}

// AllDigits reports whether s is non-empty and consists solely of ASCII
// digits after normalization.
func AllDigits(s string) bool {
	s = Normalize(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsLocalized(s string) bool {
	for _, r := range s {
		if _, ok := digitMap[r]; ok {
			return true
		}
	}
	return false
}
