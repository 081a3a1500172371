// Package normalize canonicalizes category text for comparison.
package normalize

import (
	"strings"
	"unicode"
)

// foldTable maps locale-specific letters to their closest unaccented Latin
// equivalent. A fixed table is used instead of generic Unicode decomposition:
// decomposition mishandles the Turkish dotted İ and dotless ı, which are the
// most common letters in the feeds this module sees.
var foldTable = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'İ': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
	'â': 'a', 'Â': 'a',
	'î': 'i', 'Î': 'i',
	'û': 'u', 'Û': 'u',
	'é': 'e', 'É': 'e',
	'è': 'e', 'È': 'e',
	'ä': 'a', 'Ä': 'a',
	'ë': 'e', 'Ë': 'e',
	'ï': 'i', 'Ï': 'i',
	'ß': 's',
}

// Normalize folds case and locale-specific letters, replaces everything
// outside [a-z0-9] with spaces, collapses whitespace runs and trims. It is
// total (never fails) and idempotent; empty input yields the empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if folded, ok := foldTable[r]; ok {
			r = folded
		} else {
			r = unicode.ToLower(r)
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		// Anything else, whitespace included, becomes a single separator.
		pendingSpace = true
	}
	return b.String()
}
