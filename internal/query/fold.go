package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the search key for s: NFC-normalized, Unicode case-folded and
// normalized again, so that canonically equivalent spellings and case
// variants compare equal.
func Fold(s string) string {
	// cases.Caser is stateful; build one per call.
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(s)))
}

// containsFold reports whether needle occurs in haystack after folding both.
func containsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
