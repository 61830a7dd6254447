package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores two strings on a 0-100 scale:
// 100 × (1 − editDistance / longerLength), measured in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// termScore compares a window of receipt tokens with a registry term. Word
// boundaries on receipts are unreliable, so the spaced and the space-free
// forms are both compared and the better score wins.
func termScore(window, term string) float64 {
	spaced := Similarity(window, term)
	joined := Similarity(stripSpaces(window), stripSpaces(term))
	return max(spaced, joined)
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
