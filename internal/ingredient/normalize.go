package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, replaces every rune that is not a letter or digit
// with a space and collapses whitespace. The input is NFKC-normalized first so
// full-width and compatibility forms compare equal to their plain forms.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Canonicalize returns the canonical key for s: Normalize followed by
// per-word singularization.
func Canonicalize(s string) string {
	words := strings.Fields(Normalize(s))
	for i, w := range words {
		words[i] = Singular(w)
	}
	return strings.Join(words, " ")
}

// Singular strips common English plural endings from a single lowercase word.
// Short words and words ending in "ss", "us" or "is" are left alone.
func Singular(word string) string {
	if len(word) <= 3 {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "oes"),
		strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "ches"),
		strings.HasSuffix(word, "xes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"),
		strings.HasSuffix(word, "us"),
		strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}
