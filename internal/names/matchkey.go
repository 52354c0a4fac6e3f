package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MatchKey reduces a name to the form used for fuzzy matching: lowercase,
// diacritics stripped, punctuation removed, "Last, First" un-inverted, and
// whitespace collapsed.
func MatchKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return s
	}

	// Un-invert before stripping punctuation so the comma is still visible.
	if idx := strings.Index(s, ","); idx >= 0 {
		last := strings.TrimSpace(s[:idx])
		first := strings.TrimSpace(s[idx+1:])
		if first != "" && last != "" {
			s = first + " " + last
		}
	}

	s = stripDiacritics(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
		// Apostrophes, periods, and other punctuation drop out entirely.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// stripDiacritics removes accent marks by NFD-decomposing the string and
// dropping combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
