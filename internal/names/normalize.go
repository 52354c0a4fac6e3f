// Package names parses free-form person names from HR exports into a
// canonical first/last/display shape and produces diacritic-insensitive match
// keys for fuzzy joining.
package names

import (
	"strings"
)

// Input accepts either a free-text name or a partial structured name. When
// both FirstName and LastName are present and the free-text form contains no
// comma, the structured form wins.
type Input struct {
	Name      string
	FirstName string
	LastName  string
}

// Options control normalization behavior.
type Options struct {
	// PreserveMiddleName keeps interior tokens as MiddleName instead of
	// folding them into LastName.
	PreserveMiddleName bool
	// DisableProperCase leaves the casing of every part untouched.
	DisableProperCase bool
}

// Normalized is the canonical result shape.
type Normalized struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	MiddleName  string `json:"middleName,omitempty"`
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName"`
}

// Known title prefixes stripped before token assignment.
var titlePrefixes = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true, "professor": true, "rev": true,
	"sir": true, "dame": true, "hon": true,
}

// Known suffixes: generational and professional.
var nameSuffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
	"phd": true, "md": true, "dds": true, "esq": true, "cpa": true,
	"mba": true, "jd": true, "rn": true,
}

// Normalize parses a name into canonical parts. It is a pure function:
// deterministic given identical input and options, no side effects.
func Normalize(in Input, opts Options) Normalized {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	free := strings.TrimSpace(in.Name)

	// Structured form wins unless the free-text form is in HR "Last, First"
	// format, which is authoritative for the inversion.
	if first != "" && last != "" && !strings.Contains(free, ",") {
		return build(first, "", last, opts)
	}

	if free == "" {
		return build(first, "", last, opts)
	}

	var tokens []string
	if idx := strings.Index(free, ","); idx >= 0 {
		// "Last, First[, Middle]" — everything before the first comma is the
		// last name, the remainder is first (and middle) tokens.
		lastPart := strings.TrimSpace(free[:idx])
		rest := strings.ReplaceAll(free[idx+1:], ",", " ")
		tokens = append(fields(rest), fields(lastPart)...)
	} else {
		tokens = fields(free)
	}

	tokens = stripAffixes(tokens)

	switch len(tokens) {
	case 0:
		return build("", "", "", opts)
	case 1:
		return build(tokens[0], "", "", opts)
	case 2:
		return build(tokens[0], "", tokens[1], opts)
	default:
		middle := strings.Join(tokens[1:len(tokens)-1], " ")
		lastTok := tokens[len(tokens)-1]
		if opts.PreserveMiddleName {
			return build(tokens[0], middle, lastTok, opts)
		}
		// Default: interior tokens fold into the last name.
		return build(tokens[0], "", middle+" "+lastTok, opts)
	}
}

// NormalizeString is the common free-text entry point.
func NormalizeString(name string, opts Options) Normalized {
	return Normalize(Input{Name: name}, opts)
}

func build(first, middle, last string, opts Options) Normalized {
	if !opts.DisableProperCase {
		first = properCaseWords(first)
		middle = properCaseWords(middle)
		last = properCaseWords(last)
	}
	display := joinNonEmpty(first, last)
	full := joinNonEmpty(first, middle, last)
	return Normalized{
		FirstName:   first,
		LastName:    last,
		MiddleName:  middle,
		FullName:    full,
		DisplayName: display,
	}
}

func fields(s string) []string {
	return strings.Fields(s)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// stripAffixes removes leading title prefixes and trailing suffixes, but never
// strips a token list down to nothing.
func stripAffixes(tokens []string) []string {
	for len(tokens) > 1 {
		if titlePrefixes[affixKey(tokens[0])] {
			tokens = tokens[1:]
			continue
		}
		break
	}
	for len(tokens) > 1 {
		if nameSuffixes[affixKey(tokens[len(tokens)-1])] {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}
	return tokens
}

func affixKey(token string) string {
	return strings.ToLower(strings.Trim(token, ".,"))
}

// properCaseWords proper-cases every whitespace- or hyphen-separated word,
// with special handling for Scottish/Irish prefixes (Mc, Mac, O', D') that
// capitalize the letter immediately following the prefix.
func properCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = properCaseHyphenated(w)
	}
	return strings.Join(words, " ")
}

func properCaseHyphenated(word string) string {
	parts := strings.Split(word, "-")
	for i, p := range parts {
		parts[i] = properCaseWord(p)
	}
	return strings.Join(parts, "-")
}

func properCaseWord(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)

	for _, prefix := range []string{"o'", "d'"} {
		if strings.HasPrefix(lower, prefix) && len(lower) > len(prefix) {
			rest := lower[len(prefix):]
			return strings.ToUpper(prefix[:1]) + "'" + capitalize(rest)
		}
	}
	for _, prefix := range []string{"mac", "mc"} {
		if strings.HasPrefix(lower, prefix) && len(lower) > len(prefix) {
			rest := lower[len(prefix):]
			return capitalize(prefix) + capitalize(rest)
		}
	}
	return capitalize(lower)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
