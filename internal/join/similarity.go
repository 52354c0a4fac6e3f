package join

import "strings"

// defaultNameSimilarity is the word-overlap score two names must exceed
// before a fuzzy match is accepted. The bound itself is rejected.
const defaultNameSimilarity = 0.8

// nameSimilarity scores two pre-normalized name keys by word overlap: each
// word of the shorter list that appears in the other list (verbatim, as a
// substring, or within edit distance 1) counts as a hit, and the hit count is
// divided by the longer word count. Identical keys score 1.0.
func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) > len(wordsB) {
		wordsA, wordsB = wordsB, wordsA
	}
	hits := 0
	for _, w := range wordsA {
		if wordMatches(w, wordsB) {
			hits++
		}
	}
	return float64(hits) / float64(len(wordsB))
}

func wordMatches(word string, candidates []string) bool {
	for _, c := range candidates {
		if word == c {
			return true
		}
		if len(word) >= 3 && len(c) >= 3 &&
			(strings.Contains(c, word) || strings.Contains(word, c)) {
			return true
		}
		if editDistance(word, c) <= 1 {
			return true
		}
	}
	return false
}

// editDistance is plain Levenshtein over bytes with a two-row table. Name
// words are short, so the quadratic cost never matters.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
