package ingest

import (
	"strconv"
	"strings"
)

var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "₹", "", "¥", "",
	",", "", "\"", "", "'", "", " ", "",
)

// parseNumber coerces a spreadsheet cell to a float: currency symbols,
// thousands separators, and stray quotes are stripped before parsing.
// Parenthesized values are treated as negative, per accounting exports.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyStripper.Replace(s)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// parsePercentish coerces performance-style values: "85%" becomes 0.85,
// plain numbers pass through unchanged.
func parsePercentish(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	isPercent := strings.HasSuffix(s, "%")
	v, ok := parseNumber(s)
	if !ok {
		return 0, false
	}
	if isPercent {
		return v / 100, true
	}
	return v, true
}

// parseBool coerces boolean-like cells: yes/y/true/1 are true, everything
// else false.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
