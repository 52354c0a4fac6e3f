package models

import (
	"strconv"
	"strings"
)

// RatingKind distinguishes numeric review scores from free-text categories.
type RatingKind string

const (
	RatingNumeric     RatingKind = "numeric"
	RatingCategorical RatingKind = "categorical"
	RatingNone        RatingKind = "none"
)

// Rating is a tagged performance rating. Exports mix 0-5 numeric scores with
// category labels like "High Impact Performer"; the label is preserved
// verbatim and only converted to a number through Score.
type Rating struct {
	Kind  RatingKind `json:"kind"`
	Value float64    `json:"value,omitempty"`
	Label string     `json:"label,omitempty"`
}

// categoryScale maps known free-text categories to the 0-5 numeric scale used
// wherever a numeric comparison is needed.
var categoryScale = map[string]float64{
	"high impact performer":  5.0,
	"top talent":             5.0,
	"exceptional":            5.0,
	"exceeds expectations":   4.5,
	"strong performer":       4.0,
	"solid performer":        3.5,
	"meets expectations":     3.0,
	"consistent performer":   3.0,
	"developing":             2.5,
	"inconsistent performer": 2.0,
	"below expectations":     1.5,
	"needs improvement":      1.0,
	"underperformer":         1.0,
	"new to role":            3.0,
	"too new to rate":        3.0,
}

// ParseRating builds a Rating from a raw cell value. Numeric strings become
// numeric ratings; anything else non-empty is categorical.
func ParseRating(raw string) Rating {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Rating{Kind: RatingNone}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 0 {
			v = 0
		}
		if v > 5 {
			v = 5
		}
		return Rating{Kind: RatingNumeric, Value: v}
	}
	return Rating{Kind: RatingCategorical, Label: s}
}

// Score converts the rating to the normalized 0-5 scale. Unknown categories
// and missing ratings score as the neutral midpoint 3.0 with ok=false.
func (r Rating) Score() (float64, bool) {
	switch r.Kind {
	case RatingNumeric:
		return r.Value, true
	case RatingCategorical:
		if v, ok := categoryScale[strings.ToLower(strings.TrimSpace(r.Label))]; ok {
			return v, true
		}
		return 3.0, false
	default:
		return 3.0, false
	}
}

// IsSet reports whether any rating was supplied.
func (r Rating) IsSet() bool { return r.Kind != RatingNone }

// String renders the rating for factor messages and exports.
func (r Rating) String() string {
	switch r.Kind {
	case RatingNumeric:
		return strconv.FormatFloat(r.Value, 'f', -1, 64)
	case RatingCategorical:
		return r.Label
	default:
		return ""
	}
}
