package policy

import "strings"

// Region keys for the raise-cap tables. Every table must carry RegionDefault;
// lookup falls back to it for any unlisted country.
const (
	RegionDefault = "default"
	RegionIndia   = "india"
)

// Recognized promotion types. Anything else on a record is flagged.
const (
	PromotionLevel    = "LEVEL"
	PromotionTitle    = "TITLE"
	PromotionLateral  = "LATERAL"
	PromotionDemotion = "DEMOTION"
)

// Settings is the rule configuration for one validation pass. Read-only
// during a pass; the settings endpoint swaps the whole value between passes.
type Settings struct {
	// ComparatioFloor is the minimum acceptable comparatio, current or
	// projected post-raise.
	ComparatioFloor float64 `json:"comparatioFloor"`
	// MeritRaiseCaps and PromotionRaiseCaps are max raise percents by region
	// key.
	MeritRaiseCaps     map[string]float64 `json:"meritRaiseCaps"`
	PromotionRaiseCaps map[string]float64 `json:"promotionRaiseCaps"`
	// NoRaiseThresholdMonths marks compensation stale when time in role
	// reaches it with no raise proposed.
	NoRaiseThresholdMonths int `json:"noRaiseThresholdMonths"`
	// MinPromotionIntervalMonths is the shortest acceptable gap since a prior
	// promotion.
	MinPromotionIntervalMonths int `json:"minPromotionIntervalMonths"`
	// MaxGradeJump is the largest level count one promotion may cross.
	MaxGradeJump int `json:"maxGradeJump"`
}

// DefaultSettings mirrors the compensation guidelines the tool ships with.
func DefaultSettings() Settings {
	return Settings{
		ComparatioFloor: 80,
		MeritRaiseCaps: map[string]float64{
			RegionDefault: 12,
			RegionIndia:   10,
		},
		PromotionRaiseCaps: map[string]float64{
			RegionDefault: 20,
			RegionIndia:   35,
		},
		NoRaiseThresholdMonths:     24,
		MinPromotionIntervalMonths: 12,
		MaxGradeJump:               2,
	}
}

// regionKey maps a country cell to a cap-table key.
func regionKey(country string) string {
	switch strings.ToLower(strings.TrimSpace(country)) {
	case "india", "in":
		return RegionIndia
	default:
		return RegionDefault
	}
}

func capFor(table map[string]float64, country string) (float64, bool) {
	if table == nil {
		return 0, false
	}
	if v, ok := table[regionKey(country)]; ok {
		return v, true
	}
	v, ok := table[RegionDefault]
	return v, ok
}

func knownPromotionType(t string) bool {
	switch strings.ToUpper(strings.TrimSpace(t)) {
	case PromotionLevel, PromotionTitle, PromotionLateral, PromotionDemotion:
		return true
	}
	return false
}

func isDemotion(t string) bool {
	return strings.EqualFold(strings.TrimSpace(t), PromotionDemotion)
}
