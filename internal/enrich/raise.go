package enrich

import (
	"fmt"
	"math"
	"strings"

	"compass/internal/employee/models"
)

// Region-dependent raise ceilings, percent of USD salary.
const (
	maxRaisePercentDefault = 12.0
	maxRaisePercentIndia   = 10.0
)

// Raise priority tags, driven by the same thresholds as retention risk and
// position in range.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"
)

// Recommendation is a system-suggested raise: percent of USD salary, the
// USD amount, the reasoning in the order it accrued, and a priority tag.
type Recommendation struct {
	Percent  float64      `json:"percent"`
	Amount   models.Money `json:"amount"`
	Reasons  []string     `json:"reasons"`
	Priority string       `json:"priority"`
}

// RegionMaxRaisePercent returns the budget-constraint ceiling for a country.
func RegionMaxRaisePercent(country string) float64 {
	if strings.EqualFold(strings.TrimSpace(country), "india") ||
		strings.EqualFold(strings.TrimSpace(country), "in") {
		return maxRaisePercentIndia
	}
	return maxRaisePercentDefault
}

// RecommendRaise computes a suggested raise for an enriched employee: a
// position-in-range baseline, bonuses for performance, retention risk, and
// overdue raises, clamped to the regional ceiling. The amount is derived from
// the USD-normalized salary so recommendations stay budget-comparable.
func RecommendRaise(emp *models.Employee) Recommendation {
	rec := Recommendation{Priority: PriorityLow}
	analysis := AnalyzeSalary(emp)

	switch analysis.Position {
	case PositionBelowRange:
		rec.Percent = 8
		rec.Reasons = append(rec.Reasons, "salary below grade minimum")
	case PositionLow:
		rec.Percent = 6
		rec.Reasons = append(rec.Reasons, "salary in the low end of grade")
	case PositionTarget:
		rec.Percent = 3
		rec.Reasons = append(rec.Reasons, "salary at target, standard merit")
	case PositionHigh:
		rec.Percent = 2
		rec.Reasons = append(rec.Reasons, "salary already high in grade")
	case PositionAboveRange:
		rec.Reasons = append(rec.Reasons, "salary above grade maximum, no baseline")
	}

	if rating, known := emp.Rating.Score(); known {
		switch {
		case rating >= 4.5:
			rec.Percent += 3
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("top-tier performance (%s)", emp.Rating))
		case rating >= 3.5:
			rec.Percent += 1
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("solid performance (%s)", emp.Rating))
		}
	}

	switch riskBand(emp.RetentionRisk) {
	case RiskCritical:
		rec.Percent += 4
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("critical retention risk (%d)", emp.RetentionRisk))
	case RiskHigh:
		rec.Percent += 2
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("high retention risk (%d)", emp.RetentionRisk))
	}

	if emp.LastRaiseMonths != nil && *emp.LastRaiseMonths > 18 {
		rec.Percent++
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("no raise in %d months", *emp.LastRaiseMonths))
	}

	if ceiling := RegionMaxRaisePercent(emp.Country); rec.Percent > ceiling {
		rec.Percent = ceiling
		rec.Reasons = append(rec.Reasons, fmt.Sprintf("clamped to %.0f%% regional ceiling", ceiling))
	}

	usd := usdSalary(emp)
	rec.Amount = models.USD(math.Round(usd*rec.Percent) / 100)

	rec.Priority = raisePriority(emp, analysis)
	return rec
}

func raisePriority(emp *models.Employee, analysis SalaryAnalysis) string {
	band := riskBand(emp.RetentionRisk)
	switch {
	case band == RiskCritical || analysis.Position == PositionBelowRange:
		return PriorityCritical
	case band == RiskHigh || analysis.Position == PositionLow:
		return PriorityHigh
	case analysis.Position == PositionTarget:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
