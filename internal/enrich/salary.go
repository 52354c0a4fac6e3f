package enrich

import "compass/internal/employee/models"

// Position-in-range classifications from comparatio thresholds and the
// absolute grade bounds.
const (
	PositionBelowRange = "Below Range"
	PositionLow        = "Low"
	PositionTarget     = "Target"
	PositionHigh       = "High"
	PositionAboveRange = "Above Range"
)

// Market-position tags at the 85/115 comparatio thresholds.
const (
	MarketBelow       = "Below Market"
	MarketCompetitive = "Competitive"
	MarketAbove       = "Above Market"
)

// SalaryAnalysis is the pay-position read for one employee.
type SalaryAnalysis struct {
	Position       string       `json:"position"`
	MarketPosition string       `json:"marketPosition"`
	RoomToGrow     models.Money `json:"roomToGrow"`
}

// AnalyzeSalary classifies where the salary sits in its grade. Absolute
// bounds trump the comparatio thresholds; without any grade data the position
// defaults to Target.
func AnalyzeSalary(emp *models.Employee) SalaryAnalysis {
	analysis := SalaryAnalysis{
		Position:       PositionTarget,
		MarketPosition: MarketCompetitive,
		RoomToGrow:     models.NewMoney(0, emp.BaseSalary.Currency),
	}

	base := emp.BaseSalary.Amount
	switch {
	case emp.GradeMin > 0 && base < emp.GradeMin:
		analysis.Position = PositionBelowRange
	case emp.GradeMax > 0 && base > emp.GradeMax:
		analysis.Position = PositionAboveRange
	case emp.Comparatio > 0 && emp.Comparatio < 90:
		analysis.Position = PositionLow
	case emp.Comparatio > 110:
		analysis.Position = PositionHigh
	}

	if emp.GradeMax > 0 && base < emp.GradeMax {
		analysis.RoomToGrow = models.NewMoney(emp.GradeMax-base, emp.BaseSalary.Currency)
	}

	switch {
	case emp.Comparatio > 0 && emp.Comparatio < 85:
		analysis.MarketPosition = MarketBelow
	case emp.Comparatio > 115:
		analysis.MarketPosition = MarketAbove
	}
	return analysis
}
