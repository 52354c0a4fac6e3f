package enrich

import (
	"fmt"
	"strings"

	"compass/internal/employee/models"
)

// Risk bands over the 0-100 retention score.
const (
	RiskLow      = "Low"
	RiskMedium   = "Medium"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

func riskBand(score int) string {
	switch {
	case score < 20:
		return RiskLow
	case score < 40:
		return RiskMedium
	case score < 70:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// highDemandTitleWords flag roles with an active external hiring market.
var highDemandTitleWords = []string{
	"engineer", "developer", "architect", "scientist",
	"security", "data", "machine learning", "devops", "sre",
}

// ComputeRetentionRisk synthesizes a 0-100 flight-risk score from four
// sub-scores: pay position (0-40), performance (0-30), tenure (0-20), and
// market demand (0-10). Returns the clamped score and the contributing
// factors in sub-score order.
func ComputeRetentionRisk(emp *models.Employee) (int, []string) {
	score := 0
	var factors []string

	// Pay position. Risk rises as comparatio falls below 95; pay well above
	// the midpoint works the other way.
	switch cr := emp.Comparatio; {
	case cr <= 0:
		score += 10
		factors = append(factors, "no salary grade data to judge pay position")
	case cr < 75:
		score += 40
		factors = append(factors, fmt.Sprintf("paid far below midpoint (comparatio %.0f)", cr))
	case cr < 85:
		score += 28
		factors = append(factors, fmt.Sprintf("paid well below midpoint (comparatio %.0f)", cr))
	case cr < 95:
		score += 16
		factors = append(factors, fmt.Sprintf("paid below midpoint (comparatio %.0f)", cr))
	case cr <= 110:
		score += 8
	case cr <= 120:
		score += 4
	default:
		score -= 10
		factors = append(factors, fmt.Sprintf("paid well above midpoint (comparatio %.0f)", cr))
	}

	// Performance. Strong performers are the most marketable.
	if rating, known := emp.Rating.Score(); !emp.Rating.IsSet() || !known {
		score += 10
		factors = append(factors, "no performance rating available")
	} else {
		switch {
		case rating >= 4.5:
			score += 30
			factors = append(factors, "top-tier performer, highly marketable")
		case rating >= 4.0:
			score += 22
			factors = append(factors, "strong performer, marketable")
		case rating >= 3.0:
			score += 12
		case rating >= 2.0:
			score += 5
		}
	}

	// Tenure. New hires are settled; long stretches without movement or a
	// raise add risk.
	tenure := 0
	if emp.TimeInRoleMonths < 12 {
		tenure += 2
	} else {
		tenure += 5
		if emp.TimeInRoleMonths > 48 {
			tenure += 10
			factors = append(factors, fmt.Sprintf("%d months in role without movement", emp.TimeInRoleMonths))
		}
		if emp.LastRaiseMonths != nil && *emp.LastRaiseMonths > 24 {
			tenure += 10
			factors = append(factors, fmt.Sprintf("no raise in %d months", *emp.LastRaiseMonths))
		}
	}
	if tenure > 20 {
		tenure = 20
	}
	score += tenure

	// Market demand.
	if isHighDemandTitle(emp.JobTitle) {
		score += 10
		factors = append(factors, "high-demand job title")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, factors
}

func isHighDemandTitle(title string) bool {
	t := strings.ToLower(title)
	for _, word := range highDemandTitleWords {
		if strings.Contains(t, word) {
			return true
		}
	}
	return false
}
