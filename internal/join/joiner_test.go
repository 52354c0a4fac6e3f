package join

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"compass/internal/employee/models"
)

// =============================================================================
// Joiner Test Suite
// =============================================================================

type JoinerSuite struct {
	suite.Suite
	svc *Service
}

func TestJoinerSuite(t *testing.T) {
	suite.Run(t, new(JoinerSuite))
}

func (s *JoinerSuite) SetupTest() {
	s.svc = NewService()
}

func salaryRow(id, email, name string, base float64) models.SalaryRow {
	return models.SalaryRow{
		EmployeeID: id,
		Email:      email,
		Name:       name,
		BaseSalary: models.NewMoney(base, "USD"),
	}
}

func perfRow(id, email, name string, rating float64) models.PerformanceRow {
	return models.PerformanceRow{
		EmployeeID: id,
		Email:      email,
		Name:       name,
		Rating:     models.Rating{Kind: models.RatingNumeric, Value: rating},
	}
}

// =============================================================================
// Matching Cascade
// =============================================================================

func (s *JoinerSuite) TestCascade() {
	s.Run("exact id match wins over email", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "ana@corp.com", "Ana Lopez", 90000)}
		perf := []models.PerformanceRow{
			perfRow("E-1", "someone.else@corp.com", "Ana Lopez", 4.5),
			perfRow("E-9", "ana@corp.com", "Ana Lopez", 1.0),
		}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.IDMatches)
		s.Require().Len(res.Employees, 1)
		s.Equal(models.MatchByID, res.Employees[0].MatchType)
		s.Equal(4.5, res.Employees[0].Rating.Value)
	})

	s.Run("email match when id differs", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "Ana@Corp.com", "Ana Lopez", 90000)}
		perf := []models.PerformanceRow{perfRow("X-1", "ana@corp.com", "Ana Lopez", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.EmailMatches)
		s.Require().Len(res.Employees, 1)
		s.Equal(models.MatchByEmail, res.Employees[0].MatchType)
	})

	s.Run("prefer email reorders the exact stages", func() {
		// One salary row could claim either candidate; the flag decides which
		// lookup runs first.
		salary := []models.SalaryRow{salaryRow("E-1", "ana@corp.com", "Ana Lopez", 90000)}
		perf := []models.PerformanceRow{
			perfRow("E-1", "", "ID Candidate", 2.0),
			perfRow("", "ana@corp.com", "Email Candidate", 4.0),
		}

		res := s.svc.Join(context.Background(), salary, perf, Options{PreferEmailMatch: true})

		s.Equal(1, res.Summary.EmailMatches)
		s.Equal(0, res.Summary.IDMatches)
		s.Require().Len(res.Employees, 1)
		s.Equal(models.MatchByEmail, res.Employees[0].MatchType)
		s.Equal(4.0, res.Employees[0].Rating.Value)
	})

	s.Run("fuzzy name absorbs a typo", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Jon Smith", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "John Smith", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.NameMatches)
		s.Equal(models.MatchByFuzzyName, res.Employees[0].MatchType)
	})

	s.Run("fuzzy name un-inverts HR format", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Smith, John", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "John Smith", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.NameMatches)
	})

	s.Run("require exact name disables fuzzy", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Jon Smith", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "John Smith", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{RequireExactNameMatch: true})

		s.Equal(0, res.Summary.NameMatches)
		s.Equal(1, res.Summary.UnmatchedSalary)
		s.Equal(1, res.Summary.UnmatchedPerformance)
	})

	s.Run("score exactly at the threshold is rejected", func() {
		// Four of five words agree, which is 0.8 on the nose. Acceptance
		// requires strictly more than the threshold.
		salary := []models.SalaryRow{salaryRow("E-1", "", "Anna Marie Louise Perez Garcia", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "Anna Marie Louise Perez Watson", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(0, res.Summary.NameMatches)
		s.Equal(1, res.Summary.UnmatchedSalary)
		s.Equal(1, res.Summary.UnmatchedPerformance)
	})

	s.Run("lowering the threshold admits the same pair", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Anna Marie Louise Perez Garcia", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "Anna Marie Louise Perez Watson", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{NameSimilarity: 0.75})

		s.Equal(1, res.Summary.NameMatches)
	})

	s.Run("dissimilar names do not match", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Ana Lopez", 90000)}
		perf := []models.PerformanceRow{perfRow("P-1", "", "Robert Jennings", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.UnmatchedSalary)
	})
}

// =============================================================================
// One-Shot Consumption & Counter Conservation
// =============================================================================

func (s *JoinerSuite) TestConsumption() {
	s.Run("a performance row is claimed at most once", func() {
		salary := []models.SalaryRow{
			salaryRow("E-1", "dup@corp.com", "Ana Lopez", 90000),
			salaryRow("E-2", "dup@corp.com", "Ana Lopez", 85000),
		}
		perf := []models.PerformanceRow{perfRow("", "dup@corp.com", "Ana Lopez", 4.0)}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		s.Equal(1, res.Summary.EmailMatches)
		s.Equal(1, res.Summary.UnmatchedSalary)
		s.Equal(0, res.Summary.UnmatchedPerformance)
	})

	s.Run("match buckets partition the salary rows", func() {
		salary := []models.SalaryRow{
			salaryRow("E-1", "", "Ana Lopez", 90000),
			salaryRow("", "ben@corp.com", "Ben King", 85000),
			salaryRow("E-3", "", "Carla Diaz", 70000),
			salaryRow("E-4", "", "Dmitri Volkov", 65000),
		}
		perf := []models.PerformanceRow{
			perfRow("E-1", "", "Ana Lopez", 4.0),
			perfRow("", "ben@corp.com", "Ben King", 3.5),
			perfRow("", "", "Carla Diaz", 3.0),
			perfRow("", "", "Nobody Here", 2.0),
		}

		res := s.svc.Join(context.Background(), salary, perf, Options{})

		sum := res.Summary.IDMatches + res.Summary.EmailMatches +
			res.Summary.NameMatches + res.Summary.UnmatchedSalary
		s.Equal(len(salary), sum)
		s.Equal(1, res.Summary.IDMatches)
		s.Equal(1, res.Summary.EmailMatches)
		s.Equal(1, res.Summary.NameMatches)
		s.Equal(1, res.Summary.UnmatchedSalary)
		s.Equal(1, res.Summary.UnmatchedPerformance)
	})
}

// =============================================================================
// Merge Semantics & Validation
// =============================================================================

func (s *JoinerSuite) TestMergeAndValidation() {
	s.Run("unmatched rows get neutral defaults", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "Ana Lopez", 90000)}

		res := s.svc.Join(context.Background(), salary, nil, Options{})

		s.Require().Len(res.Employees, 1)
		emp := res.Employees[0]
		s.Equal(models.MatchNone, emp.MatchType)
		s.Equal(models.DefaultRetentionRisk, emp.RetentionRisk)
		s.False(emp.Rating.IsSet())
	})

	s.Run("combined-sheet performance rides along without a match", func() {
		risk := 72.0
		row := salaryRow("E-1", "", "Ana Lopez", 90000)
		row.Performance = &models.PerformanceRow{
			Rating:        models.Rating{Kind: models.RatingNumeric, Value: 4.5},
			RetentionRisk: &risk,
		}

		res := s.svc.Join(context.Background(), []models.SalaryRow{row}, nil, Options{})

		s.Require().Len(res.Employees, 1)
		s.Equal(4.5, res.Employees[0].Rating.Value)
		s.Equal(72, res.Employees[0].RetentionRisk)
		s.Equal(1, res.Summary.UnmatchedSalary, "counters track cross-file matching only")
	})

	s.Run("invalid record is excluded but still reported", func() {
		salary := []models.SalaryRow{
			salaryRow("E-1", "", "Ana Lopez", 90000),
			salaryRow("E-2", "", "Ben King", 0),
		}

		res := s.svc.Join(context.Background(), salary, nil, Options{})

		s.Len(res.Employees, 1)
		s.Require().Len(res.Validations, 2)
		s.True(res.Validations[0].Valid)
		s.False(res.Validations[1].Valid)
		s.Equal(models.SeverityError, res.Validations[1].Issues[0].Severity)
	})

	s.Run("optional gaps are warnings only", func() {
		row := salaryRow("E-1", "", "Ana Lopez", 200000)
		row.GradeMid = 80000 // comparatio 250, outside plausible range

		res := s.svc.Join(context.Background(), []models.SalaryRow{row}, nil, Options{})

		s.Len(res.Employees, 1, "warnings never exclude a record")
		v := res.Validations[0]
		s.True(v.Valid)
		fields := make([]string, 0, len(v.Issues))
		for _, issue := range v.Issues {
			s.Equal(models.SeverityWarning, issue.Severity)
			fields = append(fields, issue.Field)
		}
		s.Contains(fields, "performanceRating")
		s.Contains(fields, "country")
		s.Contains(fields, "comparatio")
	})

	s.Run("display name is normalized", func() {
		salary := []models.SalaryRow{salaryRow("E-1", "", "LOPEZ, ANA", 90000)}

		res := s.svc.Join(context.Background(), salary, nil, Options{})

		s.Require().Len(res.Employees, 1)
		s.Equal("Ana Lopez", res.Employees[0].DisplayName)
	})
}

// =============================================================================
// Similarity Scoring
// =============================================================================

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "john smith", "john smith", 1.0},
		{"one typo word", "jon smith", "john smith", 1.0},
		{"substring word", "christopher lee", "chris lee", 1.0},
		{"half overlap", "john smith", "john jones", 0.5},
		{"four of five words", "anna marie louise perez garcia", "anna marie louise perez watson", 0.8},
		{"empty", "", "john smith", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, nameSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("smith", "smith"))
	assert.Equal(t, 1, editDistance("jon", "john"))
	assert.Equal(t, 2, editDistance("anna", "anne "))
	assert.Equal(t, 3, editDistance("", "abc"))
}
