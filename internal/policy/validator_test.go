package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"compass/internal/employee/models"
)

// =============================================================================
// Policy Validator Test Suite
// =============================================================================

type ValidatorSuite struct {
	suite.Suite
	svc      *Service
	settings Settings
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	now := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	s.svc = NewService(WithClock(func() time.Time { return now }))
	s.settings = DefaultSettings()
}

func (s *ValidatorSuite) employee() *models.Employee {
	return &models.Employee{
		EmployeeID:    "E-1",
		DisplayName:   "Ana Lopez",
		Country:       "US",
		BaseSalary:    models.USD(100000),
		BaseSalaryUSD: 100000,
		GradeMid:      100000,
		Comparatio:    100,
		NewSalary:     models.USD(100000),
		ProposedRaise: models.USD(0),
	}
}

func (s *ValidatorSuite) typesOf(violations []Violation) []string {
	types := make([]string, 0, len(violations))
	for _, v := range violations {
		types = append(types, v.Type)
	}
	return types
}

func (s *ValidatorSuite) findViolation(violations []Violation, vType string) *Violation {
	for i := range violations {
		if violations[i].Type == vType {
			return &violations[i]
		}
	}
	return nil
}

// =============================================================================
// Raise Ceiling
// =============================================================================

func (s *ValidatorSuite) TestRaiseCeiling() {
	s.Run("15 percent in the US is an error at the 12 percent cap", func() {
		emp := s.employee()
		emp.ProposedRaise = models.USD(15000)
		emp.NewSalary = models.USD(115000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		v := s.findViolation(violations, TypeRaiseTooHigh)
		s.Require().NotNil(v)
		s.Equal(SeverityError, v.Severity)
		s.Equal(15.0, v.CurrentValue)
		s.Equal(12.0, v.Threshold)
	})

	s.Run("identical 15 percent in India passes a 35 percent cap", func() {
		s.settings.MeritRaiseCaps[RegionIndia] = 35

		emp := s.employee()
		emp.Country = "India"
		emp.ProposedRaise = models.USD(15000)
		emp.NewSalary = models.USD(115000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.Nil(s.findViolation(violations, TypeRaiseTooHigh))
	})

	s.Run("promotion raises use the promotion cap", func() {
		emp := s.employee()
		emp.HasPromotion = true
		emp.PromotionType = PromotionLevel
		emp.NewJobTitle = "Senior Manager"
		emp.PromotionJustification = "scope expansion"
		emp.ProposedRaise = models.USD(15000)
		emp.NewSalary = models.USD(115000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.Nil(s.findViolation(violations, TypeRaiseTooHigh), "15 percent is under the 20 percent promotion cap")
	})

	s.Run("no raise proposed means no ceiling check", func() {
		violations := s.svc.ValidateEmployee(s.employee(), s.settings)
		s.Nil(s.findViolation(violations, TypeRaiseTooHigh))
	})
}

// =============================================================================
// Comparatio Floor & Stale Compensation
// =============================================================================

func (s *ValidatorSuite) TestComparatioFloor() {
	s.Run("current comparatio below floor warns", func() {
		emp := s.employee()
		emp.BaseSalary = models.USD(70000)
		emp.BaseSalaryUSD = 70000
		emp.Comparatio = 70
		emp.NewSalary = models.USD(70000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		v := s.findViolation(violations, TypeComparatioBelowFloor)
		s.Require().NotNil(v)
		s.Equal(SeverityWarning, v.Severity)
		s.Equal(70.0, v.CurrentValue)
		s.NotContains(v.Message, "proposed raise")
	})

	s.Run("projected comparatio is used when a raise is proposed", func() {
		emp := s.employee()
		emp.BaseSalary = models.USD(70000)
		emp.BaseSalaryUSD = 70000
		emp.Comparatio = 70
		emp.ProposedRaise = models.USD(5000)
		emp.NewSalary = models.USD(75000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		v := s.findViolation(violations, TypeComparatioBelowFloor)
		s.Require().NotNil(v)
		s.Equal(75.0, v.CurrentValue)
		s.Contains(v.Message, "after the proposed raise")
	})

	s.Run("a raise that clears the floor resolves the warning", func() {
		emp := s.employee()
		emp.BaseSalary = models.USD(75000)
		emp.BaseSalaryUSD = 75000
		emp.Comparatio = 75
		emp.ProposedRaise = models.USD(8000)
		emp.NewSalary = models.USD(83000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.Nil(s.findViolation(violations, TypeComparatioBelowFloor))
	})
}

func (s *ValidatorSuite) TestStaleCompensation() {
	s.Run("long time in role with no raise warns", func() {
		emp := s.employee()
		emp.TimeInRoleMonths = 30

		violations := s.svc.ValidateEmployee(emp, s.settings)

		v := s.findViolation(violations, TypeStaleCompensation)
		s.Require().NotNil(v)
		s.Equal(SeverityWarning, v.Severity)
		s.Equal(30.0, v.CurrentValue)
	})

	s.Run("a proposed raise clears the staleness check", func() {
		emp := s.employee()
		emp.TimeInRoleMonths = 30
		emp.ProposedRaise = models.USD(3000)
		emp.NewSalary = models.USD(103000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.Nil(s.findViolation(violations, TypeStaleCompensation))
	})
}

// =============================================================================
// Promotion Consistency
// =============================================================================

func (s *ValidatorSuite) TestPromotionConsistency() {
	promoted := func() *models.Employee {
		emp := s.employee()
		emp.HasPromotion = true
		emp.PromotionType = PromotionLevel
		emp.NewJobTitle = "Senior Manager"
		emp.PromotionJustification = "scope expansion"
		return emp
	}

	s.Run("complete promotion raises no promotion warnings", func() {
		violations := s.svc.ValidateEmployee(promoted(), s.settings)
		s.Empty(violations)
	})

	s.Run("each inconsistency fires its own warning", func() {
		emp := promoted()
		emp.PromotionType = "SIDEWAYS"
		emp.LastPromotionDate = "2026-01-15" // five months before the clock
		emp.GradeJump = 3
		emp.PromotionJustification = ""

		violations := s.svc.ValidateEmployee(emp, s.settings)

		types := s.typesOf(violations)
		s.Contains(types, TypeUnknownPromotion)
		s.Contains(types, TypeRecentPromotion)
		s.Contains(types, TypeExcessiveGradeJump)
		s.Contains(types, TypeIncompletePromotion)
		for _, v := range violations {
			s.Equal(SeverityWarning, v.Severity)
		}
	})

	s.Run("demotion with a positive raise warns", func() {
		emp := promoted()
		emp.PromotionType = PromotionDemotion
		emp.ProposedRaise = models.USD(2000)
		emp.NewSalary = models.USD(102000)

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.NotNil(s.findViolation(violations, TypeDemotionWithRaise))
	})

	s.Run("promotion rules are skipped without a promotion", func() {
		emp := s.employee()
		emp.PromotionType = "SIDEWAYS"

		violations := s.svc.ValidateEmployee(emp, s.settings)

		s.Nil(s.findViolation(violations, TypeUnknownPromotion))
	})
}

// =============================================================================
// Budget
// =============================================================================

func (s *ValidatorSuite) TestBudget() {
	s.Run("overage is an error carrying the utilization percent", func() {
		budget := BudgetContext{TotalBudget: 100000, CurrentUsage: 90000}

		violations := s.svc.ValidateBudget(budget, 20000)

		s.Require().Len(violations, 1)
		v := violations[0]
		s.Equal(TypeBudgetExceeded, v.Type)
		s.Equal(SeverityError, v.Severity)
		s.Equal(110.0, v.CurrentValue)
		s.Equal(100.0, v.Threshold)
		s.Contains(v.Message, "10000.00")
	})

	s.Run("spend within budget passes", func() {
		budget := BudgetContext{TotalBudget: 100000, CurrentUsage: 90000}
		s.Empty(s.svc.ValidateBudget(budget, 10000))
	})

	s.Run("zero budget disables the check", func() {
		s.Empty(s.svc.ValidateBudget(BudgetContext{}, 50000))
	})
}

// =============================================================================
// Statelessness
// =============================================================================

func (s *ValidatorSuite) TestStateless() {
	s.Run("validation never mutates the employee", func() {
		emp := s.employee()
		emp.ProposedRaise = models.USD(15000)
		emp.NewSalary = models.USD(115000)
		before := *emp

		s.svc.ValidateEmployee(emp, s.settings)
		s.svc.ValidateEmployee(emp, s.settings)

		s.Equal(before, *emp)
	})

	s.Run("repeated passes return identical findings", func() {
		emp := s.employee()
		emp.TimeInRoleMonths = 40

		first := s.svc.ValidateEmployee(emp, s.settings)
		second := s.svc.ValidateEmployee(emp, s.settings)

		s.Equal(first, second)
	})
}
