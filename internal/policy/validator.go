package policy

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"compass/internal/employee/models"
	"compass/internal/enrich"
	"compass/internal/platform/metrics"
)

// Violation severities.
const (
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// Violation types.
const (
	TypeComparatioBelowFloor = "COMPARATIO_BELOW_FLOOR"
	TypeRaiseTooHigh         = "RAISE_TOO_HIGH"
	TypeStaleCompensation    = "STALE_COMPENSATION"
	TypeUnknownPromotion     = "UNKNOWN_PROMOTION_TYPE"
	TypeRecentPromotion      = "RECENT_PROMOTION"
	TypeExcessiveGradeJump   = "EXCESSIVE_GRADE_JUMP"
	TypeIncompletePromotion  = "INCOMPLETE_PROMOTION"
	TypeDemotionWithRaise    = "DEMOTION_WITH_RAISE"
	TypeBudgetExceeded       = "BUDGET_EXCEEDED"
)

// Violation is one finding from a validation pass. Violations are always
// recomputed from current state, never stored.
type Violation struct {
	Type         string  `json:"type"`
	Severity     string  `json:"severity"`
	Message      string  `json:"message"`
	EmployeeID   string  `json:"employeeId,omitempty"`
	CurrentValue float64 `json:"currentValue,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
}

// BudgetContext is the aggregate spend picture a budget check runs against.
// All amounts are USD.
type BudgetContext struct {
	TotalBudget  float64 `json:"totalBudget"`
	CurrentUsage float64 `json:"currentUsage"`
}

// Service evaluates employees and budgets against a rule set. It holds no
// per-pass state; the clock is injectable for tests.
type Service struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(opts ...Option) *Service {
	svc := &Service{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ValidateEmployee runs every employee-level rule. Rules are independent;
// multiple violations may fire for one record.
func (s *Service) ValidateEmployee(emp *models.Employee, settings Settings) []Violation {
	var violations []Violation
	add := func(v Violation) {
		v.EmployeeID = emp.EmployeeID
		violations = append(violations, v)
		s.metrics.ObserveViolation(v.Type, v.Severity)
	}

	s.checkComparatioFloor(emp, settings, add)
	s.checkRaiseCeiling(emp, settings, add)
	s.checkStaleCompensation(emp, settings, add)
	if emp.HasPromotion {
		s.checkPromotion(emp, settings, add)
	}
	return violations
}

// checkComparatioFloor evaluates the projected post-raise comparatio when a
// raise is proposed and a midpoint exists, otherwise the current one.
func (s *Service) checkComparatioFloor(emp *models.Employee, settings Settings, add func(Violation)) {
	if settings.ComparatioFloor <= 0 || emp.GradeMid <= 0 {
		return
	}
	value := emp.Comparatio
	projected := false
	if emp.ProposedRaise.Amount > 0 && emp.NewSalary.Amount > 0 {
		value = math.Round(emp.NewSalary.Amount / emp.GradeMid * 100)
		projected = true
	}
	if value >= settings.ComparatioFloor {
		return
	}
	msg := fmt.Sprintf("comparatio %.0f is below the %.0f floor", value, settings.ComparatioFloor)
	if projected {
		msg = fmt.Sprintf("comparatio would still be %.0f after the proposed raise, below the %.0f floor",
			value, settings.ComparatioFloor)
	}
	add(Violation{
		Type:         TypeComparatioBelowFloor,
		Severity:     SeverityWarning,
		Message:      msg,
		CurrentValue: value,
		Threshold:    settings.ComparatioFloor,
	})
}

func (s *Service) checkRaiseCeiling(emp *models.Employee, settings Settings, add func(Violation)) {
	usd := emp.BaseSalaryUSD
	if usd <= 0 && emp.BaseSalary.Currency == "USD" {
		usd = emp.BaseSalary.Amount
	}
	if usd <= 0 || emp.ProposedRaise.Amount <= 0 {
		return
	}
	table := settings.MeritRaiseCaps
	kind := "merit"
	if emp.HasPromotion {
		table = settings.PromotionRaiseCaps
		kind = "promotion"
	}
	ceiling, ok := capFor(table, emp.Country)
	if !ok {
		return
	}
	pct := math.Round(emp.ProposedRaise.Amount / usd * 100)
	if pct <= ceiling {
		return
	}
	add(Violation{
		Type:     TypeRaiseTooHigh,
		Severity: SeverityError,
		Message: fmt.Sprintf("proposed %s raise of %.0f%% exceeds the %.0f%% cap for %s",
			kind, pct, ceiling, regionKey(emp.Country)),
		CurrentValue: pct,
		Threshold:    ceiling,
	})
}

func (s *Service) checkStaleCompensation(emp *models.Employee, settings Settings, add func(Violation)) {
	if settings.NoRaiseThresholdMonths <= 0 || emp.ProposedRaise.Amount > 0 {
		return
	}
	if emp.TimeInRoleMonths < settings.NoRaiseThresholdMonths {
		return
	}
	add(Violation{
		Type:         TypeStaleCompensation,
		Severity:     SeverityWarning,
		Message:      fmt.Sprintf("%d months in role with no raise proposed", emp.TimeInRoleMonths),
		CurrentValue: float64(emp.TimeInRoleMonths),
		Threshold:    float64(settings.NoRaiseThresholdMonths),
	})
}

func (s *Service) checkPromotion(emp *models.Employee, settings Settings, add func(Violation)) {
	if !knownPromotionType(emp.PromotionType) {
		add(Violation{
			Type:     TypeUnknownPromotion,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unrecognized promotion type %q", emp.PromotionType),
		})
	}

	if last, ok := enrich.ParseDate(emp.LastPromotionDate); ok && settings.MinPromotionIntervalMonths > 0 {
		months := monthsSince(last, s.now())
		if months < settings.MinPromotionIntervalMonths {
			add(Violation{
				Type:     TypeRecentPromotion,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("last promotion was %d months ago, under the %d month minimum",
					months, settings.MinPromotionIntervalMonths),
				CurrentValue: float64(months),
				Threshold:    float64(settings.MinPromotionIntervalMonths),
			})
		}
	}

	if settings.MaxGradeJump > 0 && emp.GradeJump > settings.MaxGradeJump {
		add(Violation{
			Type:     TypeExcessiveGradeJump,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("promotion jumps %d grades, over the %d grade maximum",
				emp.GradeJump, settings.MaxGradeJump),
			CurrentValue: float64(emp.GradeJump),
			Threshold:    float64(settings.MaxGradeJump),
		})
	}

	if strings.TrimSpace(emp.PromotionJustification) == "" || strings.TrimSpace(emp.NewJobTitle) == "" {
		add(Violation{
			Type:     TypeIncompletePromotion,
			Severity: SeverityWarning,
			Message:  "promotion is missing a justification or new job title",
		})
	}

	if isDemotion(emp.PromotionType) && emp.ProposedRaise.Amount > 0 {
		add(Violation{
			Type:         TypeDemotionWithRaise,
			Severity:     SeverityWarning,
			Message:      "demotion is paired with a positive raise",
			CurrentValue: emp.ProposedRaise.Amount,
		})
	}
}

// ValidateBudget checks whether a proposed USD amount fits the remaining
// budget. CurrentValue on a violation is the resulting utilization percent.
func (s *Service) ValidateBudget(budget BudgetContext, proposedUSD float64) []Violation {
	if budget.TotalBudget <= 0 {
		return nil
	}
	projected := budget.CurrentUsage + proposedUSD
	if projected <= budget.TotalBudget {
		return nil
	}
	utilization := math.Round(projected / budget.TotalBudget * 100)
	v := Violation{
		Type:     TypeBudgetExceeded,
		Severity: SeverityError,
		Message: fmt.Sprintf("proposed spend exceeds budget by %.2f USD (%.0f%% utilization)",
			projected-budget.TotalBudget, utilization),
		CurrentValue: utilization,
		Threshold:    100,
	}
	s.metrics.ObserveViolation(v.Type, v.Severity)
	return []Violation{v}
}

func monthsSince(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
