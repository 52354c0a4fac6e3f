package join

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"compass/internal/employee/models"
	"compass/internal/names"
	"compass/internal/platform/metrics"
)

// Options controls one join invocation. The defaults reproduce the historical
// cascade: exact ID, then exact email, then fuzzy name at 0.8. The threshold
// and ordering are tunable policy, not constants.
type Options struct {
	// PreferEmailMatch tries the email lookup before the employee-ID lookup.
	PreferEmailMatch bool
	// RequireExactNameMatch disables the fuzzy name stage entirely.
	RequireExactNameMatch bool
	// NameSimilarity overrides the fuzzy acceptance threshold; zero means the
	// 0.8 default.
	NameSimilarity float64
}

func (o Options) threshold() float64 {
	if o.NameSimilarity > 0 {
		return o.NameSimilarity
	}
	return defaultNameSimilarity
}

// Service matches salary rows against performance rows and produces unified
// employee records. Stateless between calls.
type Service struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(opts ...Option) *Service {
	svc := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Join runs the matching cascade over every salary row. Each performance row
// is claimed at most once. Every salary row lands in exactly one summary
// bucket, so IDMatches + EmailMatches + NameMatches + UnmatchedSalary always
// equals the input row count.
func (s *Service) Join(ctx context.Context, salary []models.SalaryRow, perf []models.PerformanceRow, opts Options) *models.JoinResult {
	idx := buildPerfIndex(perf)
	result := &models.JoinResult{}

	for _, row := range salary {
		matched, matchType := s.match(idx, row, opts)

		emp := buildEmployee(row, matched, matchType)
		validation := validateRecord(emp)
		result.Validations = append(result.Validations, validation)

		switch matchType {
		case models.MatchByID:
			result.Summary.IDMatches++
		case models.MatchByEmail:
			result.Summary.EmailMatches++
		case models.MatchByFuzzyName:
			result.Summary.NameMatches++
		default:
			result.Summary.UnmatchedSalary++
			result.UnmatchedSalary = append(result.UnmatchedSalary, row)
		}
		s.metrics.ObserveJoinOutcome(string(matchType))

		if validation.Valid {
			result.Employees = append(result.Employees, emp)
		}
	}

	result.UnmatchedPerformance = idx.unconsumed()
	result.Summary.UnmatchedPerformance = len(result.UnmatchedPerformance)

	s.logger.InfoContext(ctx, "join completed",
		"salary_rows", len(salary),
		"performance_rows", len(perf),
		"id_matches", result.Summary.IDMatches,
		"email_matches", result.Summary.EmailMatches,
		"name_matches", result.Summary.NameMatches,
		"unmatched_salary", result.Summary.UnmatchedSalary,
		"unmatched_performance", result.Summary.UnmatchedPerformance,
	)
	return result
}

// match runs the cascade for one salary row. PreferEmailMatch only reorders
// the two exact stages; fuzzy name always comes last.
func (s *Service) match(idx *perfIndex, row models.SalaryRow, opts Options) (*models.PerformanceRow, models.MatchType) {
	type stage struct {
		kind  models.MatchType
		claim func() (models.PerformanceRow, bool)
	}

	byID := stage{models.MatchByID, func() (models.PerformanceRow, bool) {
		return idx.claimByID(row.EmployeeID)
	}}
	byEmail := stage{models.MatchByEmail, func() (models.PerformanceRow, bool) {
		return idx.claimByEmail(row.Email)
	}}

	stages := []stage{byID, byEmail}
	if opts.PreferEmailMatch {
		stages = []stage{byEmail, byID}
	}
	if !opts.RequireExactNameMatch {
		stages = append(stages, stage{models.MatchByFuzzyName, func() (models.PerformanceRow, bool) {
			return idx.claimByName(names.MatchKey(row.FullName()), opts.threshold())
		}})
	}

	for _, st := range stages {
		if matched, ok := st.claim(); ok {
			return &matched, st.kind
		}
	}
	return nil, models.MatchNone
}

// buildEmployee merges one salary row with its matched performance row (or
// the ride-along performance fields of a combined sheet) into a unified
// record. Unmatched rows get neutral defaults.
func buildEmployee(row models.SalaryRow, matched *models.PerformanceRow, matchType models.MatchType) *models.Employee {
	normalized := names.Normalize(names.Input{
		Name:      row.Name,
		FirstName: row.FirstName,
		LastName:  row.LastName,
	}, names.Options{})

	emp := &models.Employee{
		EmployeeID:  strings.TrimSpace(row.EmployeeID),
		Email:       strings.ToLower(strings.TrimSpace(row.Email)),
		FirstName:   normalized.FirstName,
		LastName:    normalized.LastName,
		DisplayName: normalized.DisplayName,

		DepartmentCode: row.DepartmentCode,
		JobTitle:       row.JobTitle,
		ManagerID:      row.ManagerID,
		ManagerName:    row.ManagerName,
		Country:        row.Country,

		BaseSalary: row.BaseSalary,
		GradeMin:   row.GradeMin,
		GradeMid:   row.GradeMid,
		GradeMax:   row.GradeMax,
		Comparatio: row.Comparatio,

		HireDate:      row.HireDate,
		RoleStartDate: row.RoleStartDate,
		LastRaiseDate: row.LastRaiseDate,

		Rating:        models.Rating{Kind: models.RatingNone},
		RetentionRisk: models.DefaultRetentionRisk,
		ProposedRaise: models.NewMoney(0, "USD"),
		NewSalary:     row.BaseSalary,

		MatchType:  matchType,
		SourceFile: row.SourceFile,
		SourceRow:  row.SourceRow,
	}
	if emp.EmployeeID == "" {
		emp.EmployeeID = emp.Email
	}

	perf := matched
	if perf == nil {
		perf = row.Performance
	}
	if perf != nil {
		emp.Rating = perf.Rating
		emp.BusinessImpactScore = perf.BusinessImpactScore
		emp.FutureTalent = perf.FutureTalent
		emp.MovementReadiness = perf.MovementReadiness
		emp.ProposedTalentActions = perf.ProposedTalentActions
		if perf.RetentionRisk != nil {
			emp.RetentionRisk = clampRisk(int(math.Round(*perf.RetentionRisk)))
			emp.RiskSupplied = true
		}
	}
	return emp
}

func clampRisk(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// validateRecord grades one merged record. Errors exclude the record from the
// joined output; warnings ride along with it.
func validateRecord(emp *models.Employee) models.RecordValidation {
	v := models.RecordValidation{
		EmployeeID: emp.EmployeeID,
		Name:       emp.DisplayName,
		Valid:      true,
	}

	addError := func(field, msg string) {
		v.Valid = false
		v.Issues = append(v.Issues, models.RowIssue{
			Severity:   models.SeverityError,
			Field:      field,
			Message:    msg,
			EmployeeID: emp.EmployeeID,
			SourceRow:  emp.SourceRow,
		})
	}
	addWarning := func(field, msg string) {
		v.Issues = append(v.Issues, models.RowIssue{
			Severity:   models.SeverityWarning,
			Field:      field,
			Message:    msg,
			EmployeeID: emp.EmployeeID,
			SourceRow:  emp.SourceRow,
		})
	}

	if emp.EmployeeID == "" {
		addError("employeeId", "record has no employee identifier")
	}
	if emp.DisplayName == "" {
		addError("name", "record has no name")
	}
	if emp.BaseSalary.Amount <= 0 {
		addError("baseSalary", "base salary must be positive")
	}

	if !emp.Rating.IsSet() {
		addWarning("performanceRating", "no performance rating available")
	}
	if strings.TrimSpace(emp.Country) == "" {
		addWarning("country", "no country; currency conversion will assume USD")
	}
	if cr, ok := effectiveComparatio(emp); ok && (cr < 50 || cr > 200) {
		addWarning("comparatio", fmt.Sprintf("comparatio %.0f outside plausible range [50, 200]", cr))
	}
	return v
}

// effectiveComparatio recomputes from the grade midpoint when one exists and
// falls back to the value supplied on the sheet.
func effectiveComparatio(emp *models.Employee) (float64, bool) {
	if emp.GradeMid > 0 && emp.BaseSalary.Amount > 0 {
		return math.Round(emp.BaseSalary.Amount / emp.GradeMid * 100), true
	}
	if emp.Comparatio > 0 {
		return emp.Comparatio, true
	}
	return 0, false
}
