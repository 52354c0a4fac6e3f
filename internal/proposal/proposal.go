package proposal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"compass/internal/employee/models"
	"compass/internal/enrich"
	"compass/internal/ingest"
)

// Canonical proposal fields.
const (
	fieldEmployeeID    = "employeeId"
	fieldRaiseAmount   = "raiseAmount"
	fieldRaisePercent  = "raisePercent"
	fieldHasPromotion  = "hasPromotion"
	fieldNewJobTitle   = "newJobTitle"
	fieldPromotionType = "promotionType"
	fieldJustification = "promotionJustification"
	fieldNotes         = "notes"
)

// proposalSynonyms is the mapping table for manager override sheets. Distinct
// from the ingestion tables: proposal sheets carry decisions, not state.
var proposalSynonyms = map[string]string{
	"employeeid":     fieldEmployeeID,
	"employeenumber": fieldEmployeeID,
	"empid":          fieldEmployeeID,
	"associateid":    fieldEmployeeID,
	"workerid":       fieldEmployeeID,
	"id":             fieldEmployeeID,

	"proposedraise":    fieldRaiseAmount,
	"raiseamount":      fieldRaiseAmount,
	"raise":            fieldRaiseAmount,
	"increaseamount":   fieldRaiseAmount,
	"meritincrease":    fieldRaiseAmount,
	"proposedincrease": fieldRaiseAmount,

	"raisepercent":    fieldRaisePercent,
	"raisepct":        fieldRaisePercent,
	"increasepercent": fieldRaisePercent,
	"meritpercent":    fieldRaisePercent,
	"proposedpercent": fieldRaisePercent,

	"promotion":    fieldHasPromotion,
	"haspromotion": fieldHasPromotion,
	"promote":      fieldHasPromotion,
	"promoted":     fieldHasPromotion,

	"newtitle":    fieldNewJobTitle,
	"newjobtitle": fieldNewJobTitle,
	"targettitle": fieldNewJobTitle,

	"promotiontype": fieldPromotionType,
	"promotionkind": fieldPromotionType,

	"justification":          fieldJustification,
	"promotionjustification": fieldJustification,
	"rationale":              fieldJustification,
	"businesscase":           fieldJustification,

	"notes":    fieldNotes,
	"comments": fieldNotes,
	"comment":  fieldNotes,
}

// Row is one manager decision from an override sheet. Raise amounts are USD
// for budget comparability; a percent-only row is resolved against the
// employee's USD salary at merge time.
type Row struct {
	EmployeeID             string
	RaiseAmountUSD         *float64
	RaisePercent           *float64
	HasPromotion           bool
	NewJobTitle            string
	PromotionType          string
	PromotionJustification string
	Notes                  string
	SourceRow              int
}

// MergeResult reports one proposal merge.
type MergeResult struct {
	Updated  int               `json:"updated"`
	Warnings []models.RowIssue `json:"warnings,omitempty"`
	Rows     []Row             `json:"-"`
}

// Service parses and merges manager proposal sheets.
type Service struct {
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(opts ...Option) *Service {
	svc := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Parse maps an override sheet through the proposal synonym table. Rows
// without an employee ID are dropped with a warning; everything else is kept
// verbatim for the merge step.
func (s *Service) Parse(fileName string, data []byte) ([]Row, []models.RowIssue, error) {
	header, dataRows, _, err := ingest.Table(fileName, data)
	if err != nil {
		return nil, nil, err
	}
	mapped := ingest.MapColumns(header, proposalSynonyms)

	var rows []Row
	var warnings []models.RowIssue
	for i, cells := range dataRows {
		row := buildRow(cells, mapped, i+1)
		if row.EmployeeID == "" {
			if !blank(cells) {
				warnings = append(warnings, models.RowIssue{
					Severity:  models.SeverityWarning,
					Field:     fieldEmployeeID,
					Message:   "proposal row has no employee ID",
					SourceRow: i + 1,
				})
			}
			continue
		}
		rows = append(rows, row)
	}
	return rows, warnings, nil
}

// Merge applies proposal rows to the employee collection, strictly by
// employee ID. Matched employees get their raise and promotion fields
// replaced and every derived field recomputed. Unknown IDs and salaries in
// an unconverted currency are warnings.
func (s *Service) Merge(ctx context.Context, rows []Row, employees []*models.Employee, now time.Time) MergeResult {
	byID := make(map[string]*models.Employee, len(employees))
	for _, emp := range employees {
		byID[normalizeID(emp.EmployeeID)] = emp
	}

	result := MergeResult{Rows: rows}
	for _, row := range rows {
		emp, ok := byID[normalizeID(row.EmployeeID)]
		if !ok {
			result.Warnings = append(result.Warnings, models.RowIssue{
				Severity:   models.SeverityWarning,
				Field:      fieldEmployeeID,
				Message:    fmt.Sprintf("proposal references unknown employee %q", row.EmployeeID),
				EmployeeID: row.EmployeeID,
				SourceRow:  row.SourceRow,
			})
			continue
		}

		// Proposal raises are USD. An employee whose salary never got a
		// USD value has no rate to convert the raise back through, so the
		// row is skipped rather than applied at parity.
		if emp.BaseSalary.Currency != "USD" && emp.BaseSalaryUSD <= 0 {
			result.Warnings = append(result.Warnings, models.RowIssue{
				Severity:   models.SeverityWarning,
				Field:      fieldRaiseAmount,
				Message:    fmt.Sprintf("no exchange rate for %s, raise for employee %q not applied", emp.BaseSalary.Currency, row.EmployeeID),
				EmployeeID: row.EmployeeID,
				SourceRow:  row.SourceRow,
			})
			continue
		}

		raiseUSD := 0.0
		switch {
		case row.RaiseAmountUSD != nil:
			raiseUSD = *row.RaiseAmountUSD
		case row.RaisePercent != nil:
			raiseUSD = usdSalary(emp) * *row.RaisePercent / 100
		}

		if row.HasPromotion {
			emp.HasPromotion = true
			emp.NewJobTitle = row.NewJobTitle
			emp.PromotionType = row.PromotionType
			emp.PromotionJustification = row.PromotionJustification
		}

		enrich.ApplyRaise(emp, models.USD(raiseUSD))
		enrich.Enrich(emp, enrich.Context{Now: now})
		result.Updated++
	}

	s.logger.InfoContext(ctx, "proposal merged",
		"rows", len(rows),
		"updated", result.Updated,
		"warnings", len(result.Warnings),
	)
	return result
}

func buildRow(cells []string, mapped map[int]string, rowNum int) Row {
	row := Row{SourceRow: rowNum}
	for idx, field := range mapped {
		if idx >= len(cells) {
			continue
		}
		raw := strings.TrimSpace(cells[idx])
		if raw == "" {
			continue
		}
		switch field {
		case fieldEmployeeID:
			row.EmployeeID = raw
		case fieldRaiseAmount:
			if v, ok := ingest.ParseNumber(raw); ok {
				row.RaiseAmountUSD = &v
			}
		case fieldRaisePercent:
			if v, ok := ingest.ParseNumber(raw); ok {
				row.RaisePercent = &v
			}
		case fieldHasPromotion:
			row.HasPromotion = ingest.ParseBool(raw)
		case fieldNewJobTitle:
			row.NewJobTitle = raw
		case fieldPromotionType:
			row.PromotionType = raw
		case fieldJustification:
			row.PromotionJustification = raw
		case fieldNotes:
			row.Notes = raw
		}
	}
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func usdSalary(emp *models.Employee) float64 {
	if emp.BaseSalaryUSD > 0 {
		return emp.BaseSalaryUSD
	}
	if emp.BaseSalary.Currency == "USD" {
		return emp.BaseSalary.Amount
	}
	return 0
}
