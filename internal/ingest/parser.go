package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"compass/internal/employee/models"
	"compass/internal/platform/metrics"
)

// minValidityRatio is the empirical threshold below which a file whose type
// was only guessed gets rejected.
const minValidityRatio = 0.10

// defaultMaxFileBytes caps uploads at 50MB.
const defaultMaxFileBytes = 50 * 1024 * 1024

// Service parses export files. It holds no per-file state; every call is
// independent so batches can fan out safely.
type Service struct {
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxFileBytes int64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMaxFileBytes(n int64) Option {
	return func(s *Service) { s.maxFileBytes = n }
}

func NewService(opts ...Option) *Service {
	svc := &Service{
		logger:       slog.Default(),
		maxFileBytes: defaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// File is one member of an ingestion batch.
type File struct {
	Name     string
	Data     []byte
	Expected FileType
}

// ParseBatch parses several files concurrently. A failed file yields a
// rejected FileResult in its slot; it never aborts the rest of the batch.
func (s *Service) ParseBatch(ctx context.Context, files []File) []*FileResult {
	results := make([]*FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = s.ParseFile(ctx, f.Name, f.Data, f.Expected)
			return nil
		})
	}
	// Workers only ever record failures into their own slot.
	_ = g.Wait()
	return results
}

// ParseFile runs the full per-file state machine. It never returns a Go error
// for file-shaped problems: all findings land in the result's Errors and
// Warnings so one malformed file cannot crash a multi-file batch.
func (s *Service) ParseFile(ctx context.Context, fileName string, data []byte, expected FileType) (result *FileResult) {
	start := time.Now()
	result = &FileResult{
		FileName: fileName,
		FileType: expected,
	}

	// Truly unexpected parser panics become a single fatal-to-file error.
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.ErrorContext(ctx, "panic while parsing file", "file", fileName, "panic", rec)
			result.Errors = append(result.Errors, errorIssue(CodeUnreadable,
				fmt.Sprintf("file could not be parsed: %v", rec)))
		}
		s.metrics.ObserveIngestDuration(time.Since(start))
		outcome := "accepted"
		if result.Rejected() {
			outcome = "rejected"
		}
		s.metrics.ObserveFileIngested(string(result.FileType), outcome)
	}()

	if len(data) == 0 {
		result.Errors = append(result.Errors, errorIssue(CodeEmptyFile, "file is empty"))
		return result
	}
	if int64(len(data)) > s.maxFileBytes {
		result.Errors = append(result.Errors, errorIssue(CodeFileTooLarge,
			fmt.Sprintf("file exceeds %d byte limit", s.maxFileBytes)))
		return result
	}

	sum := sha256.Sum256(data)
	result.ContentHash = hex.EncodeToString(sum[:])

	grid, warnings, err := readCells(fileName, data)
	if err != nil {
		code := CodeUnreadable
		if strings.Contains(err.Error(), "unsupported extension") {
			code = CodeUnsupportedExtension
		}
		result.Errors = append(result.Errors, errorIssue(code, err.Error()))
		return result
	}
	result.Warnings = append(result.Warnings, warnings...)

	cleaned, dropped := cleanLeadingRows(grid)
	headerIdx := detectHeader(cleaned)
	if headerIdx < 0 {
		result.Errors = append(result.Errors, errorIssue(CodeNoHeader, "no header row found"))
		return result
	}
	if dropped+headerIdx > 0 {
		result.Warnings = append(result.Warnings, warnIssue(CodeRowSkipped,
			fmt.Sprintf("%d metadata/blank row(s) skipped before header", dropped+headerIdx), 0))
	}

	header := cleaned[headerIdx]
	dataRows := cleaned[headerIdx+1:]

	switch expected {
	case TypeSalary:
		s.parseAsSalary(result, fileName, header, dataRows, true)
	case TypePerformance:
		s.parseAsPerformance(result, fileName, header, dataRows, true)
	default:
		s.parseUnknown(result, fileName, header, dataRows)
	}

	result.RowCount = len(result.Salary) + len(result.Performance)
	s.metrics.AddRowsParsed(string(result.FileType), "valid", result.ValidRows)
	s.metrics.AddRowsParsed(string(result.FileType), "invalid", result.RowCount-result.ValidRows)
	s.logger.InfoContext(ctx, "file parsed",
		"file", fileName,
		"type", result.FileType,
		"rows", result.RowCount,
		"valid_rows", result.ValidRows,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)
	return result
}

// parseUnknown attempts salary-shaped mapping first, then performance-shaped,
// and keeps whichever yields the higher validity rate. Salary wins ties.
func (s *Service) parseUnknown(result *FileResult, fileName string, header []string, dataRows [][]string) {
	asSalary := &FileResult{FileName: fileName}
	s.parseAsSalary(asSalary, fileName, header, dataRows, false)

	asPerf := &FileResult{FileName: fileName}
	s.parseAsPerformance(asPerf, fileName, header, dataRows, false)

	winner := asSalary
	if validityRate(asPerf) > validityRate(asSalary) {
		winner = asPerf
	}
	result.FileType = winner.FileType
	result.ValidRows = winner.ValidRows
	result.Salary = winner.Salary
	result.Performance = winner.Performance
	result.Errors = append(result.Errors, winner.Errors...)
	result.Warnings = append(result.Warnings, winner.Warnings...)
}

func validityRate(r *FileResult) float64 {
	total := len(r.Salary) + len(r.Performance)
	if r.Rejected() || total == 0 {
		return 0
	}
	return float64(r.ValidRows) / float64(total)
}

// parseAsSalary maps and validates rows as a compensation export. declared
// marks that the caller explicitly chose the type, which relaxes the validity
// ratio threshold (but never the zero-valid-rows rule).
func (s *Service) parseAsSalary(result *FileResult, fileName string, header []string, dataRows [][]string, declared bool) {
	mapped := columnMap(header, salarySynonyms, performanceSynonyms)
	combined := hasPerformanceColumns(mapped)
	if combined {
		result.FileType = TypeCombined
	} else {
		result.FileType = TypeSalary
	}

	if err := requireSalaryColumns(mapped); err != nil {
		result.Errors = append(result.Errors, *err)
		return
	}

	valid := 0
	for i, cells := range dataRows {
		if blankRow(cells) {
			continue
		}
		row := buildSalaryRow(cells, mapped, fileName, i+1, combined)
		result.Salary = append(result.Salary, row)
		if salaryRowValid(row) {
			valid++
		} else {
			result.Warnings = append(result.Warnings, Issue{
				Code:     CodeRowInvalid,
				Severity: models.SeverityWarning,
				Message:  "row missing identifier, name, or positive base salary",
				Row:      row.SourceRow,
			})
		}
	}
	result.ValidRows = valid

	if len(result.Salary) == 0 || valid == 0 {
		result.Errors = append(result.Errors, errorIssue(CodeNoValidRows, "no valid salary rows found"))
		return
	}
	ratio := float64(valid) / float64(len(result.Salary))
	if ratio < minValidityRatio {
		if declared {
			result.Warnings = append(result.Warnings, warnIssue(CodeLowValidity,
				fmt.Sprintf("only %.0f%% of rows are valid", ratio*100), 0))
		} else {
			result.Errors = append(result.Errors, errorIssue(CodeNoValidRows,
				fmt.Sprintf("validity ratio %.0f%% below threshold", ratio*100)))
		}
	}
}

func (s *Service) parseAsPerformance(result *FileResult, fileName string, header []string, dataRows [][]string, declared bool) {
	result.FileType = TypePerformance
	mapped := columnMap(header, performanceSynonyms, identitySynonyms)

	if !hasField(mapped, FieldEmployeeID) && !hasField(mapped, FieldEmail) {
		result.Errors = append(result.Errors, Issue{
			Code:     CodeMissingColumns,
			Severity: models.SeverityError,
			Message:  "performance file needs an employee identifier column",
			Field:    FieldEmployeeID,
		})
		return
	}

	valid := 0
	for i, cells := range dataRows {
		if blankRow(cells) {
			continue
		}
		row := buildPerformanceRow(cells, mapped, fileName, i+1)
		result.Performance = append(result.Performance, row)
		if strings.TrimSpace(row.EmployeeID) != "" || strings.TrimSpace(row.Email) != "" {
			valid++
		} else {
			result.Warnings = append(result.Warnings, Issue{
				Code:     CodeRowInvalid,
				Severity: models.SeverityWarning,
				Message:  "row missing employee identifier",
				Row:      row.SourceRow,
			})
		}
	}
	result.ValidRows = valid

	if len(result.Performance) == 0 || valid == 0 {
		result.Errors = append(result.Errors, errorIssue(CodeNoValidRows, "no valid performance rows found"))
	}
}

func requireSalaryColumns(mapped map[int]string) *Issue {
	if !hasField(mapped, FieldEmployeeID) && !hasField(mapped, FieldEmail) {
		issue := errorIssue(CodeMissingColumns, "salary file needs an employee identifier column")
		issue.Field = FieldEmployeeID
		return &issue
	}
	if !hasField(mapped, FieldName) && !(hasField(mapped, FieldFirstName) && hasField(mapped, FieldLastName)) {
		issue := errorIssue(CodeMissingColumns, "salary file needs a name column")
		issue.Field = FieldName
		return &issue
	}
	if !hasField(mapped, FieldBaseSalary) {
		issue := errorIssue(CodeMissingColumns, "salary file needs a base salary column")
		issue.Field = FieldBaseSalary
		return &issue
	}
	return nil
}

func hasField(mapped map[int]string, field string) bool {
	for _, f := range mapped {
		if f == field {
			return true
		}
	}
	return false
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func buildSalaryRow(cells []string, mapped map[int]string, fileName string, rowNum int, combined bool) models.SalaryRow {
	row := models.SalaryRow{SourceFile: fileName, SourceRow: rowNum}
	var perf models.PerformanceRow
	perfSet := false

	currency := ""
	salaryAmount := 0.0

	for idx, field := range mapped {
		raw := cellAt(cells, idx)
		if raw == "" {
			continue
		}
		switch field {
		case FieldEmployeeID:
			row.EmployeeID = raw
		case FieldEmail:
			row.Email = strings.ToLower(raw)
		case FieldName:
			row.Name = raw
		case FieldFirstName:
			row.FirstName = raw
		case FieldLastName:
			row.LastName = raw
		case FieldBaseSalary:
			if v, ok := parseNumber(raw); ok {
				salaryAmount = v
			}
		case FieldCurrency:
			currency = raw
		case FieldGradeMin:
			if v, ok := parseNumber(raw); ok {
				row.GradeMin = v
			}
		case FieldGradeMid:
			if v, ok := parseNumber(raw); ok {
				row.GradeMid = v
			}
		case FieldGradeMax:
			if v, ok := parseNumber(raw); ok {
				row.GradeMax = v
			}
		case FieldComparatio:
			if v, ok := parseNumber(raw); ok {
				row.Comparatio = v
			}
		case FieldDepartment:
			row.DepartmentCode = raw
		case FieldJobTitle:
			row.JobTitle = raw
		case FieldManagerID:
			row.ManagerID = raw
		case FieldManagerName:
			row.ManagerName = raw
		case FieldCountry:
			row.Country = raw
		case FieldHireDate:
			row.HireDate = raw
		case FieldRoleStartDate:
			row.RoleStartDate = raw
		case FieldLastRaiseDate:
			row.LastRaiseDate = raw
		case FieldRating:
			perf.Rating = models.ParseRating(raw)
			perfSet = true
		case FieldBusinessImpact:
			if v, ok := parsePercentish(raw); ok {
				perf.BusinessImpactScore = v
				perfSet = true
			}
		case FieldRetentionRisk:
			if v, ok := parseNumber(raw); ok {
				perf.RetentionRisk = &v
				perfSet = true
			}
		case FieldFutureTalent:
			perf.FutureTalent = raw
			perfSet = true
		case FieldMovementReady:
			perf.MovementReadiness = raw
			perfSet = true
		case FieldTalentActions:
			perf.ProposedTalentActions = raw
			perfSet = true
		}
	}

	row.BaseSalary = models.NewMoney(salaryAmount, currency)

	// Combined-format sheets merge performance fields onto the same row
	// objects instead of producing a second row set.
	if combined && perfSet {
		perf.EmployeeID = row.EmployeeID
		perf.Email = row.Email
		perf.Name = row.FullName()
		perf.SourceFile = fileName
		perf.SourceRow = rowNum
		row.Performance = &perf
	}
	return row
}

func buildPerformanceRow(cells []string, mapped map[int]string, fileName string, rowNum int) models.PerformanceRow {
	row := models.PerformanceRow{SourceFile: fileName, SourceRow: rowNum}
	for idx, field := range mapped {
		raw := cellAt(cells, idx)
		if raw == "" {
			continue
		}
		switch field {
		case FieldEmployeeID:
			row.EmployeeID = raw
		case FieldEmail:
			row.Email = strings.ToLower(raw)
		case FieldName:
			row.Name = raw
		case FieldFirstName:
			row.FirstName = raw
		case FieldLastName:
			row.LastName = raw
		case FieldRating:
			row.Rating = models.ParseRating(raw)
		case FieldBusinessImpact:
			if v, ok := parsePercentish(raw); ok {
				row.BusinessImpactScore = v
			}
		case FieldRetentionRisk:
			if v, ok := parseNumber(raw); ok {
				row.RetentionRisk = &v
			}
		case FieldFutureTalent:
			row.FutureTalent = raw
		case FieldMovementReady:
			row.MovementReadiness = raw
		case FieldTalentActions:
			row.ProposedTalentActions = raw
		}
	}
	return row
}

func salaryRowValid(row models.SalaryRow) bool {
	return row.Key() != "" && row.FullName() != "" && row.BaseSalary.Amount > 0
}
