// Package ingest turns heterogeneous HR spreadsheet exports into typed salary
// and performance rows. Per file the pipeline is: raw bytes -> rows of cells
// -> metadata/blank rows dropped -> header detected -> columns mapped through
// a synonym table -> values coerced -> rows validated.
package ingest

import (
	"compass/internal/employee/models"
)

// FileType is the declared or detected shape of an export.
type FileType string

const (
	TypeSalary      FileType = "salary"
	TypePerformance FileType = "performance"
	TypeCombined    FileType = "combined"
	TypeUnknown     FileType = "unknown"
)

// IssueCode identifies a class of ingestion finding.
type IssueCode string

const (
	CodeUnsupportedExtension IssueCode = "unsupported_extension"
	CodeEmptyFile            IssueCode = "empty_file"
	CodeFileTooLarge         IssueCode = "file_too_large"
	CodeUnreadable           IssueCode = "unreadable"
	CodeNoHeader             IssueCode = "no_header"
	CodeMissingColumns       IssueCode = "missing_required_columns"
	CodeNoValidRows          IssueCode = "no_valid_rows"
	CodeLowValidity          IssueCode = "low_validity_ratio"
	CodeRowInvalid           IssueCode = "row_invalid"
	CodeRowSkipped           IssueCode = "row_skipped"
)

// Issue is a structured ingestion finding. Hard errors block the whole file;
// warnings are surfaced but do not stop processing.
type Issue struct {
	Code     IssueCode            `json:"code"`
	Severity models.IssueSeverity `json:"severity"`
	Message  string               `json:"message"`
	Row      int                  `json:"row,omitempty"`
	Field    string               `json:"field,omitempty"`
}

// FileResult is the outcome of parsing one file.
type FileResult struct {
	FileName    string                  `json:"fileName"`
	FileType    FileType                `json:"fileType"`
	ContentHash string                  `json:"contentHash"`
	RowCount    int                     `json:"rowCount"`
	ValidRows   int                     `json:"validRows"`
	Salary      []models.SalaryRow      `json:"salaryRows,omitempty"`
	Performance []models.PerformanceRow `json:"performanceRows,omitempty"`
	Errors      []Issue                 `json:"errors,omitempty"`
	Warnings    []Issue                 `json:"warnings,omitempty"`
}

// Rejected reports whether the file was rejected wholesale.
func (r *FileResult) Rejected() bool { return len(r.Errors) > 0 }

func errorIssue(code IssueCode, msg string) Issue {
	return Issue{Code: code, Severity: models.SeverityError, Message: msg}
}

func warnIssue(code IssueCode, msg string, row int) Issue {
	return Issue{Code: code, Severity: models.SeverityWarning, Message: msg, Row: row}
}
