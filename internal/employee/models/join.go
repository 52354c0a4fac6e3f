package models

// IssueSeverity grades row-level findings.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// RowIssue is a structured row-level finding: errors exclude a record from the
// joined result, warnings ride along with it.
type RowIssue struct {
	Severity   IssueSeverity `json:"severity"`
	Field      string        `json:"field,omitempty"`
	Message    string        `json:"message"`
	EmployeeID string        `json:"employeeId,omitempty"`
	SourceRow  int           `json:"sourceRow,omitempty"`
}

// RecordValidation is the per-record verdict reported for every join output,
// including records that were excluded.
type RecordValidation struct {
	EmployeeID string     `json:"employeeId,omitempty"`
	Name       string     `json:"name,omitempty"`
	Valid      bool       `json:"valid"`
	Issues     []RowIssue `json:"issues,omitempty"`
}

// JoinSummary carries the match-type counters. For every join call:
// IDMatches + EmailMatches + NameMatches + UnmatchedSalary == total salary rows.
type JoinSummary struct {
	IDMatches            int `json:"idMatches"`
	EmailMatches         int `json:"emailMatches"`
	NameMatches          int `json:"nameMatches"`
	UnmatchedSalary      int `json:"unmatchedSalary"`
	UnmatchedPerformance int `json:"unmatchedPerformance"`
}

// JoinResult is the transient output of one join invocation; it is never
// persisted.
type JoinResult struct {
	Employees            []*Employee        `json:"joinedEmployees"`
	UnmatchedSalary      []SalaryRow        `json:"unmatchedSalaryRows,omitempty"`
	UnmatchedPerformance []PerformanceRow   `json:"unmatchedPerformanceRows,omitempty"`
	Summary              JoinSummary        `json:"joinSummary"`
	Validations          []RecordValidation `json:"validationResults,omitempty"`
}
