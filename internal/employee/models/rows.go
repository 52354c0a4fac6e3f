package models

import "strings"

// SalaryRow is one parsed row from a compensation export. Fields are optional
// except that at least EmployeeID or Email must resolve to a usable key.
// Produced once per ingested file, immutable, consumed by the joiner.
type SalaryRow struct {
	EmployeeID string `json:"employeeId,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`

	BaseSalary Money   `json:"baseSalary"`
	GradeMin   float64 `json:"salaryGradeMin,omitempty"`
	GradeMid   float64 `json:"salaryGradeMid,omitempty"`
	GradeMax   float64 `json:"salaryGradeMax,omitempty"`
	Comparatio float64 `json:"comparatio,omitempty"`

	DepartmentCode string `json:"departmentCode,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	ManagerID      string `json:"managerId,omitempty"`
	ManagerName    string `json:"managerName,omitempty"`
	Country        string `json:"country,omitempty"`

	// Raw date cells; parsed permissively during enrichment.
	HireDate      string `json:"hireDate,omitempty"`
	RoleStartDate string `json:"roleStartDate,omitempty"`
	LastRaiseDate string `json:"lastRaiseDate,omitempty"`

	// Performance fields found on combined-format sheets ride along here and
	// are split off during ingestion.
	Performance *PerformanceRow `json:"performance,omitempty"`

	SourceFile string `json:"sourceFile,omitempty"`
	SourceRow  int    `json:"sourceRow,omitempty"`
}

// Key returns the strongest available identity key for the row.
func (r SalaryRow) Key() string {
	if id := strings.TrimSpace(r.EmployeeID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// FullName assembles the best display name available on the row.
func (r SalaryRow) FullName() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// PerformanceRow is one parsed row from a review export.
type PerformanceRow struct {
	EmployeeID string `json:"employeeId,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`

	Rating              Rating   `json:"performanceRating"`
	BusinessImpactScore float64  `json:"businessImpactScore,omitempty"`
	RetentionRisk       *float64 `json:"retentionRisk,omitempty"`

	FutureTalent          string `json:"futureTalent,omitempty"`
	MovementReadiness     string `json:"movementReadiness,omitempty"`
	ProposedTalentActions string `json:"proposedTalentActions,omitempty"`

	SourceFile string `json:"sourceFile,omitempty"`
	SourceRow  int    `json:"sourceRow,omitempty"`
}

// FullName assembles the best display name available on the row.
func (r PerformanceRow) FullName() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}
