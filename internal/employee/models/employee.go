package models

// MatchType records how a salary row was paired with its performance row.
type MatchType string

const (
	MatchByID        MatchType = "id"
	MatchByEmail     MatchType = "email"
	MatchByFuzzyName MatchType = "fuzzy_name"
	MatchNone        MatchType = "none"
)

// DefaultRetentionRisk is assigned when no performance sheet supplied a value.
const DefaultRetentionRisk = 50

// Employee is the unified, enriched record: the superset of SalaryRow and
// PerformanceRow plus computed compensation fields. Created by the joiner,
// mutated by the conversion pass, proposal merges, and interactive raise
// edits; replaced wholesale on session reset.
type Employee struct {
	EmployeeID  string `json:"employeeId"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`

	DepartmentCode string `json:"departmentCode,omitempty"`
	JobTitle       string `json:"jobTitle,omitempty"`
	ManagerID      string `json:"managerId,omitempty"`
	ManagerName    string `json:"managerName,omitempty"`
	Country        string `json:"country,omitempty"`

	BaseSalary Money   `json:"baseSalary"`
	GradeMin   float64 `json:"salaryGradeMin,omitempty"`
	GradeMid   float64 `json:"salaryGradeMid,omitempty"`
	GradeMax   float64 `json:"salaryGradeMax,omitempty"`
	// Comparatio is salary as a rounded percent of the grade midpoint.
	Comparatio float64 `json:"comparatio,omitempty"`

	HireDate      string `json:"hireDate,omitempty"`
	RoleStartDate string `json:"roleStartDate,omitempty"`
	LastRaiseDate string `json:"lastRaiseDate,omitempty"`

	Rating              Rating  `json:"performanceRating"`
	BusinessImpactScore float64 `json:"businessImpactScore,omitempty"`
	RetentionRisk       int     `json:"retentionRisk"`
	// RiskSupplied marks a retention risk that came off a sheet; enrichment
	// never overwrites a supplied value with a computed one.
	RiskSupplied          bool     `json:"-"`
	RiskBand              string   `json:"riskBand,omitempty"`
	RiskFactors           []string `json:"riskFactors,omitempty"`
	FutureTalent          string   `json:"futureTalent,omitempty"`
	MovementReadiness     string   `json:"movementReadiness,omitempty"`
	ProposedTalentActions string   `json:"proposedTalentActions,omitempty"`

	// Tenure fields computed during enrichment. LastRaiseMonthsAgo is nil when
	// no raise date was supplied.
	TotalTenureMonths int    `json:"totalTenureMonths,omitempty"`
	TimeInRoleMonths  int    `json:"timeInRoleMonths,omitempty"`
	LastRaiseMonths   *int   `json:"lastRaiseMonthsAgo,omitempty"`
	TenureBand        string `json:"tenureBand,omitempty"`

	// ProposedRaise is stored in USD for budget comparability; NewSalary is
	// always in the employee's local currency.
	BaseSalaryUSD float64 `json:"baseSalaryUSD,omitempty"`
	ProposedRaise Money   `json:"proposedRaise"`
	NewSalary     Money   `json:"newSalary"`
	PercentChange float64 `json:"percentChange,omitempty"`
	RateSource    string  `json:"rateSource,omitempty"`

	HasPromotion           bool   `json:"hasPromotion,omitempty"`
	NewJobTitle            string `json:"newJobTitle,omitempty"`
	PromotionType          string `json:"promotionType,omitempty"`
	PromotionJustification string `json:"promotionJustification,omitempty"`
	LastPromotionDate      string `json:"lastPromotionDate,omitempty"`
	GradeJump              int    `json:"gradeJump,omitempty"`

	MatchType  MatchType `json:"matchType"`
	SourceFile string    `json:"sourceFile,omitempty"`
	SourceRow  int       `json:"sourceRow,omitempty"`
}
