package ingest

import "strings"

// Canonical field names. All downstream code operates on these only; the many
// spellings seen in the wild live exclusively in the synonym tables below.
const (
	FieldEmployeeID     = "employeeId"
	FieldEmail          = "email"
	FieldName           = "name"
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldBaseSalary     = "baseSalary"
	FieldCurrency       = "currency"
	FieldGradeMin       = "salaryGradeMin"
	FieldGradeMid       = "salaryGradeMid"
	FieldGradeMax       = "salaryGradeMax"
	FieldComparatio     = "comparatio"
	FieldDepartment     = "departmentCode"
	FieldJobTitle       = "jobTitle"
	FieldManagerID      = "managerId"
	FieldManagerName    = "managerName"
	FieldCountry        = "country"
	FieldHireDate       = "hireDate"
	FieldRoleStartDate  = "roleStartDate"
	FieldLastRaiseDate  = "lastRaiseDate"
	FieldRating         = "performanceRating"
	FieldBusinessImpact = "businessImpactScore"
	FieldRetentionRisk  = "retentionRisk"
	FieldFutureTalent   = "futureTalent"
	FieldMovementReady  = "movementReadiness"
	FieldTalentActions  = "proposedTalentActions"
)

// salarySynonyms maps normalized header spellings to canonical salary fields.
var salarySynonyms = map[string]string{
	// Identity
	"employeeid":      FieldEmployeeID,
	"employeenumber":  FieldEmployeeID,
	"employeeno":      FieldEmployeeID,
	"empid":           FieldEmployeeID,
	"empno":           FieldEmployeeID,
	"associateid":     FieldEmployeeID,
	"workerid":        FieldEmployeeID,
	"staffid":         FieldEmployeeID,
	"personnelnumber": FieldEmployeeID,
	"id":              FieldEmployeeID,

	"email":        FieldEmail,
	"emailaddress": FieldEmail,
	"workemail":    FieldEmail,
	"mail":         FieldEmail,

	"name":          FieldName,
	"fullname":      FieldName,
	"employeename":  FieldName,
	"associatename": FieldName,
	"workername":    FieldName,
	"displayname":   FieldName,

	"firstname":      FieldFirstName,
	"givenname":      FieldFirstName,
	"fname":          FieldFirstName,
	"legalfirstname": FieldFirstName,

	"lastname":      FieldLastName,
	"surname":       FieldLastName,
	"familyname":    FieldLastName,
	"lname":         FieldLastName,
	"legallastname": FieldLastName,

	// Compensation
	"basesalary":       FieldBaseSalary,
	"salary":           FieldBaseSalary,
	"annualsalary":     FieldBaseSalary,
	"annualbasesalary": FieldBaseSalary,
	"basepay":          FieldBaseSalary,
	"currentsalary":    FieldBaseSalary,
	"salaryamount":     FieldBaseSalary,

	"currency":       FieldCurrency,
	"currencycode":   FieldCurrency,
	"salarycurrency": FieldCurrency,
	"paycurrency":    FieldCurrency,

	"salarygrademin": FieldGradeMin,
	"grademin":       FieldGradeMin,
	"rangemin":       FieldGradeMin,
	"bandmin":        FieldGradeMin,
	"payrangemin":    FieldGradeMin,
	"rangeminimum":   FieldGradeMin,

	"salarygrademid": FieldGradeMid,
	"grademid":       FieldGradeMid,
	"rangemid":       FieldGradeMid,
	"bandmid":        FieldGradeMid,
	"payrangemid":    FieldGradeMid,
	"midpoint":       FieldGradeMid,
	"rangemidpoint":  FieldGradeMid,

	"salarygrademax": FieldGradeMax,
	"grademax":       FieldGradeMax,
	"rangemax":       FieldGradeMax,
	"bandmax":        FieldGradeMax,
	"payrangemax":    FieldGradeMax,
	"rangemaximum":   FieldGradeMax,

	"comparatio":  FieldComparatio,
	"comparatio%": FieldComparatio,
	"compa":       FieldComparatio,

	// Organization
	"department":     FieldDepartment,
	"dept":           FieldDepartment,
	"departmentcode": FieldDepartment,
	"costcenter":     FieldDepartment,
	"orgunit":        FieldDepartment,
	"division":       FieldDepartment,

	"jobtitle": FieldJobTitle,
	"title":    FieldJobTitle,
	"position": FieldJobTitle,
	"role":     FieldJobTitle,
	"job":      FieldJobTitle,

	"managerid":         FieldManagerID,
	"supervisorid":      FieldManagerID,
	"manageremployeeid": FieldManagerID,

	"manager":        FieldManagerName,
	"managername":    FieldManagerName,
	"supervisor":     FieldManagerName,
	"supervisorname": FieldManagerName,
	"reportsto":      FieldManagerName,

	"country":         FieldCountry,
	"workcountry":     FieldCountry,
	"locationcountry": FieldCountry,

	// Dates
	"hiredate":         FieldHireDate,
	"dateofhire":       FieldHireDate,
	"startdate":        FieldHireDate,
	"originalhiredate": FieldHireDate,
	"dateofjoining":    FieldHireDate,
	"doj":              FieldHireDate,

	"rolestartdate":     FieldRoleStartDate,
	"positionstartdate": FieldRoleStartDate,
	"inrolesince":       FieldRoleStartDate,
	"jobentrydate":      FieldRoleStartDate,
	"currentrolestart":  FieldRoleStartDate,

	"lastraisedate":    FieldLastRaiseDate,
	"lastincreasedate": FieldLastRaiseDate,
	"lastsalarychange": FieldLastRaiseDate,
	"lastcompchange":   FieldLastRaiseDate,
	"lastincrease":     FieldLastRaiseDate,
}

// performanceSynonyms maps normalized header spellings to canonical
// performance fields. Identity spellings are shared with the salary table.
var performanceSynonyms = map[string]string{
	"performancerating": FieldRating,
	"rating":            FieldRating,
	"perfrating":        FieldRating,
	"reviewrating":      FieldRating,
	"overallrating":     FieldRating,
	"performancescore":  FieldRating,
	"reviewscore":       FieldRating,

	"businessimpact":      FieldBusinessImpact,
	"businessimpactscore": FieldBusinessImpact,
	"impactscore":         FieldBusinessImpact,

	"retentionrisk": FieldRetentionRisk,
	"flightrisk":    FieldRetentionRisk,
	"attritionrisk": FieldRetentionRisk,
	"riskofloss":    FieldRetentionRisk,

	"futuretalent":  FieldFutureTalent,
	"highpotential": FieldFutureTalent,
	"hipo":          FieldFutureTalent,

	"movementreadiness":  FieldMovementReady,
	"readiness":          FieldMovementReady,
	"promotionreadiness": FieldMovementReady,

	"proposedtalentactions": FieldTalentActions,
	"talentactions":         FieldTalentActions,
	"recommendedactions":    FieldTalentActions,
}

// identity spellings every sheet type shares.
var identitySynonyms = map[string]string{}

func init() {
	for spelling, field := range salarySynonyms {
		switch field {
		case FieldEmployeeID, FieldEmail, FieldName, FieldFirstName, FieldLastName:
			identitySynonyms[spelling] = field
		}
	}
}

// normalizeHeader lowercases a header and strips whitespace, underscores, and
// hyphens so "Employee_Number", "employee number" and "EmployeeNumber" all
// collide.
func normalizeHeader(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// columnMap resolves a header row against one or more synonym tables into
// column index -> canonical field. First mapping of a canonical field wins;
// unrecognized columns are dropped silently.
func columnMap(header []string, tables ...map[string]string) map[int]string {
	mapped := make(map[int]string)
	used := make(map[string]bool)
	for idx, raw := range header {
		normalized := normalizeHeader(raw)
		if normalized == "" {
			continue
		}
		for _, table := range tables {
			if field, ok := table[normalized]; ok && !used[field] {
				mapped[idx] = field
				used[field] = true
				break
			}
		}
	}
	return mapped
}

// hasPerformanceColumns reports whether a resolved column map carries any
// performance-indicating field, which marks a combined-format export.
func hasPerformanceColumns(mapped map[int]string) bool {
	for _, field := range mapped {
		switch field {
		case FieldRating, FieldBusinessImpact, FieldRetentionRisk,
			FieldFutureTalent, FieldMovementReady, FieldTalentActions:
			return true
		}
	}
	return false
}
