package enrich

import (
	"time"

	"compass/internal/employee/models"
)

// Tenure bands, driven by time in role rather than total tenure.
const (
	BandNew         = "New"
	BandDeveloping  = "Developing"
	BandExperienced = "Experienced"
	BandVeteran     = "Veteran"
)

func tenureBand(timeInRoleMonths int) string {
	switch {
	case timeInRoleMonths < 12:
		return BandNew
	case timeInRoleMonths < 36:
		return BandDeveloping
	case timeInRoleMonths < 72:
		return BandExperienced
	default:
		return BandVeteran
	}
}

// ComputeTenure fills the tenure fields from the raw date cells. Unparseable
// dates leave their field at zero; a missing role start falls back to the
// hire date; LastRaiseMonths stays nil when no raise date was supplied.
func ComputeTenure(emp *models.Employee, now time.Time) {
	hire, hireOK := ParseDate(emp.HireDate)
	if hireOK {
		emp.TotalTenureMonths = monthsBetween(hire, now)
	}

	if role, ok := ParseDate(emp.RoleStartDate); ok {
		emp.TimeInRoleMonths = monthsBetween(role, now)
	} else if hireOK {
		emp.TimeInRoleMonths = emp.TotalTenureMonths
	}

	if raise, ok := ParseDate(emp.LastRaiseDate); ok {
		m := monthsBetween(raise, now)
		emp.LastRaiseMonths = &m
	}

	emp.TenureBand = tenureBand(emp.TimeInRoleMonths)
}
