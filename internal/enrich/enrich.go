package enrich

import (
	"math"
	"time"

	"compass/internal/employee/models"
)

// Context is the ambient state derived computations depend on, passed
// explicitly so the whole engine stays a set of pure functions.
type Context struct {
	Now time.Time
}

// Enrich recomputes every derived field on the employee in place: comparatio,
// tenure, retention risk, and the raise-dependent salary fields. Safe to call
// repeatedly; proposal merges and interactive edits run it again after each
// mutation.
func Enrich(emp *models.Employee, ctx Context) {
	if emp.GradeMid > 0 && emp.BaseSalary.Amount > 0 {
		emp.Comparatio = math.Round(emp.BaseSalary.Amount / emp.GradeMid * 100)
	}

	ComputeTenure(emp, ctx.Now)

	if emp.RiskSupplied {
		emp.RiskFactors = []string{"retention risk supplied by performance sheet"}
	} else {
		score, factors := ComputeRetentionRisk(emp)
		emp.RetentionRisk = score
		emp.RiskFactors = factors
	}
	emp.RiskBand = riskBand(emp.RetentionRisk)

	recomputeRaiseFields(emp)
}

// ApplyRaise records a USD-denominated proposed raise and recomputes the
// dependent fields. The raise is stored in USD for budget comparability and
// only converted to local currency through the salary's own exchange ratio.
func ApplyRaise(emp *models.Employee, raiseUSD models.Money) {
	emp.ProposedRaise = models.USD(raiseUSD.Amount)
	recomputeRaiseFields(emp)
}

// LocalPerUSD returns the local-currency units per USD implied by the
// employee's converted salary, 1 when the salary is already USD or no
// conversion has run.
func LocalPerUSD(emp *models.Employee) float64 {
	if emp.BaseSalary.Currency != "USD" && emp.BaseSalaryUSD > 0 && emp.BaseSalary.Amount > 0 {
		return emp.BaseSalary.Amount / emp.BaseSalaryUSD
	}
	return 1
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

// recomputeRaiseFields maintains the salary invariants: newSalary is the
// local salary plus the raise converted to local currency, percentChange is
// the raise as a rounded percent of the USD salary.
func recomputeRaiseFields(emp *models.Employee) {
	localRaise := emp.ProposedRaise.ConvertVia(LocalPerUSD(emp), emp.BaseSalary.Currency)
	newSalary, err := emp.BaseSalary.Add(localRaise)
	if err != nil {
		// Unreachable: ConvertVia just tagged the raise with the salary's
		// currency.
		newSalary = emp.BaseSalary
	}
	emp.NewSalary = newSalary.Round()

	emp.PercentChange = 0
	if usd := usdSalary(emp); usd > 0 && emp.ProposedRaise.Amount != 0 {
		emp.PercentChange = math.Round(emp.ProposedRaise.Amount / usd * 100)
	}
}
