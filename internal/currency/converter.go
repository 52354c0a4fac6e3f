package currency

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"compass/internal/employee/models"
)

// SourceUnsupported tags a conversion whose currency no rate source covers.
// The salary is left unconverted rather than guessed.
const SourceUnsupported = "unsupported"

// Conversion is the per-employee outcome of a batch conversion.
type Conversion struct {
	EmployeeID string  `json:"employeeId"`
	AmountUSD  float64 `json:"amountUSD"`
	Source     string  `json:"source"`
}

// Converter normalizes employee salaries to USD.
type Converter struct {
	rates  *Service
	logger *slog.Logger
}

// NewConverter builds a converter over a rate service.
func NewConverter(rates *Service, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{rates: rates, logger: logger}
}

// ConvertBatch sets BaseSalaryUSD and RateSource on every employee and
// returns exactly one Conversion per input, in input order. USD and
// missing-currency salaries are no-ops; an unsupported currency yields a
// tagged result with a zero USD amount instead of a guessed one. The batch
// never fails partially.
func (c *Converter) ConvertBatch(ctx context.Context, employees []*models.Employee) []Conversion {
	results := make([]Conversion, len(employees))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			results[i] = c.convertOne(ctx, emp)
			return nil
		})
	}
	// Workers record outcomes into their own slot and never return errors.
	_ = g.Wait()
	return results
}

func (c *Converter) convertOne(ctx context.Context, emp *models.Employee) Conversion {
	result := Conversion{EmployeeID: emp.EmployeeID}

	local := emp.BaseSalary
	if local.Currency == "USD" {
		emp.BaseSalaryUSD = local.Amount
		emp.RateSource = SourceNone
		result.AmountUSD = local.Amount
		result.Source = SourceNone
		return result
	}

	rate, err := c.rates.GetRate(ctx, local.Currency, "USD")
	if err != nil || rate.Value <= 0 || math.IsNaN(rate.Value) {
		c.logger.WarnContext(ctx, "salary left unconverted",
			"employee_id", emp.EmployeeID, "currency", local.Currency, "error", err)
		emp.BaseSalaryUSD = 0
		emp.RateSource = SourceUnsupported
		result.Source = SourceUnsupported
		return result
	}

	usd := math.Round(local.Amount*rate.Value*100) / 100
	emp.BaseSalaryUSD = usd
	emp.RateSource = rate.Source
	result.AmountUSD = usd
	result.Source = rate.Source
	return result
}
