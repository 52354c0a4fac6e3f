package models

import (
	"fmt"
	"math"
	"strings"

	dErrors "compass/pkg/domain-errors"
)

// Money is an amount tagged with its currency. Monetary fields carry this type
// instead of bare float64 so that mixing a USD-stored raise into a
// local-currency salary is a construction-time error, not a silent bug.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// NewMoney normalizes the currency code to upper case, defaulting to USD.
func NewMoney(amount float64, currency string) Money {
	c := strings.ToUpper(strings.TrimSpace(currency))
	if c == "" {
		c = "USD"
	}
	return Money{Amount: amount, Currency: c}
}

// USD is shorthand for a USD-denominated amount.
func USD(amount float64) Money {
	return Money{Amount: amount, Currency: "USD"}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// Add returns m + other. Both operands must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot add %s to %s without conversion", other.Currency, m.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// ConvertVia rescales the amount into target currency using the ratio between
// a known local amount and its USD equivalent. This is how a USD-stored raise
// is brought back into an employee's local currency: rate = local/usd.
func (m Money) ConvertVia(localPerUSD float64, targetCurrency string) Money {
	return NewMoney(m.Amount*localPerUSD, targetCurrency)
}

// Round returns the amount rounded to 2 decimal places.
func (m Money) Round() Money {
	return Money{Amount: math.Round(m.Amount*100) / 100, Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}
