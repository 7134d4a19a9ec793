package integration

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the number of decimal places stored in Money.Amount
const minorUnitExponent = 2

var (
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
	minMinorUnits = decimal.NewFromInt(math.MinInt64)
)

// Money is an amount in integer minor units (cents).
// Prices are compared as integers so float rounding never reports a spurious change.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

// ParseMoney parses a platform decimal string such as "19.99" into minor units.
// An empty amount parses as zero. Sub-cent digits are rounded half away from zero.
func ParseMoney(amount, currency string) (Money, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return Money{Currency: strings.ToUpper(currency)}, nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w %q: %w", ErrInvalidAmount, amount, err)
	}
	return MoneyFromDecimal(d, currency)
}

// MoneyFromDecimal converts a decimal major-unit amount into Money. Amounts
// whose minor units do not fit in an int64 are rejected with ErrInvalidAmount.
func MoneyFromDecimal(d decimal.Decimal, currency string) (Money, error) {
	minor := d.Shift(minorUnitExponent).Round(0)
	if minor.GreaterThan(maxMinorUnits) || minor.LessThan(minMinorUnits) {
		return Money{}, fmt.Errorf("%w %s: out of range", ErrInvalidAmount, d.String())
	}
	return Money{
		Amount:   minor.IntPart(),
		Currency: strings.ToUpper(currency),
	}, nil
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -minorUnitExponent)
}

// String formats the amount with two decimals, the form platforms accept
func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitExponent)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount == 0
}
