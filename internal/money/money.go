// Package money models currency amounts used for registry pricing.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var (
	// ErrCurrencyMismatch indicates an amount quoted in the wrong currency.
	ErrCurrencyMismatch = errors.New("money: currency unit mismatch")
	// ErrValueScale indicates more decimal places than the currency allows.
	ErrValueScale = errors.New("money: invalid currency value scale")
	// ErrUnknownCurrency indicates an unrecognised ISO 4217 code.
	ErrUnknownCurrency = errors.New("money: unknown currency")
)

// Money pairs a decimal amount with its ISO 4217 currency code.
type Money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// New builds a Money value, validating the currency code.
func New(code string, amount decimal.Decimal) (Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return Money{Currency: unit.String(), Amount: amount}, nil
}

// MustParse builds a Money value from a string amount, panicking on bad
// input. Intended for constants in configuration defaults and tests.
func MustParse(code, amount string) Money {
	m, err := New(code, decimal.RequireFromString(amount))
	if err != nil {
		panic(err)
	}
	return m
}

// MulYears returns a per-year price multiplied out over whole years.
func (m Money) MulYears(years int) Money {
	return Money{Currency: m.Currency, Amount: m.Amount.Mul(decimal.NewFromInt(int64(years)))}
}

// Equal reports whether two amounts are the same currency and value.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) String() string {
	return m.Currency + " " + m.Amount.String()
}

// CheckScale verifies the amount carries no more decimal places than the
// currency's standard minor unit (e.g. two for USD, zero for JPY).
func (m Money) CheckScale() error {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownCurrency, m.Currency)
	}
	scale, _ := currency.Standard.Rounding(unit)
	if int(m.Amount.Exponent()) < -scale && !m.Amount.Equal(m.Amount.Round(int32(scale))) {
		return fmt.Errorf("%w: %s allows %d decimal places", ErrValueScale, m.Currency, scale)
	}
	return nil
}

// CheckAgainst validates a client-claimed fee against the computed cost:
// currency first, then scale, then the value itself. The caller maps a
// value difference to its own fee-mismatch failure.
func (m Money) CheckAgainst(cost Money) error {
	if m.Currency != cost.Currency {
		return fmt.Errorf("%w: got %s, want %s", ErrCurrencyMismatch, m.Currency, cost.Currency)
	}
	return m.CheckScale()
}
