package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal for prices and line totals.
// It keeps the scale it was written with, so "1.00" is stored and
// returned as "1.00" rather than "1".
type Amount struct {
	dec decimal.Decimal
}

// NewAmount wraps a decimal value
func NewAmount(d decimal.Decimal) Amount {
	return Amount{dec: d}
}

// ParseAmount parses a decimal string such as "11.48"
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustAmount is ParseAmount for literals; it panics on malformed input
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal for arithmetic
func (a Amount) Decimal() decimal.Decimal {
	return a.dec
}

// Equal compares numeric value, ignoring scale
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

func (a Amount) String() string {
	if exp := a.dec.Exponent(); exp < 0 {
		return a.dec.StringFixed(-exp)
	}
	return a.dec.String()
}

// MarshalJSON always emits a JSON string so clients never see a float
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both 11.48 and "11.48"
func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.dec.UnmarshalJSON(b)
}

// Value stores the amount as TEXT so no driver coerces it to a float
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner
func (a *Amount) Scan(value interface{}) error {
	return a.dec.Scan(value)
}
