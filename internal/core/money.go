// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents. On the wire they travel as decimal
// numbers with two fraction digits.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// Cents builds a Money value.
func Cents(c int64) Money { return Money{Cents: c} }

// ParseDecimalToCents converts a decimal string to cents with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative, signed and zero amounts are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")  -> 1234, nil
//	ParseDecimalToCents("12,34")  -> 1234, nil
//	ParseDecimalToCents("1.005")  -> 101, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	cents, err := decimalToCents(d)
	if err != nil || cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

var maxCents = decimal.NewFromInt(1<<63 - 1)

func decimalToCents(d decimal.Decimal) (int64, error) {
	c := d.Shift(2).Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return c.IntPart(), nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal { return decimal.New(m.Cents, -2) }

// Euros returns the amount as a float64 for display purposes only.
func (m Money) Euros() float64 { return m.Decimal().InexactFloat64() }

func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateNonNegative allows zero.
func (m Money) ValidateNonNegative() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		m.Cents = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return fmt.Errorf("money %q: %w", s, ErrInvalidAmount)
	}
	c, err := decimalToCents(d)
	if err != nil {
		return fmt.Errorf("money %q: %w", s, err)
	}
	m.Cents = c
	return nil
}

// Scan reads an INTEGER cents column.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		m.Cents = v
	case nil:
		m.Cents = 0
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}

func (m Money) Value() (driver.Value, error) { return m.Cents, nil }
