// Package core provides the expense domain model.
//
// This file contains the decimal amount type. Amounts travel over the wire
// either as JSON numbers or as strings, so decoding coerces both forms and
// falls back to zero for anything unparseable.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal currency value.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float, mostly for tests and defaults.
func NewAmount(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount parses a decimal string. It accepts both dot (12.34) and
// comma (12,34) separators, like the form inputs users type.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// CoerceAmount parses s and returns zero when it is not a number.
func CoerceAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		return Amount{}
	}
	return a
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

func (a Amount) DivInt(n int64) Amount {
	return Amount{Decimal: a.Decimal.Div(decimal.NewFromInt(n))}
}

// Float returns the value as float64 for display and charting only.
func (a Amount) Float() float64 {
	f, _ := a.Decimal.Float64()
	return f
}

// MarshalJSON emits a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts 12.5, "12.5", "", and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}
	raw := string(bytes.Trim(data, `"`))
	*a = CoerceAmount(raw)
	return nil
}
