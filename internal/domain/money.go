package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount in minor units (cents). All ledger arithmetic
// happens on this type so it is always exact; decimal.Decimal only appears
// at the API boundary where amounts arrive as decimal strings.
type Money int64

// boundaryEpsilon tolerates float noise in legacy decimal inputs. It applies
// only while converting at the boundary, never to stored amounts.
var boundaryEpsilon = decimal.New(1, -9)

var centFactor = decimal.New(1, 2)

// NewMoney builds a Money from a minor-unit count.
func NewMoney(minorUnits int64) Money {
	return Money(minorUnits)
}

// MoneyFromDecimal converts a decimal amount (major units) to Money.
// The value must be representable in whole cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(centFactor)
	rounded := cents.Round(0)
	if cents.Sub(rounded).Abs().GreaterThan(boundaryEpsilon) {
		return 0, fmt.Errorf("amount %s has sub-cent precision", d.String())
	}
	return Money(rounded.IntPart()), nil
}

// MoneyFromString parses a legacy decimal string ("1234.50") into Money.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }
func (m Money) IsZero() bool     { return m == 0 }
