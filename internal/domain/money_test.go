package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyFromString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    Money
		expectedErr bool
	}{
		{name: "whole amount", input: "100", expected: NewMoney(10000)},
		{name: "two decimals", input: "1234.50", expected: NewMoney(123450)},
		{name: "negative amount", input: "-7.25", expected: NewMoney(-725)},
		{name: "zero", input: "0", expected: NewMoney(0)},
		{name: "float noise within epsilon", input: "10.0000000000001", expected: NewMoney(1000)},
		{name: "sub-cent residue rejected", input: "10.005", expectedErr: true},
		{name: "garbage rejected", input: "ten pesos", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MoneyFromString(tt.input)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	// The classic float trap: 0.1 + 0.2.
	a, err := MoneyFromString("0.10")
	assert.NoError(t, err)
	b, err := MoneyFromString("0.20")
	assert.NoError(t, err)

	assert.Equal(t, NewMoney(30), a.Add(b))
	assert.Equal(t, "0.30", a.Add(b).String())
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := NewMoney(123456789)
	back, err := MoneyFromDecimal(m.Decimal())
	assert.NoError(t, err)
	assert.Equal(t, m, back)
	assert.True(t, m.Decimal().Equal(decimal.RequireFromString("1234567.89")))
}

func TestMoneyHelpers(t *testing.T) {
	assert.Equal(t, NewMoney(50), Min(NewMoney(50), NewMoney(100)))
	assert.Equal(t, NewMoney(50), Min(NewMoney(100), NewMoney(50)))
	assert.Equal(t, NewMoney(75), NewMoney(-75).Abs())
	assert.Equal(t, NewMoney(-75), NewMoney(75).Neg())
	assert.True(t, NewMoney(1).IsPositive())
	assert.True(t, NewMoney(-1).IsNegative())
	assert.True(t, NewMoney(0).IsZero())
	assert.Equal(t, NewMoney(70), NewMoney(100).Sub(NewMoney(30)))
}
