package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveInstallmentStatus(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 7)
	past := now.AddDate(0, 0, -7)

	tests := []struct {
		name     string
		paid     Money
		total    Money
		dueDate  time.Time
		expected string
	}{
		{name: "untouched before due date", paid: 0, total: 10000, dueDate: future, expected: InstallmentStatusPending},
		{name: "untouched past due date", paid: 0, total: 10000, dueDate: past, expected: InstallmentStatusOverdue},
		{name: "partially paid before due date", paid: 5000, total: 10000, dueDate: future, expected: InstallmentStatusPartial},
		{name: "partially paid past due date stays partial", paid: 5000, total: 10000, dueDate: past, expected: InstallmentStatusPartial},
		{name: "fully paid", paid: 10000, total: 10000, dueDate: future, expected: InstallmentStatusPaid},
		{name: "fully paid past due date", paid: 10000, total: 10000, dueDate: past, expected: InstallmentStatusPaid},
		{name: "due date exactly now is not overdue", paid: 0, total: 10000, dueDate: now, expected: InstallmentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveInstallmentStatus(tt.paid, tt.total, tt.dueDate, now)
			assert.Equal(t, tt.expected, got)

			// Recomputing without mutation must never drift.
			again := DeriveInstallmentStatus(tt.paid, tt.total, tt.dueDate, now)
			assert.Equal(t, got, again)
		})
	}
}

func TestInstallmentOutstanding(t *testing.T) {
	installment := &Installment{TotalAmount: NewMoney(10000), PaidAmount: NewMoney(2500)}
	assert.Equal(t, NewMoney(7500), installment.Outstanding())

	installment.PaidAmount = installment.TotalAmount
	assert.Equal(t, NewMoney(0), installment.Outstanding())
}
