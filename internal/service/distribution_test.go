package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/prestamix/lending-engine/internal/domain"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

func makeSchedule(totals ...int64) []*domain.Installment {
	due := time.Now().AddDate(0, 0, 7)
	installments := make([]*domain.Installment, 0, len(totals))
	for i, total := range totals {
		installments = append(installments, &domain.Installment{
			ID:            uuid.New(),
			LoanID:        "LOAN-001",
			PaymentNumber: i + 1,
			TotalAmount:   domain.NewMoney(total),
			Status:        domain.InstallmentStatusPending,
			DueDate:       due.AddDate(0, 0, 7*i),
		})
	}
	return installments
}

func TestDistributeCascadeCompleteness(t *testing.T) {
	// Loan [100, 100, 100], payment of 250 on #1:
	// #1 paid, #2 paid, #3 partial at 50, nothing left over.
	installments := makeSchedule(10000, 10000, 10000)

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(25000), time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 3)
	assert.True(t, result.UnappliedExcess.IsZero())

	assert.Equal(t, domain.NewMoney(10000), result.Allocations[0].Applied)
	assert.Equal(t, domain.InstallmentStatusPaid, result.Allocations[0].NewStatus)
	assert.Equal(t, domain.NewMoney(10000), result.Allocations[1].Applied)
	assert.Equal(t, domain.InstallmentStatusPaid, result.Allocations[1].NewStatus)
	assert.Equal(t, domain.NewMoney(5000), result.Allocations[2].Applied)
	assert.Equal(t, domain.InstallmentStatusPartial, result.Allocations[2].NewStatus)
}

func TestDistributeCascadeOverflow(t *testing.T) {
	// Same loan, payment of 400: all three paid, 100 comes back unapplied.
	installments := makeSchedule(10000, 10000, 10000)

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(40000), time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 3)
	assert.Equal(t, domain.NewMoney(10000), result.UnappliedExcess)
	for _, allocation := range result.Allocations {
		assert.Equal(t, domain.InstallmentStatusPaid, allocation.NewStatus)
	}
}

func TestDistributeNeverSkipsUnpaid(t *testing.T) {
	// #2 is already paid; excess from #1 must land on #3, not stop at #2.
	installments := makeSchedule(10000, 10000, 10000)
	installments[1].PaidAmount = installments[1].TotalAmount
	installments[1].Status = domain.InstallmentStatusPaid

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(15000), time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 2)
	assert.Equal(t, 1, result.Allocations[0].PaymentNumber)
	assert.Equal(t, 3, result.Allocations[1].PaymentNumber)
	assert.Equal(t, domain.NewMoney(5000), result.Allocations[1].Applied)

	// And order is always ascending payment number.
	for i := 1; i < len(result.Allocations); i++ {
		assert.Greater(t, result.Allocations[i].PaymentNumber, result.Allocations[i-1].PaymentNumber)
	}
}

func TestDistributePartialOnTarget(t *testing.T) {
	installments := makeSchedule(10000, 10000)
	installments[0].PaidAmount = domain.NewMoney(3000)
	installments[0].Status = domain.InstallmentStatusPartial

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(2000), time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 1)
	assert.Equal(t, domain.NewMoney(2000), result.Allocations[0].Applied)
	assert.Equal(t, domain.NewMoney(3000), result.Allocations[0].PriorPaid)
	assert.Equal(t, domain.InstallmentStatusPartial, result.Allocations[0].NewStatus)
	assert.True(t, result.UnappliedExcess.IsZero())
}

func TestDistributeCarriesSnapshotPaidAmounts(t *testing.T) {
	// Every allocation records the paid amount it was computed against, so
	// the commit can refuse to apply on top of a row that moved since the
	// read.
	installments := makeSchedule(10000, 10000)
	installments[0].PaidAmount = domain.NewMoney(4000)
	installments[0].Status = domain.InstallmentStatusPartial

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(9000), time.Now())
	assert.NoError(t, err)
	assert.Len(t, result.Allocations, 2)
	assert.Equal(t, domain.NewMoney(4000), result.Allocations[0].PriorPaid)
	assert.Equal(t, domain.NewMoney(0), result.Allocations[1].PriorPaid)
}

func TestDistributeExactPayoffIsPaidNotPartial(t *testing.T) {
	// Exact match in minor units flips to paid, no epsilon involved.
	installments := makeSchedule(10001)

	result, err := Distribute(installments, installments[0].ID, domain.NewMoney(10001), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, domain.InstallmentStatusPaid, result.Allocations[0].NewStatus)
	assert.True(t, result.UnappliedExcess.IsZero())
}

func TestDistributeErrors(t *testing.T) {
	installments := makeSchedule(10000, 10000)

	tests := []struct {
		name         string
		targetID     uuid.UUID
		amount       domain.Money
		setup        func()
		expectedCode string
	}{
		{
			name:         "zero amount",
			targetID:     installments[0].ID,
			amount:       domain.NewMoney(0),
			expectedCode: customError.ErrCodeInvalidAmount,
		},
		{
			name:         "negative amount",
			targetID:     installments[0].ID,
			amount:       domain.NewMoney(-500),
			expectedCode: customError.ErrCodeInvalidAmount,
		},
		{
			name:         "unknown installment",
			targetID:     uuid.New(),
			amount:       domain.NewMoney(500),
			expectedCode: customError.ErrCodeInstallmentNotFound,
		},
		{
			name:     "target already paid",
			targetID: installments[0].ID,
			amount:   domain.NewMoney(500),
			setup: func() {
				installments[0].PaidAmount = installments[0].TotalAmount
				installments[0].Status = domain.InstallmentStatusPaid
			},
			expectedCode: customError.ErrCodeInstallmentAlreadyPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			result, err := Distribute(installments, tt.targetID, tt.amount, time.Now())
			assert.Nil(t, result)
			var businessErr *customError.BusinessError
			assert.ErrorAs(t, err, &businessErr)
			assert.Equal(t, tt.expectedCode, businessErr.Code)
		})
	}
}

func TestDistributeDoesNotMutateInputs(t *testing.T) {
	installments := makeSchedule(10000, 10000)

	_, err := Distribute(installments, installments[0].ID, domain.NewMoney(15000), time.Now())
	assert.NoError(t, err)

	// Commitment is the caller's job; the computation itself is pure.
	assert.True(t, installments[0].PaidAmount.IsZero())
	assert.True(t, installments[1].PaidAmount.IsZero())
	assert.Equal(t, domain.InstallmentStatusPending, installments[0].Status)
}
