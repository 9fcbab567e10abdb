package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/prestamix/lending-engine/internal/domain"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

// Distribute applies a payment amount to the targeted installment and
// cascades any excess into the following unpaid installments of the same
// loan, in payment-number order, never skipping an unpaid one and never
// exceeding an installment's total. It is a pure computation: installments
// are not mutated, commitment is the caller's job. Whatever cannot be
// absorbed by the last installment comes back as UnappliedExcess.
//
// installments must be the loan's full schedule ordered by payment number.
func Distribute(installments []*domain.Installment, targetID uuid.UUID, amount domain.Money, now time.Time) (*domain.DistributionResult, error) {
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(amount.String())
	}

	targetIdx := -1
	for i, installment := range installments {
		if installment.ID == targetID {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return nil, customError.WrapInstallmentNotFound(targetID.String())
	}

	target := installments[targetIdx]
	if !target.Outstanding().IsPositive() {
		return nil, customError.WrapInstallmentAlreadyPaid(targetID.String())
	}

	remaining := amount
	allocations := make([]domain.Allocation, 0, 1)

	for i := targetIdx; i < len(installments) && remaining.IsPositive(); i++ {
		installment := installments[i]
		owed := installment.Outstanding()
		if !owed.IsPositive() {
			// Already fully paid: cascade walks past it, never into it.
			continue
		}

		applied := domain.Min(remaining, owed)
		newPaid := installment.PaidAmount.Add(applied)

		allocations = append(allocations, domain.Allocation{
			InstallmentID: installment.ID,
			PaymentNumber: installment.PaymentNumber,
			Applied:       applied,
			PriorPaid:     installment.PaidAmount,
			NewStatus:     domain.DeriveInstallmentStatus(newPaid, installment.TotalAmount, installment.DueDate, now),
		})

		remaining = remaining.Sub(applied)
	}

	return &domain.DistributionResult{
		Allocations:     allocations,
		UnappliedExcess: remaining,
	}, nil
}
