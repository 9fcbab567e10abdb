package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is the immutable audit record of money applied to one installment.
// A single receipt that cascades across installments produces one Payment
// row per installment touched.
type Payment struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SubLoanID   uuid.UUID `json:"sub_loan_id" db:"sub_loan_id"`
	LoanID      string    `json:"loan_id" db:"loan_id"`
	Amount      Money     `json:"amount" db:"amount"`
	PaymentDate time.Time `json:"payment_date" db:"payment_date"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Allocation is one installment touched by a payment distribution.
// PriorPaid is the paid amount the cascade was computed against; the commit
// applies the allocation only while the stored row still matches it, so a
// racing payment conflicts instead of stacking on a stale status.
type Allocation struct {
	InstallmentID uuid.UUID `json:"installment_id"`
	PaymentNumber int       `json:"payment_number"`
	Applied       Money     `json:"applied"`
	PriorPaid     Money     `json:"prior_paid"`
	NewStatus     string    `json:"new_status"`
}

// DistributionResult is the outcome of running the payment cascade. The
// allocations are ordered by payment number; UnappliedExcess is whatever
// could not be matched to any unpaid installment.
type DistributionResult struct {
	Allocations     []Allocation `json:"allocations"`
	UnappliedExcess Money        `json:"unapplied_excess"`
}

type RegisterPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate *time.Time      `json:"payment_date,omitempty"`
	Description string          `json:"description"`

	// Collector wallet credited with the full receipt.
	CollectorContainerID uuid.UUID `json:"collector_container_id" validate:"required"`
}

type RegisterPaymentResponse struct {
	Allocations []Allocation `json:"allocations"`
	Payments    []*Payment   `json:"payments"`
	Collection  *Transaction `json:"collection"`
}
