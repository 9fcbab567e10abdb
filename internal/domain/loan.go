package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusClosed    = "closed"
	LoanStatusCancelled = "cancelled"
)

const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPartial = "partial"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)

// Loan represents a loan entity. The installment schedule is materialized by
// the administration layer at creation time; this core only consumes it.
type Loan struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LoanID    string    `json:"loan_id" db:"loan_id"`
	ClientID  uuid.UUID `json:"client_id" db:"client_id"`
	Principal Money     `json:"principal" db:"principal"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Installment is one scheduled payment obligation within a loan.
// TotalAmount is immutable after creation and PaidAmount only grows;
// Status is a materialized cache of DeriveInstallmentStatus and must be
// recomputed on every mutation.
type Installment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LoanID        string    `json:"loan_id" db:"loan_id"`
	PaymentNumber int       `json:"payment_number" db:"payment_number"`
	TotalAmount   Money     `json:"total_amount" db:"total_amount"`
	PaidAmount    Money     `json:"paid_amount" db:"paid_amount"`
	Status        string    `json:"status" db:"status"`
	DueDate       time.Time `json:"due_date" db:"due_date"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Outstanding returns what the installment still owes.
func (i *Installment) Outstanding() Money {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// DeriveInstallmentStatus computes an installment's status from its amounts
// and due date. A partially paid installment is always partial, even past
// due; overdue applies only while nothing has been paid.
func DeriveInstallmentStatus(paid, total Money, dueDate, now time.Time) string {
	switch {
	case paid == total:
		return InstallmentStatusPaid
	case paid.IsPositive():
		return InstallmentStatusPartial
	case now.After(dueDate):
		return InstallmentStatusOverdue
	default:
		return InstallmentStatusPending
	}
}

// DTOs for requests and responses

type InstallmentSpec struct {
	PaymentNumber int             `json:"payment_number" validate:"required,gt=0"`
	TotalAmount   decimal.Decimal `json:"total_amount" validate:"required"`
	DueDate       time.Time       `json:"due_date" validate:"required"`
}

type CreateLoanRequest struct {
	LoanID       string            `json:"loan_id" validate:"required"`
	ClientID     uuid.UUID         `json:"client_id" validate:"required"`
	Principal    decimal.Decimal   `json:"principal" validate:"required"`
	Installments []InstallmentSpec `json:"installments" validate:"required,min=1,dive"`

	// Optional collector wallet that funds the loan; when set, a
	// loan_disbursement posting is recorded atomically with creation.
	DisbursementContainerID *uuid.UUID `json:"disbursement_container_id,omitempty"`
}

type CreateLoanResponse struct {
	Loan         *Loan          `json:"loan"`
	Installments []*Installment `json:"installments"`
	Disbursement *Transaction   `json:"disbursement,omitempty"`
}

type ScheduleResponse struct {
	LoanID       string         `json:"loan_id"`
	Installments []*Installment `json:"installments"`
}

type OutstandingResponse struct {
	LoanID      string          `json:"loan_id"`
	Outstanding decimal.Decimal `json:"outstanding"`
}
