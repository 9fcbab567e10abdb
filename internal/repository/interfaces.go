package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prestamix/lending-engine/internal/domain"
)

// HistoryFilter narrows a container's transaction history.
type HistoryFilter struct {
	Types  []string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// LoanRepository defines the interface for loan and installment data operations
type LoanRepository interface {
	// CreateWithInstallments persists a loan and its materialized installment
	// schedule in one transaction. A non-nil disbursement draft is posted
	// against the funding container in the same transaction.
	CreateWithInstallments(ctx context.Context, loan *domain.Loan, installments []*domain.Installment, disbursement *domain.Draft) (*domain.Transaction, error)

	// GetByLoanID retrieves a loan by its business key
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// UpdateStatus updates a loan's status
	UpdateStatus(ctx context.Context, loanID string, status string) error

	// GetInstallment retrieves a single installment
	GetInstallment(ctx context.Context, id uuid.UUID) (*domain.Installment, error)

	// GetInstallmentsByLoanID retrieves a loan's installments ordered by
	// payment number
	GetInstallmentsByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error)

	// CommitDistribution atomically applies a computed cascade: installment
	// paid amounts and statuses, one payment row per allocation, and the
	// collection posting crediting the collector's wallet. Either all of it
	// commits or none of it does.
	CommitDistribution(ctx context.Context, allocations []domain.Allocation, payments []*domain.Payment, collection *domain.Draft) (*domain.Transaction, error)

	// MarkOverdue flips unpaid past-due installments of active loans from
	// pending to overdue, returning the number of rows touched.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment audit records. Payments
// are written only by LoanRepository.CommitDistribution; this is read-only.
type PaymentRepository interface {
	// GetByLoanID retrieves all payments for a loan
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error)

	// GetBySubLoanID retrieves all payments applied to one installment
	GetBySubLoanID(ctx context.Context, subLoanID uuid.UUID) ([]*domain.Payment, error)
}

// WalletRepository is the single write path for container balances.
type WalletRepository interface {
	// EnsureContainer returns the owner's container of the given kind,
	// creating it with a zero balance when absent.
	EnsureContainer(ctx context.Context, ownerID uuid.UUID, kind string) (*domain.Container, error)

	// GetContainer retrieves a container by id
	GetContainer(ctx context.Context, id uuid.UUID) (*domain.Container, error)

	// Post appends one transaction to a container under its row lock and
	// updates the cached balance.
	Post(ctx context.Context, draft *domain.Draft) (*domain.Transaction, error)

	// PostPair appends the two legs of a transfer in one transaction,
	// locking both containers in id order.
	PostPair(ctx context.Context, out, in *domain.Draft) (*domain.Transaction, *domain.Transaction, error)

	// ListTransactions returns a page of a container's history, newest
	// first, plus the unfiltered-by-page total count.
	ListTransactions(ctx context.Context, containerID uuid.UUID, filter HistoryFilter) ([]*domain.Transaction, int, error)
}

// CategoryRepository defines the interface for expense categories.
type CategoryRepository interface {
	// GetByName looks a category up by normalized name within a safe
	GetByName(ctx context.Context, containerID uuid.UUID, normalized string) (*domain.ExpenseCategory, error)

	// Create persists a new category
	Create(ctx context.Context, category *domain.ExpenseCategory) error

	// List returns a safe's categories
	List(ctx context.Context, containerID uuid.UUID) ([]*domain.ExpenseCategory, error)
}
