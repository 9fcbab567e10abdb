package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamix/lending-engine/internal/domain"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) CreateWithInstallments(ctx context.Context, loan *domain.Loan, installments []*domain.Installment, disbursement *domain.Draft) (*domain.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	loanInsert := `
		INSERT INTO loans (id, loan_id, client_id, principal, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(ctx, loanInsert,
		loan.ID,
		loan.LoanID,
		loan.ClientID,
		loan.Principal,
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	installmentInsert := `
		INSERT INTO installments (id, loan_id, payment_number, total_amount, paid_amount, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, installment := range installments {
		_, err = tx.ExecContext(ctx, installmentInsert,
			installment.ID,
			installment.LoanID,
			installment.PaymentNumber,
			installment.TotalAmount,
			installment.PaidAmount,
			installment.Status,
			installment.DueDate,
			installment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	var posted *domain.Transaction
	if disbursement != nil {
		posted, err = postInTx(ctx, tx, disbursement, time.Now())
		if err != nil {
			return nil, translateLockError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, translateLockError(err)
	}

	return posted, nil
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_id, client_id, principal, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID string, status string) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = $3
		WHERE loan_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, loanID, status, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return customError.WrapLoanNotFound(loanID)
	}

	return nil
}

func (r *loanRepository) GetInstallment(ctx context.Context, id uuid.UUID) (*domain.Installment, error) {
	query := `
		SELECT id, loan_id, payment_number, total_amount, paid_amount, status, due_date, created_at
		FROM installments
		WHERE id = $1
	`

	var installment domain.Installment
	err := r.db.GetContext(ctx, &installment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapInstallmentNotFound(id.String())
		}
		return nil, err
	}

	return &installment, nil
}

func (r *loanRepository) GetInstallmentsByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	query := `
		SELECT id, loan_id, payment_number, total_amount, paid_amount, status, due_date, created_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY payment_number
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, loanID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) CommitDistribution(ctx context.Context, allocations []domain.Allocation, payments []*domain.Payment, collection *domain.Draft) (*domain.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Optimistic guard against a racing distribution: both the new paid
	// amount and the status were computed from a snapshot, so the update
	// only lands while the stored paid amount still equals that snapshot.
	// Any drift rolls back the whole cascade and the caller retries from
	// a fresh read.
	installmentUpdate := `
		UPDATE installments
		SET paid_amount = paid_amount + $2, status = $3
		WHERE id = $1 AND paid_amount = $4 AND paid_amount + $2 <= total_amount
	`
	for _, allocation := range allocations {
		result, err := tx.ExecContext(ctx, installmentUpdate,
			allocation.InstallmentID,
			allocation.Applied,
			allocation.NewStatus,
			allocation.PriorPaid,
		)
		if err != nil {
			return nil, translateLockError(err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, customError.WrapConcurrentModification(nil)
		}
	}

	paymentInsert := `
		INSERT INTO payments (id, sub_loan_id, loan_id, amount, payment_date, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, payment := range payments {
		_, err = tx.ExecContext(ctx, paymentInsert,
			payment.ID,
			payment.SubLoanID,
			payment.LoanID,
			payment.Amount,
			payment.PaymentDate,
			payment.Description,
			payment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	posted, err := postInTx(ctx, tx, collection, time.Now())
	if err != nil {
		return nil, translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateLockError(err)
	}

	return posted, nil
}

func (r *loanRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE installments
		SET status = $1
		FROM loans
		WHERE installments.loan_id = loans.loan_id
		  AND loans.status = $2
		  AND installments.status = $3
		  AND installments.paid_amount = 0
		  AND installments.due_date < $4
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.InstallmentStatusOverdue,
		domain.LoanStatusActive,
		domain.InstallmentStatusPending,
		now,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
