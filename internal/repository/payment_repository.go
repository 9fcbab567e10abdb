package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamix/lending-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, sub_loan_id, loan_id, amount, payment_date, description, created_at
		FROM payments
		WHERE loan_id = $1
		ORDER BY created_at
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, loanID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) GetBySubLoanID(ctx context.Context, subLoanID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, sub_loan_id, loan_id, amount, payment_date, description, created_at
		FROM payments
		WHERE sub_loan_id = $1
		ORDER BY created_at
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, subLoanID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}
