package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/prestamix/lending-engine/internal/domain"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

type walletRepository struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) EnsureContainer(ctx context.Context, ownerID uuid.UUID, kind string) (*domain.Container, error) {
	query := `
		INSERT INTO containers (id, owner_id, kind, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $4)
		ON CONFLICT (owner_id, kind) DO UPDATE SET updated_at = containers.updated_at
		RETURNING id, owner_id, kind, balance, created_at, updated_at
	`

	var container domain.Container
	err := r.db.GetContext(ctx, &container, query, uuid.New(), ownerID, kind, time.Now())
	if err != nil {
		return nil, err
	}

	return &container, nil
}

func (r *walletRepository) GetContainer(ctx context.Context, id uuid.UUID) (*domain.Container, error) {
	query := `
		SELECT id, owner_id, kind, balance, created_at, updated_at
		FROM containers
		WHERE id = $1
	`

	var container domain.Container
	err := r.db.GetContext(ctx, &container, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapContainerNotFound(id.String())
		}
		return nil, err
	}

	return &container, nil
}

func (r *walletRepository) Post(ctx context.Context, draft *domain.Draft) (*domain.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	posted, err := postInTx(ctx, tx, draft, time.Now())
	if err != nil {
		return nil, translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateLockError(err)
	}

	return posted, nil
}

func (r *walletRepository) PostPair(ctx context.Context, out, in *domain.Draft) (*domain.Transaction, *domain.Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Lock both containers in id order so concurrent transfers between the
	// same pair cannot deadlock.
	lockOrder := []uuid.UUID{out.ContainerID, in.ContainerID}
	if lockOrder[1].String() < lockOrder[0].String() {
		lockOrder[0], lockOrder[1] = lockOrder[1], lockOrder[0]
	}
	for _, id := range lockOrder {
		if _, err := lockContainer(ctx, tx, id); err != nil {
			return nil, nil, translateLockError(err)
		}
	}

	now := time.Now()
	outTx, err := postInTx(ctx, tx, out, now)
	if err != nil {
		return nil, nil, translateLockError(err)
	}
	inTx, err := postInTx(ctx, tx, in, now)
	if err != nil {
		return nil, nil, translateLockError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, translateLockError(err)
	}

	return outTx, inTx, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, containerID uuid.UUID, filter HistoryFilter) ([]*domain.Transaction, int, error) {
	where := `WHERE container_id = $1`
	args := []interface{}{containerID}

	if len(filter.Types) > 0 {
		args = append(args, pq.Array(filter.Types))
		where += ` AND type = ANY($2)`
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += ` AND created_at >= $` + itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += ` AND created_at <= $` + itoa(len(args))
	}

	countQuery := `SELECT COUNT(*) FROM transactions ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `
		SELECT id, container_id, type, amount, signed, balance_before, balance_after,
		       description, related_container_id, related_user_id, created_at
		FROM transactions ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	var transactions []*domain.Transaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// lockContainer reads a container row under FOR UPDATE.
func lockContainer(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Container, error) {
	query := `
		SELECT id, owner_id, kind, balance, created_at, updated_at
		FROM containers
		WHERE id = $1
		FOR UPDATE
	`

	var container domain.Container
	err := tx.GetContext(ctx, &container, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapContainerNotFound(id.String())
		}
		return nil, err
	}

	return &container, nil
}

// postInTx appends one transaction inside an open database transaction.
// The container row lock is (re)taken here; FOR UPDATE is reentrant within
// the same transaction, so callers that already locked the row pay nothing.
func postInTx(ctx context.Context, tx *sqlx.Tx, draft *domain.Draft, now time.Time) (*domain.Transaction, error) {
	container, err := lockContainer(ctx, tx, draft.ContainerID)
	if err != nil {
		return nil, err
	}

	posted := domain.BuildTransaction(container, draft, now)

	insert := `
		INSERT INTO transactions (id, container_id, type, amount, signed, balance_before,
		                          balance_after, description, related_container_id, related_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = tx.ExecContext(ctx, insert,
		posted.ID,
		posted.ContainerID,
		posted.Type,
		posted.Amount,
		posted.Signed,
		posted.BalanceBefore,
		posted.BalanceAfter,
		posted.Description,
		posted.RelatedContainerID,
		posted.RelatedUserID,
		posted.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	update := `UPDATE containers SET balance = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, container.ID, posted.BalanceAfter, now); err != nil {
		return nil, err
	}

	return posted, nil
}

// translateLockError maps Postgres serialization and deadlock failures onto
// the retryable taxonomy error.
func translateLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return customError.WrapConcurrentModification(err)
		}
	}
	return err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
