package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prestamix/lending-engine/internal/domain"
)

type categoryRepository struct {
	db *sqlx.DB
}

func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByName(ctx context.Context, containerID uuid.UUID, normalized string) (*domain.ExpenseCategory, error) {
	query := `
		SELECT id, container_id, name, description, created_at
		FROM expense_categories
		WHERE container_id = $1 AND LOWER(name) = $2
	`

	var category domain.ExpenseCategory
	err := r.db.GetContext(ctx, &category, query, containerID, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.ExpenseCategory) error {
	query := `
		INSERT INTO expense_categories (id, container_id, name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		category.ID,
		category.ContainerID,
		category.Name,
		category.Description,
		category.CreatedAt,
	)

	return err
}

func (r *categoryRepository) List(ctx context.Context, containerID uuid.UUID) ([]*domain.ExpenseCategory, error) {
	query := `
		SELECT id, container_id, name, description, created_at
		FROM expense_categories
		WHERE container_id = $1
		ORDER BY name
	`

	var categories []*domain.ExpenseCategory
	err := r.db.SelectContext(ctx, &categories, query, containerID)
	if err != nil {
		return nil, err
	}

	return categories, nil
}
