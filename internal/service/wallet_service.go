package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/repository"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

// WalletService is the posting boundary for every container kind. All
// balance changes flow through Post; sign derivation, vocabulary checks and
// expense-category resolution happen here, the row-locked append happens in
// the repository.
type WalletService struct {
	WalletRepo   repository.WalletRepository
	CategoryRepo repository.CategoryRepository
	Cache        *BalanceCache
	Log          *logrus.Logger
}

func NewWalletService(
	walletRepo repository.WalletRepository,
	categoryRepo repository.CategoryRepository,
	cache *BalanceCache,
	log *logrus.Logger,
) *WalletService {
	return &WalletService{
		WalletRepo:   walletRepo,
		CategoryRepo: categoryRepo,
		Cache:        cache,
		Log:          log,
	}
}

// EnsureContainer returns the owner's container of the given kind, creating
// it with a zero balance on first use.
func (s *WalletService) EnsureContainer(ctx context.Context, request *domain.EnsureContainerRequest) (*domain.Container, error) {
	container, err := s.WalletRepo.EnsureContainer(ctx, request.OwnerID, request.Kind)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return container, nil
}

// GetContainer returns a container with its authoritative balance.
func (s *WalletService) GetContainer(ctx context.Context, id uuid.UUID) (*domain.Container, error) {
	return s.WalletRepo.GetContainer(ctx, id)
}

// Post appends one typed transaction to a container. The magnitude must be
// positive; the balance sign comes from the type. cash_adjustment is the
// exception: its amount carries the sign and corrects unknown-direction
// drift. There is no balance floor; negative results are valid postings.
func (s *WalletService) Post(ctx context.Context, containerID uuid.UUID, request *domain.PostTransactionRequest) (*domain.Transaction, error) {
	container, err := s.WalletRepo.GetContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}

	sign, ok := domain.SignForType(container.Kind, request.Type)
	if !ok {
		return nil, customError.WrapInvalidTransactionType(container.Kind, request.Type)
	}

	amount, err := domain.MoneyFromDecimal(request.Amount)
	if err != nil {
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	var signed domain.Money
	switch {
	case sign == 0:
		if amount.IsZero() {
			return nil, customError.WrapInvalidAmount(request.Amount.String())
		}
		signed = amount
		amount = amount.Abs()
	case amount.IsPositive():
		signed = amount
		if sign < 0 {
			signed = amount.Neg()
		}
	default:
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	description := request.Description
	if request.Type == domain.TxTypeExpense {
		category, err := s.resolveCategory(ctx, container.ID, request.Category)
		if err != nil {
			return nil, err
		}
		if description == "" {
			description = category.Name
		}
	}

	posted, err := s.WalletRepo.Post(ctx, &domain.Draft{
		ContainerID: container.ID,
		Type:        request.Type,
		Amount:      amount,
		Signed:      signed,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, container.ID, posted.BalanceAfter)

	s.Log.WithFields(logrus.Fields{
		"container_id":  container.ID,
		"type":          posted.Type,
		"balance_after": posted.BalanceAfter.String(),
	}).Info("transaction posted")

	return posted, nil
}

// ListCategories returns a safe's expense categories.
func (s *WalletService) ListCategories(ctx context.Context, containerID uuid.UUID) ([]*domain.ExpenseCategory, error) {
	if _, err := s.WalletRepo.GetContainer(ctx, containerID); err != nil {
		return nil, err
	}

	categories, err := s.CategoryRepo.List(ctx, containerID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return categories, nil
}

// CreateCategory registers an expense category explicitly. Matching is
// case-insensitive, so "Gasolina" and "gasolina" are the same category.
func (s *WalletService) CreateCategory(ctx context.Context, containerID uuid.UUID, request *domain.CreateCategoryRequest) (*domain.ExpenseCategory, error) {
	if _, err := s.WalletRepo.GetContainer(ctx, containerID); err != nil {
		return nil, err
	}

	existing, err := s.CategoryRepo.GetByName(ctx, containerID, domain.NormalizeCategoryName(request.Name))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if existing != nil {
		return existing, nil
	}

	category := &domain.ExpenseCategory{
		ID:          uuid.New(),
		ContainerID: containerID,
		Name:        request.Name,
		Description: request.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.CategoryRepo.Create(ctx, category); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return category, nil
}

// resolveCategory finds the named category or creates it on the fly. Expense
// postings always reference a category record, never a bare string.
func (s *WalletService) resolveCategory(ctx context.Context, containerID uuid.UUID, name string) (*domain.ExpenseCategory, error) {
	if name == "" {
		name = "general"
	}

	existing, err := s.CategoryRepo.GetByName(ctx, containerID, domain.NormalizeCategoryName(name))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if existing != nil {
		return existing, nil
	}

	category := &domain.ExpenseCategory{
		ID:          uuid.New(),
		ContainerID: containerID,
		Name:        name,
		CreatedAt:   time.Now(),
	}
	if err := s.CategoryRepo.Create(ctx, category); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.Log.WithFields(logrus.Fields{
		"container_id": containerID,
		"category":     name,
	}).Info("expense category created")

	return category, nil
}
