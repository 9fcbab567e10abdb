package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/repository"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

// HistoryService is the read model over a container's ledger. The returned
// balance is a snapshot taken at query time, never something a caller could
// (or should) derive by summing the visible page.
type HistoryService struct {
	WalletRepo repository.WalletRepository
	Cache      *BalanceCache
	Log        *logrus.Logger
}

func NewHistoryService(walletRepo repository.WalletRepository, cache *BalanceCache, log *logrus.Logger) *HistoryService {
	return &HistoryService{WalletRepo: walletRepo, Cache: cache, Log: log}
}

// GetHistory returns a filtered page of transactions, newest first, plus
// the container's current balance and the total count for pagination.
func (s *HistoryService) GetHistory(ctx context.Context, containerID uuid.UUID, filter repository.HistoryFilter, page, perPage int) (*domain.HistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	transactions, total, err := s.WalletRepo.ListTransactions(ctx, containerID, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	balance, ok := s.Cache.Get(ctx, containerID)
	if !ok {
		container, err := s.WalletRepo.GetContainer(ctx, containerID)
		if err != nil {
			return nil, err
		}
		balance = container.Balance
		s.Cache.Set(ctx, containerID, balance)
	}

	return &domain.HistoryResponse{
		ContainerID:  containerID,
		Balance:      balance.Decimal(),
		Transactions: transactions,
		Page:         page,
		PerPage:      perPage,
		TotalCount:   total,
	}, nil
}
