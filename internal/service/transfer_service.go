package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/prestamix/lending-engine/internal/domain"
	"github.com/prestamix/lending-engine/internal/repository"
	customError "github.com/prestamix/lending-engine/pkg/errors"
)

// transferTypes maps a (source kind, dest kind) pair onto the transaction
// types of the two legs. The collector vocabulary has no transfer-in type,
// so money arriving from a safe lands as a positive cash_adjustment.
var transferTypes = map[[2]string][2]string{
	{domain.ContainerKindSafe, domain.ContainerKindCollector}:   {domain.TxTypeTransferToCollector, domain.TxTypeCashAdjustment},
	{domain.ContainerKindCollector, domain.ContainerKindSafe}:   {domain.TxTypeWithdrawal, domain.TxTypeTransferFromCollector},
	{domain.ContainerKindSafe, domain.ContainerKindSafe}:        {domain.TxTypeTransferToSafe, domain.TxTypeTransferFromSafe},
	{domain.ContainerKindWallet, domain.ContainerKindWallet}:    {domain.TxTypeTransferOut, domain.TxTypeTransferIn},
}

// TransferService moves money between two containers as one indivisible
// operation: both legs post in a single database transaction or neither
// does. There is deliberately no source balance check; field collectors
// may transfer before their own ledger is reconciled, so negative balances
// are an expected state.
type TransferService struct {
	WalletRepo repository.WalletRepository
	Cache      *BalanceCache
	Log        *logrus.Logger
}

func NewTransferService(walletRepo repository.WalletRepository, cache *BalanceCache, log *logrus.Logger) *TransferService {
	return &TransferService{WalletRepo: walletRepo, Cache: cache, Log: log}
}

// Transfer executes the two-sided posting and returns both transactions,
// each with its authoritative post-commit balance.
func (s *TransferService) Transfer(ctx context.Context, request *domain.TransferRequest) (*domain.TransferResponse, error) {
	amount, err := domain.MoneyFromDecimal(request.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, customError.WrapInvalidAmount(request.Amount.String())
	}

	if request.SourceContainerID == request.DestContainerID {
		return nil, customError.WrapInvalidAmount("transfer to the same container")
	}

	source, err := s.WalletRepo.GetContainer(ctx, request.SourceContainerID)
	if err != nil {
		return nil, err
	}
	dest, err := s.WalletRepo.GetContainer(ctx, request.DestContainerID)
	if err != nil {
		return nil, err
	}

	types, ok := transferTypes[[2]string{source.Kind, dest.Kind}]
	if !ok {
		return nil, customError.WrapInvalidTransactionType(source.Kind+"->"+dest.Kind, "transfer")
	}

	// Each leg records the counterpart so history renders "Transferred to
	// X" / "Received from Y" without a join at read time.
	out := &domain.Draft{
		ContainerID:        source.ID,
		Type:               types[0],
		Amount:             amount,
		Signed:             amount.Neg(),
		Description:        request.Description,
		RelatedContainerID: &dest.ID,
		RelatedUserID:      &dest.OwnerID,
	}
	in := &domain.Draft{
		ContainerID:        dest.ID,
		Type:               types[1],
		Amount:             amount,
		Signed:             amount,
		Description:        request.Description,
		RelatedContainerID: &source.ID,
		RelatedUserID:      &source.OwnerID,
	}

	outTx, inTx, err := s.WalletRepo.PostPair(ctx, out, in)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, source.ID, outTx.BalanceAfter)
	s.Cache.Set(ctx, dest.ID, inTx.BalanceAfter)

	s.Log.WithFields(logrus.Fields{
		"source": source.ID,
		"dest":   dest.ID,
		"amount": amount.String(),
	}).Info("transfer completed")

	return &domain.TransferResponse{Outgoing: outTx, Incoming: inTx}, nil
}
