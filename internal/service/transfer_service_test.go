package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/prestamix/lending-engine/internal/domain"
	customError "github.com/prestamix/lending-engine/pkg/errors"
	"github.com/prestamix/lending-engine/tests/mocks"
)

func newTransferService(walletRepo *mocks.MockWalletRepository) *TransferService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &TransferService{
		WalletRepo: walletRepo,
		Cache:      NewBalanceCache(nil, log),
		Log:        log,
	}
}

func container(kind string) *domain.Container {
	return &domain.Container{ID: uuid.New(), OwnerID: uuid.New(), Kind: kind}
}

func TestTransferTypePairs(t *testing.T) {
	tests := []struct {
		name         string
		sourceKind   string
		destKind     string
		expectedOut  string
		expectedIn   string
	}{
		{name: "safe to collector", sourceKind: domain.ContainerKindSafe, destKind: domain.ContainerKindCollector, expectedOut: domain.TxTypeTransferToCollector, expectedIn: domain.TxTypeCashAdjustment},
		{name: "collector to safe", sourceKind: domain.ContainerKindCollector, destKind: domain.ContainerKindSafe, expectedOut: domain.TxTypeWithdrawal, expectedIn: domain.TxTypeTransferFromCollector},
		{name: "safe to safe", sourceKind: domain.ContainerKindSafe, destKind: domain.ContainerKindSafe, expectedOut: domain.TxTypeTransferToSafe, expectedIn: domain.TxTypeTransferFromSafe},
		{name: "wallet to wallet", sourceKind: domain.ContainerKindWallet, destKind: domain.ContainerKindWallet, expectedOut: domain.TxTypeTransferOut, expectedIn: domain.TxTypeTransferIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			walletRepo := &mocks.MockWalletRepository{}
			svc := newTransferService(walletRepo)

			source := container(tt.sourceKind)
			dest := container(tt.destKind)

			walletRepo.On("GetContainer", mock.Anything, source.ID).Return(source, nil)
			walletRepo.On("GetContainer", mock.Anything, dest.ID).Return(dest, nil)
			walletRepo.On("PostPair", mock.Anything,
				mock.MatchedBy(func(out *domain.Draft) bool {
					return out.Type == tt.expectedOut &&
						out.Signed == domain.NewMoney(-10000) &&
						out.RelatedContainerID != nil && *out.RelatedContainerID == dest.ID &&
						out.RelatedUserID != nil && *out.RelatedUserID == dest.OwnerID
				}),
				mock.MatchedBy(func(in *domain.Draft) bool {
					return in.Type == tt.expectedIn &&
						in.Signed == domain.NewMoney(10000) &&
						in.RelatedContainerID != nil && *in.RelatedContainerID == source.ID
				}),
			).Return(
				&domain.Transaction{ContainerID: source.ID, BalanceAfter: domain.NewMoney(-10000)},
				&domain.Transaction{ContainerID: dest.ID, BalanceAfter: domain.NewMoney(10000)},
				nil,
			)

			result, err := svc.Transfer(context.Background(), &domain.TransferRequest{
				SourceContainerID: source.ID,
				DestContainerID:   dest.ID,
				Amount:            decimal.RequireFromString("100"),
				Description:       "weekly settlement",
			})

			assert.NoError(t, err)
			assert.Equal(t, source.ID, result.Outgoing.ContainerID)
			assert.Equal(t, dest.ID, result.Incoming.ContainerID)
			walletRepo.AssertExpectations(t)
		})
	}
}

func TestTransferRejectsUnsupportedPair(t *testing.T) {
	walletRepo := &mocks.MockWalletRepository{}
	svc := newTransferService(walletRepo)

	source := container(domain.ContainerKindWallet)
	dest := container(domain.ContainerKindSafe)

	walletRepo.On("GetContainer", mock.Anything, source.ID).Return(source, nil)
	walletRepo.On("GetContainer", mock.Anything, dest.ID).Return(dest, nil)

	_, err := svc.Transfer(context.Background(), &domain.TransferRequest{
		SourceContainerID: source.ID,
		DestContainerID:   dest.ID,
		Amount:            decimal.RequireFromString("10"),
	})

	var businessErr *customError.BusinessError
	assert.ErrorAs(t, err, &businessErr)
	assert.Equal(t, customError.ErrCodeInvalidTransactionType, businessErr.Code)
	walletRepo.AssertNotCalled(t, "PostPair", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferValidation(t *testing.T) {
	walletRepo := &mocks.MockWalletRepository{}
	svc := newTransferService(walletRepo)

	same := uuid.New()

	tests := []struct {
		name    string
		request *domain.TransferRequest
	}{
		{
			name: "non-positive amount",
			request: &domain.TransferRequest{
				SourceContainerID: uuid.New(),
				DestContainerID:   uuid.New(),
				Amount:            decimal.Zero,
			},
		},
		{
			name: "same container",
			request: &domain.TransferRequest{
				SourceContainerID: same,
				DestContainerID:   same,
				Amount:            decimal.RequireFromString("10"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(context.Background(), tt.request)
			var businessErr *customError.BusinessError
			assert.ErrorAs(t, err, &businessErr)
			assert.Equal(t, customError.ErrCodeInvalidAmount, businessErr.Code)
		})
	}

	walletRepo.AssertNotCalled(t, "PostPair", mock.Anything, mock.Anything, mock.Anything)
}

// Fault injection: when the paired posting fails, the error surfaces and no
// transaction is returned. There is no path where one leg stands alone.
func TestTransferAtomicityOnFailure(t *testing.T) {
	walletRepo := &mocks.MockWalletRepository{}
	svc := newTransferService(walletRepo)

	source := container(domain.ContainerKindSafe)
	dest := container(domain.ContainerKindCollector)

	walletRepo.On("GetContainer", mock.Anything, source.ID).Return(source, nil)
	walletRepo.On("GetContainer", mock.Anything, dest.ID).Return(dest, nil)
	walletRepo.On("PostPair", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("deadline exceeded on destination lock"))

	result, err := svc.Transfer(context.Background(), &domain.TransferRequest{
		SourceContainerID: source.ID,
		DestContainerID:   dest.ID,
		Amount:            decimal.RequireFromString("75"),
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	// The single-leg primitive is never used as a fallback.
	walletRepo.AssertNotCalled(t, "Post", mock.Anything, mock.Anything)
}
