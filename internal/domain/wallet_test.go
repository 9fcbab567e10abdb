package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSignForType(t *testing.T) {
	tests := []struct {
		name         string
		kind         string
		txType       string
		expectedSign int
		allowed      bool
	}{
		{name: "safe deposit", kind: ContainerKindSafe, txType: TxTypeDeposit, expectedSign: +1, allowed: true},
		{name: "safe withdrawal", kind: ContainerKindSafe, txType: TxTypeWithdrawal, expectedSign: -1, allowed: true},
		{name: "safe expense", kind: ContainerKindSafe, txType: TxTypeExpense, expectedSign: -1, allowed: true},
		{name: "safe transfer to collector", kind: ContainerKindSafe, txType: TxTypeTransferToCollector, expectedSign: -1, allowed: true},
		{name: "safe transfer from collector", kind: ContainerKindSafe, txType: TxTypeTransferFromCollector, expectedSign: +1, allowed: true},
		{name: "safe transfer to safe", kind: ContainerKindSafe, txType: TxTypeTransferToSafe, expectedSign: -1, allowed: true},
		{name: "safe transfer from safe", kind: ContainerKindSafe, txType: TxTypeTransferFromSafe, expectedSign: +1, allowed: true},
		{name: "collector collection", kind: ContainerKindCollector, txType: TxTypeCollection, expectedSign: +1, allowed: true},
		{name: "collector withdrawal", kind: ContainerKindCollector, txType: TxTypeWithdrawal, expectedSign: -1, allowed: true},
		{name: "collector route expense", kind: ContainerKindCollector, txType: TxTypeRouteExpense, expectedSign: -1, allowed: true},
		{name: "collector disbursement", kind: ContainerKindCollector, txType: TxTypeLoanDisbursement, expectedSign: -1, allowed: true},
		{name: "collector cash adjustment carries own sign", kind: ContainerKindCollector, txType: TxTypeCashAdjustment, expectedSign: 0, allowed: true},
		{name: "collector payment reset", kind: ContainerKindCollector, txType: TxTypePaymentReset, expectedSign: -1, allowed: true},
		{name: "wallet deposit", kind: ContainerKindWallet, txType: TxTypeDeposit, expectedSign: +1, allowed: true},
		{name: "wallet transfer out", kind: ContainerKindWallet, txType: TxTypeTransferOut, expectedSign: -1, allowed: true},
		{name: "wallet transfer in", kind: ContainerKindWallet, txType: TxTypeTransferIn, expectedSign: +1, allowed: true},
		{name: "collection not allowed on safe", kind: ContainerKindSafe, txType: TxTypeCollection, allowed: false},
		{name: "expense not allowed on wallet", kind: ContainerKindWallet, txType: TxTypeExpense, allowed: false},
		{name: "deposit not allowed on collector", kind: ContainerKindCollector, txType: TxTypeDeposit, allowed: false},
		{name: "unknown kind", kind: "vault", txType: TxTypeDeposit, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sign, ok := SignForType(tt.kind, tt.txType)
			assert.Equal(t, tt.allowed, ok)
			if tt.allowed {
				assert.Equal(t, tt.expectedSign, sign)
			}
		})
	}
}

func TestBuildTransactionRecordsBalances(t *testing.T) {
	container := &Container{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Kind:    ContainerKindSafe,
		Balance: NewMoney(50000), // 500.00
	}

	// Safe at 500 withdraws 700: allowed, lands at -200.
	posted := BuildTransaction(container, &Draft{
		ContainerID: container.ID,
		Type:        TxTypeWithdrawal,
		Amount:      NewMoney(70000),
		Signed:      NewMoney(-70000),
		Description: "field advance",
	}, time.Now())

	assert.Equal(t, NewMoney(50000), posted.BalanceBefore)
	assert.Equal(t, NewMoney(-20000), posted.BalanceAfter)
	assert.Equal(t, NewMoney(70000), posted.Amount)
	assert.Equal(t, container.ID, posted.ContainerID)
	assert.NotEqual(t, uuid.Nil, posted.ID)
}

// Conservation: replaying a container's transactions from zero reproduces
// the running balance after every posting.
func TestPostingSequenceConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	container := &Container{ID: uuid.New(), Kind: ContainerKindCollector}

	types := []struct {
		txType string
		sign   int
	}{
		{TxTypeCollection, +1},
		{TxTypeWithdrawal, -1},
		{TxTypeRouteExpense, -1},
		{TxTypeLoanDisbursement, -1},
		{TxTypePaymentReset, -1},
		{TxTypeCashAdjustment, 0},
	}

	var history []*Transaction
	for i := 0; i < 500; i++ {
		pick := types[rng.Intn(len(types))]
		magnitude := NewMoney(int64(rng.Intn(100000) + 1))

		signed := magnitude
		if pick.sign < 0 {
			signed = magnitude.Neg()
		}
		if pick.sign == 0 && rng.Intn(2) == 0 {
			signed = magnitude.Neg()
		}

		posted := BuildTransaction(container, &Draft{
			ContainerID: container.ID,
			Type:        pick.txType,
			Amount:      magnitude,
			Signed:      signed,
		}, time.Now())

		assert.Equal(t, container.Balance, posted.BalanceBefore)
		assert.Equal(t, container.Balance.Add(signed), posted.BalanceAfter)

		container.Balance = posted.BalanceAfter
		history = append(history, posted)

		assert.Equal(t, container.Balance, Replay(history),
			"replay diverged from cached balance at posting %d", i)
	}
}
