package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Container kinds. One container per owner per kind.
const (
	ContainerKindSafe      = "safe"
	ContainerKindCollector = "collector"
	ContainerKindWallet    = "wallet"
)

// Transaction types. Sign is derived from the type, never passed in by
// callers; cash_adjustment is the single exception and carries its own sign.
const (
	TxTypeDeposit               = "deposit"
	TxTypeWithdrawal            = "withdrawal"
	TxTypeExpense               = "expense"
	TxTypeTransferToCollector   = "transfer_to_collector"
	TxTypeTransferFromCollector = "transfer_from_collector"
	TxTypeTransferToSafe        = "transfer_to_safe"
	TxTypeTransferFromSafe      = "transfer_from_safe"
	TxTypeCollection            = "collection"
	TxTypeRouteExpense          = "route_expense"
	TxTypeLoanDisbursement      = "loan_disbursement"
	TxTypeCashAdjustment        = "cash_adjustment"
	TxTypePaymentReset          = "payment_reset"
	TxTypeTransferOut           = "transfer_out"
	TxTypeTransferIn            = "transfer_in"
)

// typeSigns maps each container kind to its allowed transaction types and
// the sign each applies to the balance. 0 marks the signed-magnitude
// exception (cash_adjustment).
var typeSigns = map[string]map[string]int{
	ContainerKindSafe: {
		TxTypeDeposit:               +1,
		TxTypeWithdrawal:            -1,
		TxTypeExpense:               -1,
		TxTypeTransferToCollector:   -1,
		TxTypeTransferFromCollector: +1,
		TxTypeTransferToSafe:        -1,
		TxTypeTransferFromSafe:      +1,
	},
	ContainerKindCollector: {
		TxTypeCollection:       +1,
		TxTypeWithdrawal:       -1,
		TxTypeRouteExpense:     -1,
		TxTypeLoanDisbursement: -1,
		TxTypeCashAdjustment:   0,
		TxTypePaymentReset:     -1,
	},
	ContainerKindWallet: {
		TxTypeDeposit:     +1,
		TxTypeTransferOut: -1,
		TxTypeTransferIn:  +1,
	},
}

// SignForType returns the balance sign a transaction type applies for a
// container kind. ok is false when the type is outside the kind's
// vocabulary. A zero sign means the magnitude carries its own sign.
func SignForType(kind, txType string) (sign int, ok bool) {
	vocab, ok := typeSigns[kind]
	if !ok {
		return 0, false
	}
	sign, ok = vocab[txType]
	return sign, ok
}

// Container is a named, owned balance ledger (safe, collector wallet or
// primary wallet). Balance is mutated exclusively through ledger postings
// and has no floor: negative balances are a valid state, not an error.
type Container struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Kind      string    `json:"kind" db:"kind"`
	Balance   Money     `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Transaction is one append-only posting against a container. Amount is the
// unsigned magnitude; Signed is the delta actually applied to the balance.
// Replaying all of a container's transactions in creation order from zero
// must reproduce its current balance exactly.
type Transaction struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	ContainerID        uuid.UUID  `json:"container_id" db:"container_id"`
	Type               string     `json:"type" db:"type"`
	Amount             Money      `json:"amount" db:"amount"`
	Signed             Money      `json:"signed" db:"signed"`
	BalanceBefore      Money      `json:"balance_before" db:"balance_before"`
	BalanceAfter       Money      `json:"balance_after" db:"balance_after"`
	Description        string     `json:"description" db:"description"`
	RelatedContainerID *uuid.UUID `json:"related_container_id,omitempty" db:"related_container_id"`
	RelatedUserID      *uuid.UUID `json:"related_user_id,omitempty" db:"related_user_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Draft is a posting not yet applied to a container.
type Draft struct {
	ContainerID        uuid.UUID
	Type               string
	Amount             Money // unsigned magnitude
	Signed             Money // delta applied to the balance
	Description        string
	RelatedContainerID *uuid.UUID
	RelatedUserID      *uuid.UUID
}

// BuildTransaction applies a draft to a container's current balance and
// returns the resulting transaction. The caller must hold the container's
// lock; this is the single place posting math lives so the repository and
// the replay check cannot drift apart.
func BuildTransaction(c *Container, d *Draft, now time.Time) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		ContainerID:        c.ID,
		Type:               d.Type,
		Amount:             d.Amount,
		Signed:             d.Signed,
		BalanceBefore:      c.Balance,
		BalanceAfter:       c.Balance.Add(d.Signed),
		Description:        d.Description,
		RelatedContainerID: d.RelatedContainerID,
		RelatedUserID:      d.RelatedUserID,
		CreatedAt:          now,
	}
}

// Replay folds a container's transactions from a zero balance. Used by the
// conservation checks.
func Replay(txs []*Transaction) Money {
	var balance Money
	for _, tx := range txs {
		balance = balance.Add(tx.Signed)
	}
	return balance
}

// DTOs for requests and responses

type EnsureContainerRequest struct {
	OwnerID uuid.UUID `json:"owner_id" validate:"required"`
	Kind    string    `json:"kind" validate:"required,oneof=safe collector wallet"`
}

type PostTransactionRequest struct {
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
}

type TransferRequest struct {
	SourceContainerID uuid.UUID       `json:"source_container_id" validate:"required"`
	DestContainerID   uuid.UUID       `json:"dest_container_id" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	Description       string          `json:"description"`
}

type TransferResponse struct {
	Outgoing *Transaction `json:"outgoing"`
	Incoming *Transaction `json:"incoming"`
}

type HistoryResponse struct {
	ContainerID  uuid.UUID       `json:"container_id"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []*Transaction  `json:"transactions"`
	Page         int             `json:"page"`
	PerPage      int             `json:"per_page"`
	TotalCount   int             `json:"total_count"`
}
