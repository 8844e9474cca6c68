package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tags a ledger entry with the business flow that created it.
type TransactionType string

const (
	TransactionTypeTopUp      TransactionType = "TOPUP"      // user buys credits (real money → virtual credits)
	TransactionTypeBonus      TransactionType = "BONUS"      // system gives free credits
	TransactionTypeSpend      TransactionType = "SPEND"      // user spends credits inside the app
	TransactionTypeRefund     TransactionType = "REFUND"     // credits returned to user (no endpoint yet)
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT" // admin correction (no endpoint yet)
)

// IsValid checks if the transaction type is one of the known flows.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopUp, TransactionTypeBonus, TransactionTypeSpend,
		TransactionTypeRefund, TransactionTypeAdjustment:
		return true
	default:
		return false
	}
}

// Transaction is one immutable double-entry ledger record.
//
// Every business event produces exactly two entries sharing one ReferenceID:
// a debit on the source wallet (negative amount) and a credit on the
// destination wallet (positive amount). The signed amounts of a reference
// group always sum to zero — the ledger is self-balancing. Entries are
// appended inside the enclosing store transaction and never updated.
type Transaction struct {
	ID             uuid.UUID
	ReferenceID    uuid.UUID // groups the debit+credit pair of one event
	Type           TransactionType
	WalletID       uuid.UUID
	Amount         decimal.Decimal // positive = credit, negative = debit
	BalanceAfter   decimal.Decimal
	Description    string
	IdempotencyKey string // optional, client-supplied
	Metadata       string // JSON string for extra data, empty when none
	CreatedAt      time.Time
}

// NewLedgerEntry creates a ledger entry with a fresh id. The caller supplies
// the signed amount and the recomputed balance after applying it.
func NewLedgerEntry(
	referenceID uuid.UUID,
	txType TransactionType,
	walletID uuid.UUID,
	amount decimal.Decimal,
	balanceAfter decimal.Decimal,
	description string,
	idempotencyKey string,
	metadata string,
) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		ReferenceID:    referenceID,
		Type:           txType,
		WalletID:       walletID,
		Amount:         amount,
		BalanceAfter:   balanceAfter,
		Description:    description,
		IdempotencyKey: idempotencyKey,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
}
