// Package dtos contains the commands, queries and response shapes exchanged
// between the HTTP adapters and the transaction engine. The boundary parses
// and validates raw input (uuids, positive decimals) before a command is
// built, so the engine only ever sees well-formed values.
package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ============================================
// Mutating Commands
// ============================================

// TopUpCommand credits a user wallet from the Treasury.
// The real-money payment is assumed to have been processed externally.
type TopUpCommand struct {
	UserAccountID    uuid.UUID
	AssetTypeID      uuid.UUID
	Amount           decimal.Decimal // strictly positive
	PaymentReference string          // external payment gateway reference
	Description      string
	IdempotencyKey   string // optional, from the Idempotency-Key header
}

// BonusCommand credits a user wallet from the Bonus Pool.
type BonusCommand struct {
	UserAccountID  uuid.UUID
	AssetTypeID    uuid.UUID
	Amount         decimal.Decimal
	Reason         string
	Description    string
	IdempotencyKey string
}

// SpendCommand debits a user wallet into the Revenue wallet.
type SpendCommand struct {
	UserAccountID  uuid.UUID
	AssetTypeID    uuid.UUID
	Amount         decimal.Decimal
	ItemReference  string // internal reference for the purchased item/service
	Description    string
	IdempotencyKey string
}

// ============================================
// Queries
// ============================================

// HistoryQuery selects a page of a wallet's ledger.
type HistoryQuery struct {
	AccountID   uuid.UUID
	AssetTypeID uuid.UUID
	Limit       int // 1..100
	Offset      int // >= 0
}

// ============================================
// Responses
// ============================================

// TransactionResponse is the body of every successful mutating operation.
// The engine marshals it once; the same bytes are cached under the
// idempotency key and replays return them verbatim.
type TransactionResponse struct {
	Status          string          `json:"status"`
	ReferenceID     uuid.UUID       `json:"reference_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Message         string          `json:"message"`
}

// BalanceResponse answers a balance query.
type BalanceResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Username  string          `json:"username"`
	AssetType string          `json:"asset_type"`
	Symbol    string          `json:"symbol"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransactionOut is one ledger entry in a history listing.
type TransactionOut struct {
	ID              uuid.UUID       `json:"id"`
	ReferenceID     uuid.UUID       `json:"reference_id"`
	TransactionType string          `json:"transaction_type"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	Description     string          `json:"description,omitempty"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// TransactionListResponse is a paginated history page plus the total count.
type TransactionListResponse struct {
	AccountID    uuid.UUID        `json:"account_id"`
	AssetType    string           `json:"asset_type"`
	Transactions []TransactionOut `json:"transactions"`
	Total        int64            `json:"total"`
}

// AssetTypeOut describes one virtual currency.
type AssetTypeOut struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// AccountOut describes one account.
type AccountOut struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsSystem  bool      `json:"is_system"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
