package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds the running balance for one (account, asset_type) pair.
//
// The balance is a denormalized, always-up-to-date snapshot; the source of
// truth is the ledger (transactions table), but we keep the snapshot for
// O(1) balance reads. `balance >= 0` is enforced twice: by the engine before
// writing, and by a database CHECK constraint as the ultimate guarantee.
// Version increases monotonically on every balance change and serves as an
// audit counter.
type Wallet struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	AssetTypeID uuid.UUID
	Balance     decimal.Decimal
	Version     int64
	UpdatedAt   time.Time
}

// NewWallet creates an empty wallet for the given account and asset.
func NewWallet(accountID, assetTypeID uuid.UUID) *Wallet {
	return &Wallet{
		ID:          uuid.New(),
		AccountID:   accountID,
		AssetTypeID: assetTypeID,
		Balance:     decimal.Zero,
		Version:     0,
		UpdatedAt:   time.Now().UTC(),
	}
}
