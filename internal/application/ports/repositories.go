// Package ports defines the interfaces between the application layer and
// infrastructure (Dependency Inversion: the engine depends on these
// abstractions, postgres implements them).
//
// Transaction scope: every method takes a context. When the context carries
// a store transaction (injected by UnitOfWork), the repository must use it;
// otherwise it runs on the pool. This gives the engine read-your-own-writes
// inside a flow without the repositories knowing about transaction
// management.
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/domain/entities"
)

// AccountRepository provides access to user and system accounts.
type AccountRepository interface {
	// Create inserts a new account. Returns domain errors.ErrUsernameTaken /
	// ErrEmailTaken on uniqueness violations.
	Create(ctx context.Context, account *entities.Account) error

	// FindByID returns the account or errors.ErrEntityNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)

	// FindByUsername returns the account or errors.ErrEntityNotFound.
	FindByUsername(ctx context.Context, username string) (*entities.Account, error)

	// FindSystemByUsername returns the system account with the given
	// well-known username, or errors.ErrEntityNotFound.
	FindSystemByUsername(ctx context.Context, username string) (*entities.Account, error)

	// ListActive returns active accounts, optionally including system ones.
	ListActive(ctx context.Context, includeSystem bool) ([]*entities.Account, error)
}

// AssetTypeRepository provides access to virtual currency definitions.
type AssetTypeRepository interface {
	// FindByID returns the asset type or errors.ErrEntityNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AssetType, error)

	// ListActive returns all active asset types.
	ListActive(ctx context.Context) ([]*entities.AssetType, error)
}

// WalletRepository provides access to wallet balance snapshots.
type WalletRepository interface {
	// Create inserts a new wallet row.
	Create(ctx context.Context, wallet *entities.Wallet) error

	// FindByAccountAndAsset returns the wallet without locking it, or
	// errors.ErrEntityNotFound.
	FindByAccountAndAsset(ctx context.Context, accountID, assetTypeID uuid.UUID) (*entities.Wallet, error)

	// LockByAccountAndAsset acquires a pessimistic row lock
	// (SELECT ... FOR UPDATE) on the wallet and returns it. The lock is held
	// until the enclosing transaction ends, serialising concurrent writers.
	// Must be called inside a UnitOfWork transaction.
	LockByAccountAndAsset(ctx context.Context, accountID, assetTypeID uuid.UUID) (*entities.Wallet, error)

	// UpdateBalance persists the wallet's balance, version and updated_at.
	// A violation of the non-negative balance CHECK constraint is surfaced
	// as *errors.NegativeBalanceError.
	UpdateBalance(ctx context.Context, wallet *entities.Wallet) error
}

// LedgerRepository appends and reads immutable double-entry ledger records.
type LedgerRepository interface {
	// Insert appends one ledger entry. Entries are never updated or deleted.
	Insert(ctx context.Context, tx *entities.Transaction) error

	// ListByWallet returns entries for a wallet ordered by created_at DESC,
	// paginated by limit/offset.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entities.Transaction, error)

	// CountByWallet returns the total number of entries for a wallet.
	CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error)

	// FindByReference returns all entries sharing a reference id.
	FindByReference(ctx context.Context, referenceID uuid.UUID) ([]*entities.Transaction, error)
}

// IdempotencyRepository persists request outcomes keyed by idempotency key.
type IdempotencyRepository interface {
	// FindByKey returns the record for a key regardless of endpoint, or
	// errors.ErrEntityNotFound.
	FindByKey(ctx context.Context, key string) (*entities.IdempotencyRecord, error)

	// Insert stores a new record. A unique-constraint violation on the key
	// (a concurrent duplicate) is surfaced as errors.ErrIdempotencyRace so
	// the engine can retry into the cached-response path.
	Insert(ctx context.Context, record *entities.IdempotencyRecord) error

	// Delete removes a record by key. Used for lazy pruning of expired keys.
	Delete(ctx context.Context, key string) error
}
