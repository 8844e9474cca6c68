// Package postgres - WalletRepository implementation with pessimistic locking.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository.
//
// Особенности:
// - Pessimistic Locking через SELECT ... FOR UPDATE
// - Balance хранится как NUMERIC(20, 4), в Go - decimal.Decimal
// - CHECK (balance >= 0) дублирует проверку движка на уровне БД
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const walletColumns = `id, account_id, asset_type_id, balance::text, version, updated_at`

// Create вставляет новый кошелёк.
func (r *WalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO wallets (id, account_id, asset_type_id, balance, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID,
		wallet.AccountID,
		wallet.AssetTypeID,
		wallet.Balance.String(),
		wallet.Version,
		wallet.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "wallets_account_asset") {
			return fmt.Errorf("wallet already exists for account=%s asset_type=%s",
				wallet.AccountID, wallet.AssetTypeID)
		}
		if isForeignKeyViolation(err) {
			return domainErrors.ErrEntityNotFound
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

// FindByAccountAndAsset возвращает кошелёк без блокировки.
func (r *WalletRepository) FindByAccountAndAsset(ctx context.Context, accountID, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE account_id = $1 AND asset_type_id = $2`,
		accountID, assetTypeID)
	return scanWallet(row)
}

// LockByAccountAndAsset захватывает row lock на кошелёк (SELECT ... FOR UPDATE).
//
// Конкурентный вызов на тот же кошелёк блокируется до конца текущей
// транзакции. Вызывать только внутри UnitOfWork.Execute.
func (r *WalletRepository) LockByAccountAndAsset(ctx context.Context, accountID, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	if !hasTx(ctx) {
		return nil, fmt.Errorf("LockByAccountAndAsset requires a transaction")
	}
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE account_id = $1 AND asset_type_id = $2 FOR UPDATE`,
		accountID, assetTypeID)
	return scanWallet(row)
}

// UpdateBalance сохраняет баланс, версию и updated_at кошелька.
func (r *WalletRepository) UpdateBalance(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE wallets
		SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		wallet.ID,
		wallet.Balance.String(),
		wallet.Version,
		wallet.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err, "balance_non_negative") {
			return &domainErrors.NegativeBalanceError{
				WalletID:         wallet.ID,
				ResultingBalance: wallet.Balance,
			}
		}
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// scanWallet читает одну строку wallets. Balance приходит текстом и
// парсится в decimal без потери точности.
func scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		wallet  entities.Wallet
		balance string
	)

	err := row.Scan(
		&wallet.ID,
		&wallet.AccountID,
		&wallet.AssetTypeID,
		&balance,
		&wallet.Version,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	wallet.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet balance %q: %w", balance, err)
	}
	return &wallet, nil
}
