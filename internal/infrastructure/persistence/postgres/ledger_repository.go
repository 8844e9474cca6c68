// Package postgres - LedgerRepository implementation (append-only).
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
var _ ports.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository реализует ports.LedgerRepository.
//
// Леджер append-only: UPDATE и DELETE намеренно отсутствуют. Исправления
// делаются компенсирующими записями (REFUND, ADJUSTMENT).
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository создаёт новый LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const ledgerColumns = `id, reference_id, transaction_type, wallet_id,
	amount::text, balance_after::text, description, idempotency_key, metadata::text, created_at`

// Insert добавляет одну запись леджера.
func (r *LedgerRepository) Insert(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transactions (
			id, reference_id, transaction_type, wallet_id,
			amount, balance_after, description, idempotency_key, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := q.Exec(ctx, query,
		tx.ID,
		tx.ReferenceID,
		string(tx.Type),
		tx.WalletID,
		tx.Amount.String(),
		tx.BalanceAfter.String(),
		nullIfEmpty(tx.Description),
		nullIfEmpty(tx.IdempotencyKey),
		nullIfEmpty(tx.Metadata),
		tx.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrEntityNotFound
		}
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// ListByWallet возвращает записи кошелька, новые первыми.
func (r *LedgerRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	rows, err := q.Query(ctx,
		`SELECT `+ledgerColumns+` FROM transactions
		 WHERE wallet_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerRows(rows)
}

// CountByWallet возвращает число записей кошелька.
func (r *LedgerRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	q := r.getQuerier(ctx)

	var count int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, walletID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

// FindByReference возвращает обе записи одной двойной проводки.
func (r *LedgerRepository) FindByReference(ctx context.Context, referenceID uuid.UUID) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	rows, err := q.Query(ctx,
		`SELECT `+ledgerColumns+` FROM transactions
		 WHERE reference_id = $1
		 ORDER BY created_at, id`,
		referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries by reference: %w", err)
	}
	defer rows.Close()

	return scanLedgerRows(rows)
}

func scanLedgerRows(rows pgx.Rows) ([]*entities.Transaction, error) {
	var entries []*entities.Transaction
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*entities.Transaction, error) {
	var (
		entry          entities.Transaction
		txType         string
		amount         string
		balanceAfter   string
		description    *string
		idempotencyKey *string
		metadata       *string
	)

	err := row.Scan(
		&entry.ID,
		&entry.ReferenceID,
		&txType,
		&entry.WalletID,
		&amount,
		&balanceAfter,
		&description,
		&idempotencyKey,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	entry.Type = entities.TransactionType(txType)
	entry.Description = stringOrEmpty(description)
	entry.IdempotencyKey = stringOrEmpty(idempotencyKey)
	entry.Metadata = stringOrEmpty(metadata)

	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", amount, err)
	}
	if entry.BalanceAfter, err = decimal.NewFromString(balanceAfter); err != nil {
		return nil, fmt.Errorf("failed to parse balance_after %q: %w", balanceAfter, err)
	}
	return &entry, nil
}
