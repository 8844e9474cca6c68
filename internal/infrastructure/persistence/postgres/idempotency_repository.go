// Package postgres - IdempotencyRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.IdempotencyRepository = (*IdempotencyRepository)(nil)

// IdempotencyRepository реализует ports.IdempotencyRepository.
//
// UNIQUE constraint на key - арбитр гонок: из двух конкурентных запросов с
// одним ключом только один вставит запись, второй получит ErrIdempotencyRace.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository создаёт новый IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

func (r *IdempotencyRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// FindByKey возвращает запись по ключу независимо от endpoint.
func (r *IdempotencyRepository) FindByKey(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	q := r.getQuerier(ctx)

	var record entities.IdempotencyRecord
	err := q.QueryRow(ctx,
		`SELECT id, key, endpoint, response_body, created_at, expires_at
		 FROM idempotency_keys WHERE key = $1`, key).
		Scan(
			&record.ID,
			&record.Key,
			&record.Endpoint,
			&record.ResponseBody,
			&record.CreatedAt,
			&record.ExpiresAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find idempotency record: %w", err)
	}

	return &record, nil
}

// Insert сохраняет новую запись. Нарушение UNIQUE на key превращается в
// ErrIdempotencyRace для retry в движке.
func (r *IdempotencyRepository) Insert(ctx context.Context, record *entities.IdempotencyRecord) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO idempotency_keys (id, key, endpoint, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		record.ID,
		record.Key,
		record.Endpoint,
		record.ResponseBody,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err, "idempotency_keys_key") {
			return domainErrors.ErrIdempotencyRace
		}
		return fmt.Errorf("failed to insert idempotency record: %w", err)
	}

	return nil
}

// Delete удаляет запись по ключу (lazy pruning истёкших ключей).
func (r *IdempotencyRepository) Delete(ctx context.Context, key string) error {
	q := r.getQuerier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete idempotency record: %w", err)
	}
	return nil
}
