// Package postgres - UnitOfWork implementation для PostgreSQL.
//
// Usage:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, _ := walletRepo.LockByAccountAndAsset(txCtx, accountID, assetID)
//	    // мутации через txCtx
//	    return nil // COMMIT
//	    // return err // ROLLBACK
//	})
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
)

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork реализует ports.UnitOfWork с PostgreSQL транзакциями.
//
// READ COMMITTED достаточно: сериализацию конкурентных писателей дают
// row-level locks (SELECT ... FOR UPDATE), а не уровень изоляции.
type UnitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewUnitOfWork создаёт новый UnitOfWork.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		pool: pool,
		opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted},
	}
}

// Execute выполняет функцию внутри транзакции.
//
// Поведение:
// - fn возвращает nil  → COMMIT
// - fn возвращает error → ROLLBACK, ошибка возвращается без изменений
// - panic внутри fn → ROLLBACK + re-panic
//
// Вложенный Execute (context уже несёт транзакцию) просто выполняет fn:
// PostgreSQL не поддерживает настоящие вложенные транзакции.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	if hasTx(ctx) {
		return fn(ctx)
	}

	tx, err := u.pool.BeginTx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(injectTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
