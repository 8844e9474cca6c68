// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
// - Один UnitOfWork.Execute = одна БД-транзакция
// - Автоматический ROLLBACK при ошибке, COMMIT при успехе
package ports

import "context"

// UnitOfWork defines the transaction boundary contract.
//
// Every mutating wallet flow runs inside exactly one Execute call: the
// idempotency lookup, wallet locks, balance updates, ledger appends and the
// idempotency store either all commit or all roll back. Repositories called
// with the context passed to fn participate in the same transaction.
type UnitOfWork interface {
	// Execute runs fn inside a store transaction.
	//
	// Behaviour:
	// - begins a transaction and injects it into the context passed to fn
	// - fn returns nil  → COMMIT
	// - fn returns error → ROLLBACK, the error is returned unchanged
	// - panic inside fn → ROLLBACK, then re-panic
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
