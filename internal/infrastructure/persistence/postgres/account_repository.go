// Package postgres - AccountRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.AccountRepository = (*AccountRepository)(nil)

// AccountRepository реализует ports.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository создаёт новый AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// getQuerier возвращает querier из context (transaction) или pool.
func (r *AccountRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const accountColumns = `id, username, email, hashed_password, is_system, is_active, created_at`

// Create вставляет новый аккаунт.
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO accounts (id, username, email, hashed_password, is_system, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		account.ID,
		account.Username,
		nullIfEmpty(account.Email),
		nullIfEmpty(account.HashedPassword),
		account.IsSystem,
		account.IsActive,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "accounts_username") {
			return domainErrors.ErrUsernameTaken
		}
		if isUniqueViolation(err, "accounts_email") {
			return domainErrors.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// FindByID возвращает аккаунт по id.
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByUsername возвращает аккаунт по username.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*entities.Account, error) {
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// FindSystemByUsername возвращает системный аккаунт по well-known username.
func (r *AccountRepository) FindSystemByUsername(ctx context.Context, username string) (*entities.Account, error) {
	q := r.getQuerier(ctx)

	row := q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1 AND is_system = TRUE`, username)
	return scanAccount(row)
}

// ListActive возвращает активные аккаунты, отсортированные по дате создания.
func (r *AccountRepository) ListActive(ctx context.Context, includeSystem bool) ([]*entities.Account, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_active = TRUE`
	if !includeSystem {
		query += ` AND is_system = FALSE`
	}
	query += ` ORDER BY created_at`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entities.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// scanAccount читает одну строку accounts.
func scanAccount(row pgx.Row) (*entities.Account, error) {
	var (
		account        entities.Account
		email          *string
		hashedPassword *string
	)

	err := row.Scan(
		&account.ID,
		&account.Username,
		&email,
		&hashedPassword,
		&account.IsSystem,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.Email = stringOrEmpty(email)
	account.HashedPassword = stringOrEmpty(hashedPassword)
	return &account, nil
}
