// Package errors defines the closed set of domain error kinds for the wallet
// service. Using typed errors (instead of strings) lets the HTTP layer map
// each kind to a stable error code and status without string matching.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors shared across repositories and the engine.
var (
	// ErrEntityNotFound is returned by repositories when a row does not exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrIdempotencyRace is returned when storing an idempotency record loses
	// a uniqueness race to a concurrent request with the same key. The engine
	// retries the whole operation; the retry is expected to find the cached
	// response written by the winner.
	ErrIdempotencyRace = errors.New("idempotency key inserted concurrently")

	// ErrUsernameTaken / ErrEmailTaken are registration conflicts.
	ErrUsernameTaken = errors.New("username already exists")
	ErrEmailTaken    = errors.New("email already registered")

	// ErrInvalidCredentials is returned on failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountInactive is returned when a deactivated account authenticates.
	ErrAccountInactive = errors.New("account is deactivated")
)

// InsufficientFundsError - списание превышает доступный баланс кошелька.
// Carries the payload the client needs to render a useful message.
type InsufficientFundsError struct {
	Balance     decimal.Decimal
	Requested   decimal.Decimal
	AssetSymbol string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: wallet has %s %s, but %s %s were requested",
		e.Balance.String(), e.AssetSymbol, e.Requested.String(), e.AssetSymbol,
	)
}

// NewInsufficientFunds creates an InsufficientFundsError.
func NewInsufficientFunds(balance, requested decimal.Decimal, assetSymbol string) *InsufficientFundsError {
	return &InsufficientFundsError{Balance: balance, Requested: requested, AssetSymbol: assetSymbol}
}

// WalletNotFoundError - нет кошелька для пары (account, asset).
type WalletNotFoundError struct {
	AccountID   uuid.UUID
	AssetTypeID uuid.UUID
}

func (e *WalletNotFoundError) Error() string {
	return fmt.Sprintf(
		"no wallet found for account=%s, asset_type=%s: ensure the account exists and has been initialized",
		e.AccountID, e.AssetTypeID,
	)
}

// AccountNotFoundError - аккаунт не существует или деактивирован.
type AccountNotFoundError struct {
	AccountID string // id or "system:<username>" for system accounts
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account not found: %s", e.AccountID)
}

// AssetTypeNotFoundError - тип актива не существует или неактивен.
type AssetTypeNotFoundError struct {
	AssetTypeID uuid.UUID
}

func (e *AssetTypeNotFoundError) Error() string {
	return fmt.Sprintf("asset type not found or inactive: %s", e.AssetTypeID)
}

// IdempotencyConflictError - ключ идемпотентности уже использован для другого
// endpoint. This indicates a programming error on the caller side.
type IdempotencyConflictError struct {
	Key string
}

func (e *IdempotencyConflictError) Error() string {
	return fmt.Sprintf("idempotency key %q was already used for a different endpoint", e.Key)
}

// NegativeBalanceError - safety net: a write would push a balance below zero.
// The engine pre-checks balances, so hitting this (or the database CHECK
// constraint behind it) is a data-integrity violation, not a client error.
type NegativeBalanceError struct {
	WalletID         uuid.UUID
	ResultingBalance decimal.Decimal
}

func (e *NegativeBalanceError) Error() string {
	return fmt.Sprintf(
		"transaction rejected: wallet %s would have a negative balance of %s",
		e.WalletID, e.ResultingBalance.String(),
	)
}

// ValidationError represents a request-shape failure with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// Helper functions for common error checking.

// IsNotFound reports whether err is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var e *InsufficientFundsError
	return errors.As(err, &e)
}

// IsWalletNotFound reports whether err is a WalletNotFoundError.
func IsWalletNotFound(err error) bool {
	var e *WalletNotFoundError
	return errors.As(err, &e)
}

// IsIdempotencyConflict reports whether err is an IdempotencyConflictError.
func IsIdempotencyConflict(err error) bool {
	var e *IdempotencyConflictError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}
