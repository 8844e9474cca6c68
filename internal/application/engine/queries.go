package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/application/dtos"
	"github.com/Haleralex/coinvault/internal/domain/errors"
)

// Read queries run on the pool without a UnitOfWork: each one is a consistent
// snapshot of committed state and never blocks behind wallet locks.

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// GetBalance returns the current balance for one (account, asset) pair.
func (s *Service) GetBalance(ctx context.Context, accountID, assetTypeID uuid.UUID) (*dtos.BalanceResponse, error) {
	account, err := s.activeAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	asset, err := s.activeAssetType(ctx, assetTypeID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.FindByAccountAndAsset(ctx, account.ID, asset.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.WalletNotFoundError{AccountID: accountID, AssetTypeID: assetTypeID}
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	return &dtos.BalanceResponse{
		AccountID: account.ID,
		Username:  account.Username,
		AssetType: asset.Name,
		Symbol:    asset.Symbol,
		Balance:   wallet.Balance,
	}, nil
}

// GetTransactionHistory returns a page of a wallet's ledger, newest first,
// plus the total entry count for pagination.
func (s *Service) GetTransactionHistory(ctx context.Context, q dtos.HistoryQuery) (*dtos.TransactionListResponse, error) {
	// Limit == 0 означает "не задан". Явный ноль отсекается на HTTP слое.
	limit := q.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit < 1 || limit > maxHistoryLimit {
		return nil, errors.ValidationError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxHistoryLimit)}
	}
	offset := q.Offset
	if offset < 0 {
		return nil, errors.ValidationError{Field: "offset", Message: "must not be negative"}
	}

	account, err := s.activeAccount(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	asset, err := s.activeAssetType(ctx, q.AssetTypeID)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.FindByAccountAndAsset(ctx, account.ID, asset.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, &errors.WalletNotFoundError{AccountID: q.AccountID, AssetTypeID: q.AssetTypeID}
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	entries, err := s.ledger.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := s.ledger.CountByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return &dtos.TransactionListResponse{
		AccountID:    account.ID,
		AssetType:    asset.Name,
		Transactions: dtos.ToTransactionOuts(entries),
		Total:        total,
	}, nil
}

// ListAssetTypes returns all active virtual currencies.
func (s *Service) ListAssetTypes(ctx context.Context) ([]dtos.AssetTypeOut, error) {
	assets, err := s.assets.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	return dtos.ToAssetTypeOuts(assets), nil
}

// ListAccounts returns active accounts, optionally including system ones.
func (s *Service) ListAccounts(ctx context.Context, includeSystem bool) ([]dtos.AccountOut, error) {
	accounts, err := s.accounts.ListActive(ctx, includeSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return dtos.ToAccountOuts(accounts), nil
}
