package dtos

import (
	"github.com/Haleralex/coinvault/internal/domain/entities"
)

// ToTransactionOut converts a ledger entry to its listing shape.
func ToTransactionOut(tx *entities.Transaction) TransactionOut {
	return TransactionOut{
		ID:              tx.ID,
		ReferenceID:     tx.ReferenceID,
		TransactionType: string(tx.Type),
		WalletID:        tx.WalletID,
		Amount:          tx.Amount,
		BalanceAfter:    tx.BalanceAfter,
		Description:     tx.Description,
		IdempotencyKey:  tx.IdempotencyKey,
		CreatedAt:       tx.CreatedAt,
	}
}

// ToTransactionOuts maps a ledger page.
func ToTransactionOuts(txs []*entities.Transaction) []TransactionOut {
	out := make([]TransactionOut, 0, len(txs))
	for _, tx := range txs {
		out = append(out, ToTransactionOut(tx))
	}
	return out
}

// ToAssetTypeOut converts an asset type entity.
func ToAssetTypeOut(a *entities.AssetType) AssetTypeOut {
	return AssetTypeOut{
		ID:          a.ID,
		Name:        a.Name,
		Symbol:      a.Symbol,
		Description: a.Description,
		IsActive:    a.IsActive,
	}
}

// ToAssetTypeOuts maps a list of asset types.
func ToAssetTypeOuts(assets []*entities.AssetType) []AssetTypeOut {
	out := make([]AssetTypeOut, 0, len(assets))
	for _, a := range assets {
		out = append(out, ToAssetTypeOut(a))
	}
	return out
}

// ToAccountOut converts an account entity. The password hash never leaves
// the domain layer.
func ToAccountOut(a *entities.Account) AccountOut {
	return AccountOut{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		IsSystem:  a.IsSystem,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

// ToAccountOuts maps a list of accounts.
func ToAccountOuts(accounts []*entities.Account) []AccountOut {
	out := make([]AccountOut, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, ToAccountOut(a))
	}
	return out
}
