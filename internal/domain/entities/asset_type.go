package entities

import (
	"time"

	"github.com/google/uuid"
)

// AssetType defines a virtual currency (e.g. Gold Coins, Diamonds, Loyalty
// Points). A platform can run several asset types side by side; inactive
// types cannot back new movements.
type AssetType struct {
	ID          uuid.UUID
	Name        string // globally unique, e.g. "Gold Coins"
	Symbol      string // globally unique, e.g. "GC"
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// NewAssetType creates an active asset type with a fresh id.
func NewAssetType(name, symbol, description string) *AssetType {
	return &AssetType{
		ID:          uuid.New(),
		Name:        name,
		Symbol:      symbol,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}
