// Package entities contains the persistent records of the wallet service.
//
// Entities here are deliberately plain: records matching the storage schema
// plus narrow constructors that enforce defaults (fresh ids, UTC timestamps,
// zero balances, is_active=true). All behaviour — locking, balancing,
// idempotency — lives in the engine, which is the only writer.
package entities

import (
	"time"

	"github.com/google/uuid"
)

// Well-known system account usernames. System accounts act as the
// counterparty of every user-facing movement: Treasury funds top-ups,
// the Bonus Pool funds bonuses, Revenue absorbs spends. They are seeded
// once (migrations) and must exist at startup.
const (
	SystemTreasury  = "system_treasury"
	SystemBonusPool = "system_bonus_pool"
	SystemRevenue   = "system_revenue"
)

// Account represents either a real user or a system account.
type Account struct {
	ID             uuid.UUID
	Username       string
	Email          string // optional, unique when set
	HashedPassword string // empty for system accounts
	IsSystem       bool
	IsActive       bool
	CreatedAt      time.Time
}

// NewAccount creates a user account with defaults applied.
func NewAccount(username, email, hashedPassword string) *Account {
	return &Account{
		ID:             uuid.New(),
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsSystem:       false,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
}
