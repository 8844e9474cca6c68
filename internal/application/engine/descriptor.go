// Package engine implements the wallet transaction engine: the three
// mutating flows (top-up, bonus, spend), the read queries, and the
// idempotency cache that makes retries safe.
//
// Concurrency Strategy
// ────────────────────
// Every flow acquires pessimistic row-level locks (SELECT ... FOR UPDATE)
// on the two wallets it touches, inside a single store transaction:
//
//  1. Concurrent requests on the same wallet are serialised at the database
//     level; whoever holds the lock runs to completion first.
//  2. There is no TOCTOU window between reading a balance and writing the
//     new one.
//  3. The database CHECK (balance >= 0) remains the safety net should a bug
//     slip through the engine's own pre-check.
//
// Lock ordering: system wallet first, except for spend.
// Top-up and bonus lock (system source, then user destination); spend locks
// (user source, then system destination). Every flow holds at most one
// system-side wallet, so no lock cycle between two operations sharing a
// user wallet is possible.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/coinvault/internal/domain/entities"
)

// Endpoint tags scope idempotency keys: reusing a key across two different
// endpoints is a caller bug and yields a conflict.
const (
	EndpointTopUp = "top_up"
	EndpointBonus = "issue_bonus"
	EndpointSpend = "spend"
)

// mutationRequest is the normalized input of one mutating flow. Extra holds
// the flow-specific reference (payment_reference, reason, item_reference).
type mutationRequest struct {
	UserAccountID  uuid.UUID
	AssetTypeID    uuid.UUID
	Amount         decimal.Decimal
	Description    string
	Extra          string
	IdempotencyKey string
}

// flowDescriptor captures everything that differs between the three mutating
// flows. The flows themselves share one template (Service.run); adding a
// flow means adding a descriptor, not another engine body.
type flowDescriptor struct {
	// Endpoint scopes idempotency keys and names the flow in logs.
	Endpoint string

	// TxType tags both ledger entries of the pair.
	TxType entities.TransactionType

	// SystemAccount is the well-known username of the counterparty wallet.
	SystemAccount string

	// UserIsSource selects the lock order and the direction of the pair:
	// false means the system wallet is debited (top-up, bonus) and locked
	// first; true means the user wallet is debited (spend) and locked first.
	UserIsSource bool

	// MetadataKey names the flow-specific extra field stored in ledger
	// metadata.
	MetadataKey string

	// debitDescription / creditDescription build the per-entry descriptions.
	// req.Description, when present, overrides the user-side default.
	debitDescription  func(req mutationRequest, symbol string) string
	creditDescription func(req mutationRequest, symbol string) string

	// successMessage builds the human-readable response message.
	successMessage func(amount decimal.Decimal, symbol string) string
}

// The descriptors are startup-time constants: the (source, destination) pair
// and its lock order never change between calls. Tests assert this.
var (
	topUpFlow = flowDescriptor{
		Endpoint:      EndpointTopUp,
		TxType:        entities.TransactionTypeTopUp,
		SystemAccount: entities.SystemTreasury,
		UserIsSource:  false,
		MetadataKey:   "payment_reference",
		debitDescription: func(req mutationRequest, symbol string) string {
			return "Treasury debit for top-up: " + req.Description
		},
		creditDescription: func(req mutationRequest, symbol string) string {
			if req.Description != "" {
				return req.Description
			}
			return fmt.Sprintf("Top-up of %s %s", req.Amount, symbol)
		},
		successMessage: func(amount decimal.Decimal, symbol string) string {
			return fmt.Sprintf("Successfully credited %s %s to your wallet.", amount, symbol)
		},
	}

	bonusFlow = flowDescriptor{
		Endpoint:      EndpointBonus,
		TxType:        entities.TransactionTypeBonus,
		SystemAccount: entities.SystemBonusPool,
		UserIsSource:  false,
		MetadataKey:   "reason",
		debitDescription: func(req mutationRequest, symbol string) string {
			return "Bonus pool debit: " + req.Extra
		},
		creditDescription: func(req mutationRequest, symbol string) string {
			if req.Description != "" {
				return req.Description
			}
			reason := req.Extra
			if reason == "" {
				reason = "system grant"
			}
			return fmt.Sprintf("Bonus: %s - %s %s", reason, req.Amount, symbol)
		},
		successMessage: func(amount decimal.Decimal, symbol string) string {
			return fmt.Sprintf("Bonus of %s %s issued successfully.", amount, symbol)
		},
	}

	spendFlow = flowDescriptor{
		Endpoint:      EndpointSpend,
		TxType:        entities.TransactionTypeSpend,
		SystemAccount: entities.SystemRevenue,
		UserIsSource:  true,
		MetadataKey:   "item_reference",
		debitDescription: func(req mutationRequest, symbol string) string {
			if req.Description != "" {
				return req.Description
			}
			return fmt.Sprintf("Spent %s %s", req.Amount, symbol)
		},
		creditDescription: func(req mutationRequest, symbol string) string {
			return "Revenue credit from spend: " + req.Extra
		},
		successMessage: func(amount decimal.Decimal, symbol string) string {
			return fmt.Sprintf("Successfully spent %s %s.", amount, symbol)
		},
	}
)
