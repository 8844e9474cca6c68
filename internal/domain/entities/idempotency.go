package entities

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord stores the serialized response of an already-processed
// request so that retries return the same body without re-executing the
// transaction. Written in the same store transaction that produced the
// response; only visible if the whole transaction committed.
type IdempotencyRecord struct {
	ID           uuid.UUID
	Key          string // globally unique, client-supplied
	Endpoint     string // operation the key was first used with
	ResponseBody []byte // JSON-serialized response, returned verbatim on replay
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// NewIdempotencyRecord creates a record expiring after ttl.
func NewIdempotencyRecord(key, endpoint string, responseBody []byte, ttl time.Duration) *IdempotencyRecord {
	now := time.Now().UTC()
	return &IdempotencyRecord{
		ID:           uuid.New(),
		Key:          key,
		Endpoint:     endpoint,
		ResponseBody: responseBody,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Expired reports whether the record is past its TTL at the given instant.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
