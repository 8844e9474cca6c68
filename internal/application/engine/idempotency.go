package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	"github.com/Haleralex/coinvault/internal/domain/errors"
)

// idempotencyCache - кэш ответов поверх IdempotencyRepository.
//
// Lookup and Store are always called with a transaction-bearing context, so
// the cached response becomes visible only if the flow that produced it
// committed. Expired records are pruned lazily on the lookup that finds them;
// there is no background sweeper.
type idempotencyCache struct {
	repo ports.IdempotencyRepository
	ttl  time.Duration
	now  func() time.Time
	log  *slog.Logger
}

func newIdempotencyCache(repo ports.IdempotencyRepository, ttl time.Duration, log *slog.Logger) *idempotencyCache {
	return &idempotencyCache{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log,
	}
}

// Lookup resolves a key to one of three outcomes:
//   - (nil, nil): miss, the caller should execute the operation
//   - (body, nil): hit, return the cached bytes verbatim
//   - (nil, *errors.IdempotencyConflictError): the key was first used with a
//     different endpoint
func (c *idempotencyCache) Lookup(ctx context.Context, key, endpoint string) ([]byte, error) {
	record, err := c.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	// An expired record counts as a miss. Delete it so the key becomes
	// reusable and the fresh outcome can be stored under it.
	if record.Expired(c.now().UTC()) {
		c.log.DebugContext(ctx, "pruning expired idempotency key", "key", key)
		if err := c.repo.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if record.Endpoint != endpoint {
		return nil, &errors.IdempotencyConflictError{Key: key}
	}

	return record.ResponseBody, nil
}

// Store caches the serialized response under key. A uniqueness race with a
// concurrent request surfaces as errors.ErrIdempotencyRace (from the
// repository) and is handled by the engine's retry.
func (c *idempotencyCache) Store(ctx context.Context, key, endpoint string, responseBody []byte) error {
	return c.repo.Insert(ctx, entities.NewIdempotencyRecord(key, endpoint, responseBody, c.ttl))
}
