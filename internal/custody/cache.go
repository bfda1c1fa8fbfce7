package custody

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	id "custodia/pkg/domain"
	"custodia/internal/platform/redis"
)

const stateCacheTTL = 5 * time.Minute

// StateCache is a read-through cache for custody state lookups. The ledger
// is the source of truth; the cache only serves Current reads and is
// invalidated after every committed transfer. A nil cache is a no-op, so
// the service works unchanged when Redis is not configured.
type StateCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewStateCache(client *redis.Client, logger *slog.Logger) *StateCache {
	if client == nil {
		return nil
	}
	return &StateCache{client: client, logger: logger}
}

func stateKey(evidenceID id.EvidenceID) string {
	return fmt.Sprintf("custody:evidence:%s", evidenceID)
}

// Get returns the cached state and whether it was present. Cache errors are
// logged and reported as a miss; the caller falls through to the store.
func (c *StateCache) Get(ctx context.Context, evidenceID id.EvidenceID) (State, bool) {
	if c == nil {
		return State{}, false
	}
	raw, err := c.client.Get(ctx, stateKey(evidenceID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.logger.WarnContext(ctx, "custody cache read failed",
				slog.String("evidence_id", evidenceID.String()),
				slog.String("error", err.Error()))
		}
		return State{}, false
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		c.logger.WarnContext(ctx, "custody cache entry corrupt, dropping",
			slog.String("evidence_id", evidenceID.String()),
			slog.String("error", err.Error()))
		c.client.Del(ctx, stateKey(evidenceID))
		return State{}, false
	}
	return state, true
}

func (c *StateCache) Set(ctx context.Context, state State) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, stateKey(state.EvidenceID), raw, stateCacheTTL).Err(); err != nil {
		c.logger.WarnContext(ctx, "custody cache write failed",
			slog.String("evidence_id", state.EvidenceID.String()),
			slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached state after a transfer commits. Failure here
// is tolerable only because entries expire; it is still logged.
func (c *StateCache) Invalidate(ctx context.Context, evidenceID id.EvidenceID) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, stateKey(evidenceID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "custody cache invalidation failed",
			slog.String("evidence_id", evidenceID.String()),
			slog.String("error", err.Error()))
	}
}
