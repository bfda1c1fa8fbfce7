//go:build integration

package custody_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/custody"
	"custodia/internal/platform/config"
	"custodia/internal/platform/redis"
	id "custodia/pkg/domain"
	"custodia/pkg/testutil"
)

func TestStateCacheRoundTrip(t *testing.T) {
	url := testutil.StartRedis(t)
	client, err := redis.New(config.RedisConfig{
		URL:          url,
		PoolSize:     4,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := custody.NewStateCache(client, log)
	ctx := context.Background()

	state := custody.State{
		EvidenceID: id.NewEvidenceID(),
		HolderID:   id.NewUserID(),
		Location:   "Evidence Locker A",
		UpdatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}

	_, ok := cache.Get(ctx, state.EvidenceID)
	assert.False(t, ok, "empty cache must miss")

	cache.Set(ctx, state)
	got, ok := cache.Get(ctx, state.EvidenceID)
	require.True(t, ok)
	assert.Equal(t, state.HolderID, got.HolderID)
	assert.Equal(t, state.Location, got.Location)
	assert.True(t, got.UpdatedAt.Equal(state.UpdatedAt))

	cache.Invalidate(ctx, state.EvidenceID)
	_, ok = cache.Get(ctx, state.EvidenceID)
	assert.False(t, ok, "invalidated entry must miss")
}

func TestStateCacheNilIsNoOp(t *testing.T) {
	var cache *custody.StateCache
	ctx := context.Background()

	_, ok := cache.Get(ctx, id.NewEvidenceID())
	assert.False(t, ok)
	assert.NotPanics(t, func() {
		cache.Set(ctx, custody.State{EvidenceID: id.NewEvidenceID()})
		cache.Invalidate(ctx, id.NewEvidenceID())
	})
}
