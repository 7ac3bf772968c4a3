// Package cache memoizes sanitized tool outputs for a short window so
// repeated identical queries inside an agent session do not pay for a
// second upstream call. Caching is best-effort: storage failures are
// logged and swallowed, never surfaced to the tool call.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolframtools/wolfram-mcp/pkg/storage"
	"github.com/wolframtools/wolfram-mcp/pkg/types"
	"gorm.io/gorm"
)

type Memoizer struct {
	store  storage.Storage
	ttl    time.Duration
	logger zerolog.Logger
}

func NewMemoizer(store storage.Storage, ttl time.Duration, logger zerolog.Logger) *Memoizer {
	if ttl <= 0 {
		ttl = types.CacheTTL
	}
	return &Memoizer{
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Key builds the deterministic cache key for a tool call. The domain
// prefix keeps our entries apart from anything else in the same store.
func Key(toolName, canonicalQuery string) string {
	return fmt.Sprintf("%s:%s:%s", types.CacheDomain, toolName, canonicalQuery)
}

// Get returns the cached value for key if present and unexpired.
// Any storage error counts as a miss.
func (m *Memoizer) Get(ctx context.Context, key string) (string, bool) {
	entry, err := m.store.GetCacheEntry(ctx, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			m.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return "", false
	}
	m.logger.Debug().Str("key", key).Msg("cache hit")
	return entry.Value, true
}

// Put writes value under key with the configured TTL. A failed write
// must not fail the tool call, so errors are only logged.
func (m *Memoizer) Put(ctx context.Context, key, value string) {
	if err := m.store.PutCacheEntry(ctx, key, value, m.ttl); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}
