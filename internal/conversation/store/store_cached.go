package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mia/internal/conversation/models"
	"mia/internal/platform/metrics"
)

const cacheKeyPrefix = "session:"

// Cached layers a Redis read-through cache over an inner Store. Reads are
// served from the cache when possible and repopulate it on a miss; writes
// invalidate the entry instead of patching it, so the next read rebuilds from
// durable storage. That trades one extra read per write for immunity to
// partial-update races. Cache failures degrade to the inner store and are
// never surfaced: the cache is an availability layer, not a correctness
// dependency.
type Cached struct {
	inner   Store
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type CachedOption func(*Cached)

// WithMetrics records cache hit/miss counters.
func WithMetrics(m *metrics.Metrics) CachedOption {
	return func(c *Cached) {
		c.metrics = m
	}
}

// NewCached wraps inner with a Redis snapshot cache. Entries expire after
// ttl; sessions are short-lived conversations, so an hour is the usual bound.
func NewCached(inner Store, client redis.Cmdable, ttl time.Duration, logger *slog.Logger, opts ...CachedOption) *Cached {
	c := &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) key(sessionID string) string {
	return cacheKeyPrefix + sessionID
}

func (c *Cached) Get(ctx context.Context, sessionID string) (models.Session, error) {
	raw, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == nil {
		var sess models.Session
		if unmarshalErr := json.Unmarshal([]byte(raw), &sess); unmarshalErr == nil {
			c.metrics.IncrementCache("hit")
			return sess, nil
		}
		// Corrupt entry: fall through to the durable store and overwrite it.
		c.logger.WarnContext(ctx, "corrupt session cache entry", "session_id", sessionID)
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "session cache read failed",
			"session_id", sessionID,
			"error", err,
		)
	}
	c.metrics.IncrementCache("miss")

	sess, err := c.inner.Get(ctx, sessionID)
	if err != nil {
		return models.Session{}, err
	}

	c.put(ctx, sess)
	return sess, nil
}

func (c *Cached) Create(ctx context.Context, customerID, sessionID, channel string) (models.Session, error) {
	sess, err := c.inner.Create(ctx, customerID, sessionID, channel)
	if err != nil {
		return models.Session{}, err
	}
	c.put(ctx, sess)
	return sess, nil
}

func (c *Cached) Update(ctx context.Context, sessionID string, m models.Mutation) error {
	if sessionID == "" {
		return nil
	}
	if err := c.inner.Update(ctx, sessionID, m); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(sessionID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "session cache invalidation failed",
			"session_id", sessionID,
			"error", err,
		)
	}
	return nil
}

func (c *Cached) put(ctx context.Context, sess models.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(sess.SessionID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "session cache write failed",
			"session_id", sess.SessionID,
			"error", err,
		)
	}
}
