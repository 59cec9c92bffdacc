package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"book-catalogue/internal/core/model"
	xlog "book-catalogue/internal/log"
	"book-catalogue/internal/metrics"

	"github.com/rs/zerolog"
)

const (
	DefaultCacheKey = "catalogue_cache"
	DefaultCacheTTL = 30 * time.Minute
)

// KV is the narrow byte store behind CacheStore. Get returns an error
// wrapping model.ErrNotFound for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CacheStore keeps one snapshot of the validated catalogue in two KV slots:
// the envelope and its save timestamp. Storage failures are logged and
// reported as false / (nil, false); they never reach the caller as errors.
type CacheStore struct {
	kv           KV
	key          string
	timestampKey string
	ttl          time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

type CacheStoreOption func(*CacheStore)

func WithCacheKey(key string) CacheStoreOption {
	return func(c *CacheStore) {
		if key != "" {
			c.key = key
			c.timestampKey = key + "_timestamp"
		}
	}
}

func WithTTL(ttl time.Duration) CacheStoreOption {
	return func(c *CacheStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) CacheStoreOption {
	return func(c *CacheStore) {
		if now != nil {
			c.now = now
		}
	}
}

func WithCacheLogger(l zerolog.Logger) CacheStoreOption {
	return func(c *CacheStore) { c.log = l }
}

func NewCacheStore(kv KV, opts ...CacheStoreOption) *CacheStore {
	c := &CacheStore{
		kv:           kv,
		key:          DefaultCacheKey,
		timestampKey: DefaultCacheKey + "_timestamp",
		ttl:          DefaultCacheTTL,
		now:          time.Now,
		log:          xlog.WithComponent("cache"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsFresh reports whether a save timestamp exists and is younger than the TTL.
func (c *CacheStore) IsFresh(ctx context.Context) bool {
	raw, err := c.kv.Get(ctx, c.timestampKey)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			c.log.Warn().Err(err).Str(xlog.FieldKey, c.timestampKey).Msg("cache timestamp read failed")
		}
		return false
	}
	savedAt, err := parseTimestamp(string(raw))
	if err != nil {
		c.log.Warn().Err(err).Str(xlog.FieldKey, c.timestampKey).Msg("cache timestamp unreadable")
		return false
	}
	return c.now().Sub(savedAt) < c.ttl
}

// Save writes the envelope, then the current timestamp.
func (c *CacheStore) Save(ctx context.Context, env model.CacheEnvelope) bool {
	data, err := json.Marshal(env)
	if err != nil {
		c.log.Warn().Err(fmt.Errorf("%w: %w", model.ErrStorage, err)).Msg("failed to encode cache envelope")
		metrics.IncCacheOp("save", "failure")
		return false
	}
	if err := c.kv.Set(ctx, c.key, data); err != nil {
		c.log.Warn().Err(err).Str(xlog.FieldKey, c.key).Msg("failed to save to local cache")
		metrics.IncCacheOp("save", "failure")
		return false
	}
	ts := strconv.FormatInt(c.now().UnixMilli(), 10)
	if err := c.kv.Set(ctx, c.timestampKey, []byte(ts)); err != nil {
		c.log.Warn().Err(err).Str(xlog.FieldKey, c.timestampKey).Msg("failed to save cache timestamp")
		metrics.IncCacheOp("save", "failure")
		return false
	}
	metrics.IncCacheOp("save", "success")
	return true
}

// Load returns the stored envelope decoded as generic JSON so that older
// envelope shapes still reach the validator.
func (c *CacheStore) Load(ctx context.Context) (any, bool) {
	raw, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.IncCacheOp("load", "miss")
		} else {
			c.log.Warn().Err(err).Str(xlog.FieldKey, c.key).Msg("failed to read from cache")
			metrics.IncCacheOp("load", "failure")
		}
		return nil, false
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Warn().Err(fmt.Errorf("%w: %w", model.ErrStorage, err)).Str(xlog.FieldKey, c.key).Msg("corrupt cache envelope")
		metrics.IncCacheOp("load", "failure")
		return nil, false
	}
	if payload == nil {
		metrics.IncCacheOp("load", "miss")
		return nil, false
	}
	metrics.IncCacheOp("load", "success")
	return payload, true
}

// parseTimestamp accepts epoch milliseconds or RFC 3339.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad cache timestamp %q", model.ErrStorage, s)
	}
	return t, nil
}
