// Package cache provides the in-process response cache for stowgate.
//
// Memory keeps msgpack-encoded responses in a bigcache shard set through
// gocache's marshaler. Entry lifetimes follow the response's own
// cache-control and expires headers, capped by the configured TTL.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/allegro/bigcache/v3"
	gocache "github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	bigcachestore "github.com/eko/gocache/store/bigcache/v4"
	"github.com/pquerna/cachecontrol/cacheobject"

	gatewayhttp "github.com/sagarc03/stowgate/http"
)

const (
	shards             = 64
	maxEntriesInWindow = 10000
)

// Config sizes the in-process cache.
type Config struct {
	// TTL is the lifetime of entries without an explicit freshness
	// directive and the upper bound for all entries.
	TTL time.Duration
	// MaxSizeMB caps the memory held by the cache. Zero means no cap.
	MaxSizeMB int
	// MaxEntrySize is the expected upper size of one entry in bytes.
	MaxEntrySize int
}

type entry struct {
	Status    int
	Header    map[string][]string
	Body      []byte
	ExpiresAt time.Time
}

// Memory implements http.ResponseCache. It is safe for concurrent use.
type Memory struct {
	client *bigcache.BigCache
	store  *marshaler.Marshaler
	ttl    time.Duration
	now    func() time.Time
}

// NewMemory creates a Memory cache. The caller must Close it.
func NewMemory(ctx context.Context, cfg Config) (*Memory, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("new memory cache: ttl must be positive, got %s", cfg.TTL)
	}

	bcfg := bigcache.DefaultConfig(cfg.TTL)
	bcfg.Shards = shards
	bcfg.MaxEntriesInWindow = maxEntriesInWindow
	bcfg.CleanWindow = cfg.TTL
	bcfg.HardMaxCacheSize = cfg.MaxSizeMB
	if cfg.MaxEntrySize > 0 {
		bcfg.MaxEntrySize = cfg.MaxEntrySize
	}

	client, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("new memory cache: %w", err)
	}

	return &Memory{
		client: client,
		store:  marshaler.New(gocache.New[any](bigcachestore.NewBigcache(client))),
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// Match returns the entry for key unless it is missing or expired.
func (m *Memory) Match(ctx context.Context, key string) (*gatewayhttp.CachedResponse, bool) {
	var e entry
	if _, err := m.store.Get(ctx, key, &e); err != nil {
		return nil, false
	}

	if !m.now().Before(e.ExpiresAt) {
		if err := m.store.Delete(ctx, key); err != nil {
			slog.Debug("delete expired cache entry", "key", key, "err", err)
		}
		return nil, false
	}

	return &gatewayhttp.CachedResponse{
		Status: e.Status,
		Header: http.Header(e.Header),
		Body:   e.Body,
	}, true
}

// Put stores resp for as long as its headers allow. It returns
// http.ErrNotCacheable for responses that must not be shared.
func (m *Memory) Put(ctx context.Context, key string, resp *gatewayhttp.CachedResponse) error {
	now := m.now()

	ttl, ok := Lifetime(resp.Header, m.ttl, now)
	if !ok {
		return fmt.Errorf("cache %s: %w", key, gatewayhttp.ErrNotCacheable)
	}

	e := entry{
		Status:    resp.Status,
		Header:    resp.Header,
		Body:      resp.Body,
		ExpiresAt: now.Add(ttl),
	}

	if err := m.store.Set(ctx, key, e); err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	return nil
}

// Close releases the bigcache shards and stops its cleanup goroutine.
func (m *Memory) Close() error {
	return m.client.Close()
}

// Lifetime computes how long a response may be shared, bounded by limit.
// s-maxage takes precedence over max-age, which takes precedence over
// Expires. no-store, no-cache and private responses are not shared.
func Lifetime(h http.Header, limit time.Duration, now time.Time) (time.Duration, bool) {
	dir, err := cacheobject.ParseResponseCacheControl(h.Get("Cache-Control"))
	if err != nil {
		return 0, false
	}
	if dir.NoStore || dir.NoCachePresent || dir.PrivatePresent {
		return 0, false
	}

	ttl := limit
	switch {
	case dir.SMaxAge >= 0:
		ttl = min(limit, time.Duration(dir.SMaxAge)*time.Second)
	case dir.MaxAge >= 0:
		ttl = min(limit, time.Duration(dir.MaxAge)*time.Second)
	default:
		if expires, err := http.ParseTime(h.Get("Expires")); err == nil {
			ttl = min(limit, expires.Sub(now))
		}
	}

	if ttl <= 0 {
		return 0, false
	}
	return ttl, true
}
