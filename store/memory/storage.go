// Package memory provides an in-process core.Storage for tests, demos and
// hosts without a database.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-wallets/core"
	"github.com/patrickmn/go-cache"
)

var _ core.Storage = (*Storage)(nil)

// Storage keeps blobs in a go-cache instance. Entries live until cleared
// unless a TTL is configured.
type Storage struct {
	cache *cache.Cache
	ttl   time.Duration
}

type Option func(*options)

type options struct {
	ttl             time.Duration
	cleanupInterval time.Duration
}

// WithTTL expires every saved blob ttl after its last save.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithCleanupInterval starts the go-cache janitor, which evicts expired
// entries in the background. Expired entries are never returned either way.
func WithCleanupInterval(interval time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = interval
	}
}

func New(opts ...Option) *Storage {
	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	expiration := cache.NoExpiration
	if cfg.ttl > 0 {
		expiration = cfg.ttl
	}
	return &Storage{
		cache: cache.New(expiration, cfg.cleanupInterval),
		ttl:   cfg.ttl,
	}
}

func (s *Storage) Save(_ context.Context, key string, value []byte) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.cache.Set(key, append([]byte(nil), value...), cache.DefaultExpiration)
	return nil
}

func (s *Storage) Load(_ context.Context, key string) ([]byte, bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, false, err
	}
	raw, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	value, ok := raw.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("memory: unexpected value type %T for key %s", raw, key)
	}
	return append([]byte(nil), value...), true, nil
}

func (s *Storage) Clear(_ context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

// Keys lists live keys in name order.
func (s *Storage) Keys() []string {
	items := s.cache.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

func (s *Storage) TTL() time.Duration {
	return s.ttl
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("memory: storage key is required")
	}
	return key, nil
}
