package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-wallets/core"
)

const stateCacheKeyPrefix = "go-wallets::state::v1"

// CachedStorage is a read-through cache in front of any core.Storage.
// Writes go to the base storage first and then drop the cached entry.
type CachedStorage struct {
	base  core.Storage
	cache repositorycache.CacheService
}

type cachedBlob struct {
	Payload []byte
	Found   bool
}

func NewCachedStorage(base core.Storage, cacheService repositorycache.CacheService) (*CachedStorage, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base storage is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: storage cache service is required")
	}
	return &CachedStorage{base: base, cache: cacheService}, nil
}

// StateCacheKey returns go-wallets::state::v1::<key> with the key URL-path
// escaped.
func StateCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: storage key is required")
	}
	return stateCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, false, fmt.Errorf("sqlstore: cached storage is not configured")
	}
	cacheKey, err := StateCacheKey(key)
	if err != nil {
		return nil, false, err
	}
	blob, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedBlob, error) {
		payload, found, fetchErr := s.base.Load(ctx, strings.TrimSpace(key))
		if fetchErr != nil {
			return cachedBlob{}, fetchErr
		}
		return cachedBlob{Payload: append([]byte(nil), payload...), Found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if !blob.Found {
		return nil, false, nil
	}
	return append([]byte(nil), blob.Payload...), true, nil
}

func (s *CachedStorage) Save(ctx context.Context, key string, value []byte) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached storage is not configured")
	}
	cacheKey, err := StateCacheKey(key)
	if err != nil {
		return err
	}
	if err := s.base.Save(ctx, strings.TrimSpace(key), value); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

func (s *CachedStorage) Clear(ctx context.Context, key string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached storage is not configured")
	}
	cacheKey, err := StateCacheKey(key)
	if err != nil {
		return err
	}
	if err := s.base.Clear(ctx, strings.TrimSpace(key)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}
