package providerdirectory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

const (
	cacheKeyPrefix = "consultation:provider:"
	// отсутствие провайдера кэшируется короче
	notFoundTTL    = 30 * time.Second
	notFoundMarker = "-"
)

// CachedDirectory кэширует ответы справочника в Redis.
// Ошибки Redis не ломают запрос: идем напрямую в справочник.
type CachedDirectory struct {
	next Directory
	rdb  redis.UniversalClient
	ttl  time.Duration
	log  Logger
}

// NewCachedDirectory оборачивает справочник кэшем
func NewCachedDirectory(next Directory, rdb redis.UniversalClient, ttl time.Duration, log Logger) *CachedDirectory {
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedDirectory) GetProvider(ctx context.Context, providerID int64) (*domain.Provider, error) {
	key := cacheKey(providerID)

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == notFoundMarker {
			return nil, ErrProviderNotFound
		}
		var cached Provider
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached.ToDomain(), nil
		}
		c.log.Warn("ProviderCache: corrupted entry %s, refetching", key)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("ProviderCache: get %s failed: %v", key, err)
	}

	provider, err := c.next.GetProvider(ctx, providerID)
	if errors.Is(err, ErrProviderNotFound) {
		c.store(ctx, key, notFoundMarker, notFoundTTL)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(fromDomain(provider))
	if err != nil {
		return nil, fmt.Errorf("%w: encode cache entry: %v", ErrInternal, err)
	}
	c.store(ctx, key, string(payload), c.ttl)

	return provider, nil
}

// Invalidate удаляет провайдера из кэша
func (c *CachedDirectory) Invalidate(ctx context.Context, providerID int64) error {
	if err := c.rdb.Del(ctx, cacheKey(providerID)).Err(); err != nil {
		return fmt.Errorf("%w: invalidate provider %d: %v", ErrInternal, providerID, err)
	}
	return nil
}

func (c *CachedDirectory) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("ProviderCache: set %s failed: %v", key, err)
	}
}

func cacheKey(providerID int64) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, providerID)
}
