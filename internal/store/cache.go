package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cardvault-api/internal/customfield"
)

// CachedRepository serves LoadSettings from Redis and invalidates on SaveSetting.
// Redis failures are logged and fall through to the wrapped repository.
type CachedRepository struct {
	Repository
	rdb *redis.Client
	ttl atomic.Int64 // nanoseconds; 0 disables caching
}

// WithSettingsCache wraps repo. A nil rdb returns repo unchanged.
func WithSettingsCache(repo Repository, rdb *redis.Client, ttl time.Duration) Repository {
	if rdb == nil {
		return repo
	}
	c := &CachedRepository{Repository: repo, rdb: rdb}
	c.SetTTL(ttl)
	return c
}

// SetTTL changes the lifetime of cached entries written from now on.
func (c *CachedRepository) SetTTL(ttl time.Duration) {
	c.ttl.Store(int64(ttl))
}

func settingsCacheKey(owner uuid.UUID, kind customfield.EntityKind) string {
	return fmt.Sprintf("cf:settings:%s:%s", owner, kind)
}

func (c *CachedRepository) LoadSettings(ctx context.Context, owner uuid.UUID, kind customfield.EntityKind) (customfield.Settings, error) {
	ttl := time.Duration(c.ttl.Load())
	if ttl <= 0 {
		return c.Repository.LoadSettings(ctx, owner, kind)
	}
	key := settingsCacheKey(owner, kind)
	b, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s customfield.Settings
		if jerr := json.Unmarshal(b, &s); jerr == nil {
			return mergeSettings(kind, s), nil
		}
		storeLogger.Sugar().Warnf("settings cache: drop corrupt entry %s", key)
	case !errors.Is(err, redis.Nil):
		storeLogger.Sugar().Warnf("settings cache get %s: %v", key, err)
	}

	s, err := c.Repository.LoadSettings(ctx, owner, kind)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
			storeLogger.Sugar().Warnf("settings cache set %s: %v", key, err)
		}
	}
	return s, nil
}

func (c *CachedRepository) SaveSetting(ctx context.Context, owner uuid.UUID, slot customfield.Slot, s customfield.FieldSetting) error {
	if err := c.Repository.SaveSetting(ctx, owner, slot, s); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, settingsCacheKey(owner, slot.Kind)).Err(); err != nil {
		storeLogger.Sugar().Warnf("settings cache invalidate: %v", err)
	}
	return nil
}
