package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"justicerollon/internal/justiceindex/models"
	platformredis "justicerollon/internal/platform/redis"
	"justicerollon/pkg/domain"
)

// CachedEntryStore is a read-through Redis cache in front of an EntryStore.
// Entries are immutable so cached reads never serve stale data; only the
// search listings change, and those are invalidated on every publish.
// Concurrent misses on the same key collapse into one backing load.
type CachedEntryStore struct {
	inner  EntryStore
	redis  *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewCachedEntryStore(inner EntryStore, redis *platformredis.Client, ttl time.Duration, logger *slog.Logger) *CachedEntryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEntryStore{inner: inner, redis: redis, ttl: ttl, logger: logger}
}

const (
	entryKeyPrefix  = "justiceindex:entry:"
	searchKeyPrefix = "justiceindex:search:"
	searchKeySetKey = "justiceindex:search-keys"
)

// Create writes through and drops every cached search listing.
func (s *CachedEntryStore) Create(ctx context.Context, e *models.Entry) error {
	if err := s.inner.Create(ctx, e); err != nil {
		return err
	}
	s.invalidateSearches(ctx)
	return nil
}

func (s *CachedEntryStore) FindByID(ctx context.Context, id domain.EntryID) (*models.Entry, error) {
	key := entryKeyPrefix + id.String()
	if e, ok := s.cachedEntry(ctx, key); ok {
		return e, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		e, err := s.inner.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheEntry(ctx, key, e)
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Entry), nil
}

// FindLatestByPetition is uncached: a republish would make a cached latest
// pointer stale.
func (s *CachedEntryStore) FindLatestByPetition(ctx context.Context, petitionID domain.PetitionID) (*models.Entry, error) {
	return s.inner.FindLatestByPetition(ctx, petitionID)
}

func (s *CachedEntryStore) Search(ctx context.Context, query string, limit int) ([]*models.Entry, error) {
	key := fmt.Sprintf("%s%s:%d", searchKeyPrefix, query, limit)
	if out, ok := s.cachedSearch(ctx, key); ok {
		return out, nil
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		out, err := s.inner.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		s.cacheSearch(ctx, key, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Entry), nil
}

func (s *CachedEntryStore) cachedEntry(ctx context.Context, key string) (*models.Entry, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logger.WarnContext(ctx, "index cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var e models.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

func (s *CachedEntryStore) cacheEntry(ctx context.Context, key string, e *models.Entry) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "index cache write failed", "key", key, "error", err)
	}
}

func (s *CachedEntryStore) cachedSearch(ctx context.Context, key string) ([]*models.Entry, bool) {
	if s.redis == nil {
		return nil, false
	}
	raw, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logger.WarnContext(ctx, "index cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var out []*models.Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

// cacheSearch remembers the key in a set so invalidateSearches can drop all
// listings without a SCAN.
func (s *CachedEntryStore) cacheSearch(ctx context.Context, key string, out []*models.Entry) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, key, raw, s.ttl)
	pipe.SAdd(ctx, searchKeySetKey, key)
	pipe.Expire(ctx, searchKeySetKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WarnContext(ctx, "index cache write failed", "key", key, "error", err)
	}
}

func (s *CachedEntryStore) invalidateSearches(ctx context.Context) {
	if s.redis == nil {
		return
	}
	keys, err := s.redis.SMembers(ctx, searchKeySetKey).Result()
	if err != nil {
		s.logger.WarnContext(ctx, "index cache invalidation failed", "error", err)
		return
	}
	keys = append(keys, searchKeySetKey)
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		s.logger.WarnContext(ctx, "index cache invalidation failed", "error", err)
	}
}
