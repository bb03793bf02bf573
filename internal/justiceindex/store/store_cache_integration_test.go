//go:build integration

package store_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/internal/justiceindex/store"
	platformredis "justicerollon/internal/platform/redis"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/testutil/containers"
)

// countingEntryStore wraps the in-memory store and counts backing reads so
// tests can tell cache hits from misses.
type countingEntryStore struct {
	*store.InMemoryEntryStore
	finds    atomic.Int32
	searches atomic.Int32
}

func (s *countingEntryStore) FindByID(ctx context.Context, id domain.EntryID) (*models.Entry, error) {
	s.finds.Add(1)
	return s.InMemoryEntryStore.FindByID(ctx, id)
}

func (s *countingEntryStore) Search(ctx context.Context, query string, limit int) ([]*models.Entry, error) {
	s.searches.Add(1)
	return s.InMemoryEntryStore.Search(ctx, query, limit)
}

type CachedEntryStoreSuite struct {
	suite.Suite
	container *containers.RedisContainer
	inner     *countingEntryStore
	cached    *store.CachedEntryStore
}

func TestCachedEntryStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedEntryStoreSuite))
}

func (s *CachedEntryStoreSuite) SetupSuite() {
	s.container = containers.NewRedisContainer(s.T())
}

func (s *CachedEntryStoreSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Client.Close()
		_ = s.container.Container.Terminate(context.Background())
	}
}

func (s *CachedEntryStoreSuite) SetupTest() {
	require.NoError(s.T(), s.container.FlushAll(context.Background()))
	s.inner = &countingEntryStore{InMemoryEntryStore: store.NewInMemoryEntryStore()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cached = store.NewCachedEntryStore(s.inner,
		&platformredis.Client{Client: s.container.Client}, time.Minute, logger)
}

func (s *CachedEntryStoreSuite) newEntry(title string) *models.Entry {
	e, err := models.NewEntry(domain.NewPetitionID(), domain.NewUserID(), title,
		"The baths have been closed since spring.", domain.CategoryWelfare, nil, time.Now().UTC())
	require.NoError(s.T(), err)
	return e
}

func (s *CachedEntryStoreSuite) TestFindByIDReadsThrough() {
	t := s.T()
	ctx := context.Background()

	e := s.newEntry("Reopen the public baths")
	require.NoError(t, s.cached.Create(ctx, e))

	first, err := s.cached.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, first.Title)
	assert.Equal(t, int32(1), s.inner.finds.Load())

	second, err := s.cached.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, second.ID)
	assert.Equal(t, e.PetitionID, second.PetitionID)
	assert.Equal(t, int32(1), s.inner.finds.Load(), "second read should be served from cache")
}

func (s *CachedEntryStoreSuite) TestCreateInvalidatesSearchListings() {
	t := s.T()
	ctx := context.Background()

	require.NoError(t, s.cached.Create(ctx, s.newEntry("Reopen the public baths")))

	out, err := s.cached.Search(ctx, "baths", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(1), s.inner.searches.Load())

	out, err = s.cached.Search(ctx, "baths", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int32(1), s.inner.searches.Load(), "repeated search should be served from cache")

	require.NoError(t, s.cached.Create(ctx, s.newEntry("Fix the baths boiler")))

	out, err = s.cached.Search(ctx, "baths", 10)
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int32(2), s.inner.searches.Load(), "publish should drop cached listings")
}

func (s *CachedEntryStoreSuite) TestCorruptCacheEntryFallsBack() {
	t := s.T()
	ctx := context.Background()

	e := s.newEntry("Reopen the public baths")
	require.NoError(t, s.cached.Create(ctx, e))

	key := "justiceindex:entry:" + e.ID.String()
	require.NoError(t, s.container.Client.Set(ctx, key, "{not json", time.Minute).Err())

	found, err := s.cached.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, found.Title)
	assert.Equal(t, int32(1), s.inner.finds.Load())
}

func (s *CachedEntryStoreSuite) TestLatestBypassesCache() {
	t := s.T()
	ctx := context.Background()

	first := s.newEntry("Reopen the public baths")
	require.NoError(t, s.cached.Create(ctx, first))

	second, err := models.NewEntry(first.PetitionID, first.OwnerID, "Reopen the public baths",
		"Updated after resubmission.", domain.CategoryWelfare, nil, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, s.cached.Create(ctx, second))

	latest, err := s.cached.FindLatestByPetition(ctx, first.PetitionID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}
