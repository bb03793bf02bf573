package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// InMemoryEntryStore is a thread-safe in-memory EntryStore.
type InMemoryEntryStore struct {
	mu      sync.RWMutex
	entries map[domain.EntryID]*models.Entry
}

func NewInMemoryEntryStore() *InMemoryEntryStore {
	return &InMemoryEntryStore{entries: make(map[domain.EntryID]*models.Entry)}
}

func (s *InMemoryEntryStore) Create(_ context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.entries[e.ID] = copyEntry(e)
	return nil
}

func (s *InMemoryEntryStore) FindByID(_ context.Context, id domain.EntryID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEntry(e), nil
}

func (s *InMemoryEntryStore) FindLatestByPetition(_ context.Context, petitionID domain.PetitionID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Entry
	for _, e := range s.entries {
		if e.PetitionID != petitionID {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return copyEntry(latest), nil
}

func (s *InMemoryEntryStore) Search(_ context.Context, query string, limit int) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(query))
	var out []*models.Entry
	for _, e := range s.entries {
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyEntry(e *models.Entry) *models.Entry {
	cp := *e
	cp.Evidence = append([]models.EvidenceRef(nil), e.Evidence...)
	return &cp
}
