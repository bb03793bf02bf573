package store

import (
	"context"
	"sort"
	"sync"

	"justicerollon/internal/deposition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// InMemoryDepositionStore is a thread-safe in-memory DepositionStore.
type InMemoryDepositionStore struct {
	mu          sync.RWMutex
	depositions map[domain.DepositionID]*models.Deposition
	sequences   map[domain.PetitionID]int
}

func NewInMemoryDepositionStore() *InMemoryDepositionStore {
	return &InMemoryDepositionStore{
		depositions: make(map[domain.DepositionID]*models.Deposition),
		sequences:   make(map[domain.PetitionID]int),
	}
}

func (s *InMemoryDepositionStore) Create(_ context.Context, d *models.Deposition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.depositions[d.ID]; ok {
		return sentinel.ErrConflict
	}
	s.sequences[d.PetitionID]++
	d.Sequence = s.sequences[d.PetitionID]
	cp := *d
	s.depositions[d.ID] = &cp
	return nil
}

func (s *InMemoryDepositionStore) FindByID(_ context.Context, id domain.DepositionID) (*models.Deposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.depositions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryDepositionStore) ListByPetition(_ context.Context, petitionID domain.PetitionID) ([]*models.Deposition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Deposition
	for _, d := range s.depositions {
		if d.PetitionID == petitionID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}
