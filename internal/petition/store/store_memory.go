package store

import (
	"context"
	"sort"
	"sync"

	"justicerollon/internal/petition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// InMemoryPetitionStore is a thread-safe in-memory PetitionStore for tests
// and local development.
type InMemoryPetitionStore struct {
	mu         sync.RWMutex
	petitions  map[domain.PetitionID]*models.Petition
	supporters map[domain.PetitionID]map[domain.UserID]bool
}

func NewInMemoryPetitionStore() *InMemoryPetitionStore {
	return &InMemoryPetitionStore{
		petitions:  make(map[domain.PetitionID]*models.Petition),
		supporters: make(map[domain.PetitionID]map[domain.UserID]bool),
	}
}

func (s *InMemoryPetitionStore) Create(_ context.Context, p *models.Petition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.petitions[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.petitions[p.ID] = copyPetition(p)
	return nil
}

func (s *InMemoryPetitionStore) FindByID(_ context.Context, id domain.PetitionID) (*models.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.petitions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyPetition(p), nil
}

func (s *InMemoryPetitionStore) Update(_ context.Context, p *models.Petition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.petitions[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != p.Version {
		return sentinel.ErrConflict
	}
	next := copyPetition(p)
	next.Version = p.Version + 1
	s.petitions[p.ID] = next
	p.Version = next.Version
	return nil
}

func (s *InMemoryPetitionStore) ListByOwner(_ context.Context, ownerID domain.UserID) ([]*models.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Petition
	for _, p := range s.petitions {
		if p.OwnerID == ownerID {
			out = append(out, copyPetition(p))
		}
	}
	sortPetitions(out)
	return out, nil
}

func (s *InMemoryPetitionStore) ListByStatus(_ context.Context, status models.Status) ([]*models.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Petition
	for _, p := range s.petitions {
		if p.Status == status {
			out = append(out, copyPetition(p))
		}
	}
	sortPetitions(out)
	return out, nil
}

func (s *InMemoryPetitionStore) AddSupporter(_ context.Context, petitionID domain.PetitionID, userID domain.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.petitions[petitionID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	set := s.supporters[petitionID]
	if set == nil {
		set = make(map[domain.UserID]bool)
		s.supporters[petitionID] = set
	}
	if set[userID] {
		return 0, sentinel.ErrAlreadyUsed
	}
	set[userID] = true
	p.SupporterCount = len(set)
	return p.SupporterCount, nil
}

func sortPetitions(ps []*models.Petition) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
}

func copyPetition(p *models.Petition) *models.Petition {
	cp := *p
	cp.EvidenceIDs = append([]domain.EvidenceID(nil), p.EvidenceIDs...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		cp.PublishedAt = &t
	}
	return &cp
}

// InMemoryEvidenceStore is a thread-safe in-memory EvidenceStore.
type InMemoryEvidenceStore struct {
	mu       sync.RWMutex
	evidence map[domain.EvidenceID]*models.Evidence
}

func NewInMemoryEvidenceStore() *InMemoryEvidenceStore {
	return &InMemoryEvidenceStore{evidence: make(map[domain.EvidenceID]*models.Evidence)}
}

func (s *InMemoryEvidenceStore) Create(_ context.Context, e *models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.evidence[e.ID]; ok {
		return sentinel.ErrConflict
	}
	s.evidence[e.ID] = copyEvidence(e)
	return nil
}

func (s *InMemoryEvidenceStore) FindByID(_ context.Context, id domain.EvidenceID) (*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.evidence[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEvidence(e), nil
}

func (s *InMemoryEvidenceStore) Update(_ context.Context, e *models.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.evidence[e.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.evidence[e.ID] = copyEvidence(e)
	return nil
}

func (s *InMemoryEvidenceStore) ListByPetition(_ context.Context, petitionID domain.PetitionID) ([]*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Evidence
	for _, e := range s.evidence {
		if e.PetitionID == petitionID {
			out = append(out, copyEvidence(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

func (s *InMemoryEvidenceStore) FindMany(_ context.Context, ids []domain.EvidenceID) ([]*models.Evidence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Evidence, 0, len(ids))
	for _, id := range ids {
		e, ok := s.evidence[id]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		out = append(out, copyEvidence(e))
	}
	return out, nil
}

func copyEvidence(e *models.Evidence) *models.Evidence {
	cp := *e
	if e.VerdictAt != nil {
		t := *e.VerdictAt
		cp.VerdictAt = &t
	}
	return &cp
}
