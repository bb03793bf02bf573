package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"justicerollon/internal/petition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

type PetitionStoreSuite struct {
	suite.Suite
	store *InMemoryPetitionStore
}

func TestPetitionStoreSuite(t *testing.T) {
	suite.Run(t, new(PetitionStoreSuite))
}

func (s *PetitionStoreSuite) SetupTest() {
	s.store = NewInMemoryPetitionStore()
}

func (s *PetitionStoreSuite) newPetition(status models.Status) *models.Petition {
	p, err := models.NewPetition(domain.NewUserID(), "Fund the night shelter", "Winter capacity is short by forty beds.", domain.CategoryWelfare, domain.VisibilityPublic)
	s.Require().NoError(err)
	p.Status = status
	return p
}

func (s *PetitionStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	p := s.newPetition(models.StatusDraft)

	s.Require().NoError(s.store.Create(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, found.ID)
	s.Equal(p.Title, found.Title)

	s.Run("duplicate create conflicts", func() {
		s.Require().ErrorIs(s.store.Create(ctx, p), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(ctx, domain.NewPetitionID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reads are isolated from caller mutation", func() {
		found.Title = "mutated"
		again, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Title, again.Title)
	})
}

func (s *PetitionStoreSuite) TestUpdateVersioning() {
	ctx := context.Background()
	p := s.newPetition(models.StatusDraft)
	s.Require().NoError(s.store.Create(ctx, p))

	s.Run("update bumps the version", func() {
		loaded, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)

		loaded.Description = "Winter capacity is short by sixty beds."
		s.Require().NoError(s.store.Update(ctx, loaded))
		s.Equal(2, loaded.Version)
	})

	s.Run("stale writer loses", func() {
		first, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		second, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)

		first.Title = "first writer"
		s.Require().NoError(s.store.Update(ctx, first))

		second.Title = "second writer"
		s.Require().ErrorIs(s.store.Update(ctx, second), sentinel.ErrConflict)
	})

	s.Run("updating a missing petition is not found", func() {
		ghost := s.newPetition(models.StatusDraft)
		s.Require().ErrorIs(s.store.Update(ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *PetitionStoreSuite) TestListByStatus() {
	ctx := context.Background()

	older := s.newPetition(models.StatusUnderLegalReview)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := s.newPetition(models.StatusUnderLegalReview)
	drafted := s.newPetition(models.StatusDraft)

	for _, p := range []*models.Petition{older, newer, drafted} {
		s.Require().NoError(s.store.Create(ctx, p))
	}

	queue, err := s.store.ListByStatus(ctx, models.StatusUnderLegalReview)
	s.Require().NoError(err)
	s.Require().Len(queue, 2)
	s.Equal(newer.ID, queue[0].ID)
	s.Equal(older.ID, queue[1].ID)
}

func (s *PetitionStoreSuite) TestListByOwner() {
	ctx := context.Background()
	mine := s.newPetition(models.StatusDraft)
	other := s.newPetition(models.StatusDraft)
	for _, p := range []*models.Petition{mine, other} {
		s.Require().NoError(s.store.Create(ctx, p))
	}

	owned, err := s.store.ListByOwner(ctx, mine.OwnerID)
	s.Require().NoError(err)
	s.Require().Len(owned, 1)
	s.Equal(mine.ID, owned[0].ID)
}

func (s *PetitionStoreSuite) TestAddSupporter() {
	ctx := context.Background()
	p := s.newPetition(models.StatusPublished)
	s.Require().NoError(s.store.Create(ctx, p))

	supporter := domain.NewUserID()

	count, err := s.store.AddSupporter(ctx, p.ID, supporter)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Run("second support from the same user is refused", func() {
		_, err := s.store.AddSupporter(ctx, p.ID, supporter)
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown petition is not found", func() {
		_, err := s.store.AddSupporter(ctx, domain.NewPetitionID(), supporter)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent distinct supporters all count once", func() {
		const supporters = 25
		var wg sync.WaitGroup
		var failures atomic.Int32
		for i := 0; i < supporters; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.store.AddSupporter(ctx, p.ID, domain.NewUserID()); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()
		s.Zero(failures.Load())

		final, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(1+supporters, final.SupporterCount)
	})
}

type EvidenceStoreSuite struct {
	suite.Suite
	store *InMemoryEvidenceStore
}

func TestEvidenceStoreSuite(t *testing.T) {
	suite.Run(t, new(EvidenceStoreSuite))
}

func (s *EvidenceStoreSuite) SetupTest() {
	s.store = NewInMemoryEvidenceStore()
}

func (s *EvidenceStoreSuite) newEvidence(petitionID domain.PetitionID) *models.Evidence {
	ev, err := models.NewEvidence(petitionID, domain.NewUserID(), "Shelter occupancy log", domain.FileTypeDocument, "s3://evidence/log.xlsx", 900, "")
	s.Require().NoError(err)
	return ev
}

func (s *EvidenceStoreSuite) TestListByPetitionOrdersByUpload() {
	ctx := context.Background()
	petitionID := domain.NewPetitionID()

	first := s.newEvidence(petitionID)
	first.UploadedAt = time.Now().Add(-time.Minute)
	second := s.newEvidence(petitionID)
	unrelated := s.newEvidence(domain.NewPetitionID())

	for _, ev := range []*models.Evidence{second, first, unrelated} {
		s.Require().NoError(s.store.Create(ctx, ev))
	}

	listed, err := s.store.ListByPetition(ctx, petitionID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(first.ID, listed[0].ID)
	s.Equal(second.ID, listed[1].ID)
}

func (s *EvidenceStoreSuite) TestFindMany() {
	ctx := context.Background()
	petitionID := domain.NewPetitionID()

	a := s.newEvidence(petitionID)
	b := s.newEvidence(petitionID)
	for _, ev := range []*models.Evidence{a, b} {
		s.Require().NoError(s.store.Create(ctx, ev))
	}

	s.Run("preserves the requested order", func() {
		found, err := s.store.FindMany(ctx, []domain.EvidenceID{b.ID, a.ID})
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal(b.ID, found[0].ID)
		s.Equal(a.ID, found[1].ID)
	})

	s.Run("any missing id fails the whole lookup", func() {
		_, err := s.store.FindMany(ctx, []domain.EvidenceID{a.ID, domain.NewEvidenceID()})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
