// Package service exposes the public justice index: it accepts publication
// snapshots from the moderation workflow and serves read-only searches.
package service

import (
	"context"
	"errors"
	"log/slog"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/internal/justiceindex/store"
	petitionsvc "justicerollon/internal/petition/service"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
)

const maxSearchLimit = 200

// Service serves the public index.
type Service struct {
	entries store.EntryStore
	logger  *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(entries store.EntryStore, opts ...Option) *Service {
	s := &Service{entries: entries, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishSnapshot records a new immutable entry for a freshly published
// petition. Each publication appends its own entry, so a petition that went
// through a rejection cycle keeps its earlier snapshots.
func (s *Service) PublishSnapshot(ctx context.Context, snap petitionsvc.IndexSnapshot) error {
	refs := make([]models.EvidenceRef, 0, len(snap.Evidence))
	for _, ev := range snap.Evidence {
		refs = append(refs, models.EvidenceRef{
			EvidenceID: ev.EvidenceID,
			Title:      ev.Title,
			FileType:   ev.FileType,
			CaseTag:    ev.CaseTag,
		})
	}
	entry, err := models.NewEntry(snap.PetitionID, snap.OwnerID, snap.Title, snap.Description, snap.Category, refs, snap.PublishedAt)
	if err != nil {
		return err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store index entry")
	}
	s.logger.InfoContext(ctx, "index entry published",
		"entry_id", entry.ID.String(),
		"petition_id", entry.PetitionID.String(),
	)
	return nil
}

// Search lists entries, newest publication first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*models.Entry, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	out, err := s.entries.Search(ctx, query, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search index")
	}
	return out, nil
}

// Get loads a single entry.
func (s *Service) Get(ctx context.Context, entryID domain.EntryID) (*models.Entry, error) {
	e, err := s.entries.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "index entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load index entry")
	}
	return e, nil
}

// Latest loads the most recent entry for a petition.
func (s *Service) Latest(ctx context.Context, petitionID domain.PetitionID) (*models.Entry, error) {
	e, err := s.entries.FindLatestByPetition(ctx, petitionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "petition is not in the index")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load index entry")
	}
	return e, nil
}
