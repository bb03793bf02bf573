// Package store provides persistence for petitions and their evidence.
// Implementations return sentinel infra errors; services translate them into
// domain errors.
package store

import (
	"context"

	"justicerollon/internal/petition/models"
	"justicerollon/pkg/domain"
)

// PetitionStore persists petition aggregates.
//
// Update enforces optimistic concurrency: the write succeeds only when the
// stored row still carries the version the aggregate was loaded with, and the
// persisted version is incremented. A stale write returns
// sentinel.ErrConflict.
type PetitionStore interface {
	Create(ctx context.Context, p *models.Petition) error
	FindByID(ctx context.Context, id domain.PetitionID) (*models.Petition, error)
	Update(ctx context.Context, p *models.Petition) error
	ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*models.Petition, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Petition, error)

	// AddSupporter records the user's support exactly once and returns the
	// new supporter count. A repeat support returns sentinel.ErrAlreadyUsed.
	AddSupporter(ctx context.Context, petitionID domain.PetitionID, userID domain.UserID) (int, error)
}

// EvidenceStore persists evidence rows. Rows are append-only apart from the
// one-shot verdict update.
type EvidenceStore interface {
	Create(ctx context.Context, e *models.Evidence) error
	FindByID(ctx context.Context, id domain.EvidenceID) (*models.Evidence, error)
	Update(ctx context.Context, e *models.Evidence) error
	ListByPetition(ctx context.Context, petitionID domain.PetitionID) ([]*models.Evidence, error)
	FindMany(ctx context.Context, ids []domain.EvidenceID) ([]*models.Evidence, error)
}
