// Package store provides persistence for justice index entries. Entries are
// write-once: there is no update or delete.
package store

import (
	"context"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/pkg/domain"
)

// EntryStore persists index entries.
type EntryStore interface {
	Create(ctx context.Context, e *models.Entry) error
	FindByID(ctx context.Context, id domain.EntryID) (*models.Entry, error)
	// FindLatestByPetition returns the most recent entry for the petition.
	FindLatestByPetition(ctx context.Context, petitionID domain.PetitionID) (*models.Entry, error)
	// Search lists entries newest-first. A non-empty query filters on title
	// and description, case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*models.Entry, error)
}
