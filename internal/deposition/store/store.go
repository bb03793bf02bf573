// Package store provides persistence for depositions.
package store

import (
	"context"

	"justicerollon/internal/deposition/models"
	"justicerollon/pkg/domain"
)

// DepositionStore persists depositions. Create assigns the next sequence
// number for the petition atomically; rows are never updated or deleted.
type DepositionStore interface {
	Create(ctx context.Context, d *models.Deposition) error
	FindByID(ctx context.Context, id domain.DepositionID) (*models.Deposition, error)
	ListByPetition(ctx context.Context, petitionID domain.PetitionID) ([]*models.Deposition, error)
}
