package store

import (
	"context"

	"justicerollon/internal/identity/models"
	"justicerollon/pkg/domain"
)

// UserStore persists accounts. Stores are pure I/O; uniqueness of usernames
// is the only rule enforced here because it needs the storage engine.
type UserStore interface {
	CreateIfUsernameAvailable(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID domain.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateRole(ctx context.Context, userID domain.UserID, role domain.Role) error
}
