package models

import (
	"strings"
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

// User is the aggregate root for an account.
//
// Invariants:
//   - Username is non-empty, at most 64 characters, lowercase-trimmed
//   - Role is one of citizen/lawyer/admin
//   - PasswordHash is never empty and never serialized
//   - Identity (ID, Username, CreatedAt) is immutable after construction
//
// Role elevation (citizen → lawyer/admin) is an administrator action and goes
// through UpdateRole; there is no self-service path.
type User struct {
	ID           domain.UserID `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email,omitempty"`
	Role         domain.Role   `json:"role"`
	PasswordHash string        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

func NewUser(userID domain.UserID, username, email string, role domain.Role, passwordHash string, now time.Time) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if len(username) > 64 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username must be 64 characters or less")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid role")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash cannot be empty")
	}
	return &User{
		ID:           userID,
		Username:     username,
		Email:        strings.TrimSpace(email),
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

// IsLawyer reports whether the user may issue evidence verdicts.
func (u *User) IsLawyer() bool { return u.Role == domain.RoleLawyer }

// IsAdmin reports whether the user may moderate petitions.
func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }
