package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/identity/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// PostgresUserStore persists users in PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresUserStore) CreateIfUsernameAvailable(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		strings.ToLower(user.Username),
		user.Email,
		string(user.Role),
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID domain.UserID) (*models.User, error) {
	query := `
		SELECT id, username, email, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(s.db.QueryRowContext(ctx, query, uuid.UUID(userID)))
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, email, role, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	return scanUser(s.db.QueryRowContext(ctx, query, strings.ToLower(username)))
}

func (s *PostgresUserStore) UpdateRole(ctx context.Context, userID domain.UserID, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1`,
		uuid.UUID(userID), string(role),
	)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user   models.User
		rawID  uuid.UUID
		role   string
		email  sql.NullString
	)
	err := row.Scan(&rawID, &user.Username, &email, &role, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID = domain.UserID(rawID)
	user.Role = domain.Role(role)
	user.Email = email.String
	return &user, nil
}
