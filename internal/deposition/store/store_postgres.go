package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/deposition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresDepositionStore persists depositions in PostgreSQL. A unique index
// on (petition_id, sequence) backs the per-petition ordering; the sequence is
// computed in the insert itself so two concurrent writers collide on the
// constraint and one retries.
type PostgresDepositionStore struct {
	db *sql.DB
}

func NewPostgresDepositionStore(db *sql.DB) *PostgresDepositionStore {
	return &PostgresDepositionStore{db: db}
}

const depositionColumns = `id, petition_id, author_id, title, body, sequence, created_at`

const createRetries = 3

func (s *PostgresDepositionStore) Create(ctx context.Context, d *models.Deposition) error {
	query := `
		INSERT INTO depositions (` + depositionColumns + `)
		SELECT $1, $2, $3, $4, $5,
			COALESCE((SELECT MAX(sequence) FROM depositions WHERE petition_id = $2), 0) + 1,
			$6
		RETURNING sequence
	`
	var lastErr error
	for range createRetries {
		err := s.db.QueryRowContext(ctx, query,
			uuid.UUID(d.ID),
			uuid.UUID(d.PetitionID),
			uuid.UUID(d.AuthorID),
			d.Title,
			d.Body,
			d.CreatedAt,
		).Scan(&d.Sequence)
		if err == nil {
			return nil
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			lastErr = sentinel.ErrConflict
			continue
		}
		return fmt.Errorf("create deposition: %w", err)
	}
	return lastErr
}

func (s *PostgresDepositionStore) FindByID(ctx context.Context, id domain.DepositionID) (*models.Deposition, error) {
	query := `SELECT ` + depositionColumns + ` FROM depositions WHERE id = $1`
	d, err := scanDeposition(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find deposition: %w", err)
	}
	return d, nil
}

func (s *PostgresDepositionStore) ListByPetition(ctx context.Context, petitionID domain.PetitionID) ([]*models.Deposition, error) {
	query := `SELECT ` + depositionColumns + ` FROM depositions WHERE petition_id = $1 ORDER BY sequence ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(petitionID))
	if err != nil {
		return nil, fmt.Errorf("list depositions: %w", err)
	}
	defer rows.Close()

	var out []*models.Deposition
	for rows.Next() {
		d, err := scanDeposition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deposition: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeposition(row rowScanner) (*models.Deposition, error) {
	var (
		d          models.Deposition
		id         uuid.UUID
		petitionID uuid.UUID
		authorID   uuid.UUID
	)
	if err := row.Scan(&id, &petitionID, &authorID, &d.Title, &d.Body, &d.Sequence, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.ID = domain.DepositionID(id)
	d.PetitionID = domain.PetitionID(petitionID)
	d.AuthorID = domain.UserID(authorID)
	return &d, nil
}
