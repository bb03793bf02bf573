package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/petition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
	txcontext "justicerollon/pkg/platform/tx"
)

const (
	uniqueViolation = "23505"
	fkViolation     = "23503"
)

// PostgresPetitionStore persists petitions in PostgreSQL. Writes join a
// context transaction when one is present so lifecycle changes and index
// snapshots commit together.
type PostgresPetitionStore struct {
	db *sql.DB
}

func NewPostgresPetitionStore(db *sql.DB) *PostgresPetitionStore {
	return &PostgresPetitionStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresPetitionStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const petitionColumns = `id, owner_id, title, description, category, visibility, status,
	evidence_ids, lawyer_reason, admin_reason, supporter_count, version,
	created_at, updated_at, published_at`

func (s *PostgresPetitionStore) Create(ctx context.Context, p *models.Petition) error {
	query := `
		INSERT INTO petitions (` + petitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID),
		uuid.UUID(p.OwnerID),
		p.Title,
		p.Description,
		string(p.Category),
		string(p.Visibility),
		string(p.Status),
		evidenceIDArray(p.EvidenceIDs),
		nullableString(p.LawyerReason),
		nullableString(p.AdminReason),
		p.SupporterCount,
		p.Version,
		p.CreatedAt,
		p.UpdatedAt,
		p.PublishedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create petition: %w", err)
	}
	return nil
}

func (s *PostgresPetitionStore) FindByID(ctx context.Context, id domain.PetitionID) (*models.Petition, error) {
	query := `SELECT ` + petitionColumns + ` FROM petitions WHERE id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(id))
	p, err := scanPetition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find petition: %w", err)
	}
	return p, nil
}

// Update writes the aggregate back, refusing stale versions. On success the
// in-memory aggregate's version is advanced to match the row.
func (s *PostgresPetitionStore) Update(ctx context.Context, p *models.Petition) error {
	query := `
		UPDATE petitions
		SET status = $1, evidence_ids = $2, lawyer_reason = $3, admin_reason = $4,
			supporter_count = $5, published_at = $6, updated_at = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		string(p.Status),
		evidenceIDArray(p.EvidenceIDs),
		nullableString(p.LawyerReason),
		nullableString(p.AdminReason),
		p.SupporterCount,
		p.PublishedAt,
		time.Now().UTC(),
		uuid.UUID(p.ID),
		p.Version,
	)
	if err != nil {
		return fmt.Errorf("update petition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update petition: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.execer(ctx).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM petitions WHERE id = $1)`, uuid.UUID(p.ID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("update petition: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	p.Version++
	return nil
}

func (s *PostgresPetitionStore) ListByOwner(ctx context.Context, ownerID domain.UserID) ([]*models.Petition, error) {
	query := `SELECT ` + petitionColumns + ` FROM petitions WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list petitions by owner: %w", err)
	}
	defer rows.Close()
	return scanPetitions(rows)
}

func (s *PostgresPetitionStore) ListByStatus(ctx context.Context, status models.Status) ([]*models.Petition, error) {
	query := `SELECT ` + petitionColumns + ` FROM petitions WHERE status = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list petitions by status: %w", err)
	}
	defer rows.Close()
	return scanPetitions(rows)
}

// AddSupporter inserts the support row and bumps the denormalized count in
// one statement so concurrent supports never lose an increment.
func (s *PostgresPetitionStore) AddSupporter(ctx context.Context, petitionID domain.PetitionID, userID domain.UserID) (int, error) {
	query := `
		WITH ins AS (
			INSERT INTO petition_supporters (petition_id, user_id, created_at)
			VALUES ($1, $2, $3)
			RETURNING petition_id
		)
		UPDATE petitions p
		SET supporter_count = supporter_count + 1
		FROM ins
		WHERE p.id = ins.petition_id
		RETURNING p.supporter_count
	`
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(petitionID), uuid.UUID(userID), time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return 0, sentinel.ErrAlreadyUsed
			case fkViolation:
				return 0, sentinel.ErrNotFound
			}
		}
		return 0, fmt.Errorf("add supporter: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPetition(row rowScanner) (*models.Petition, error) {
	var (
		p            models.Petition
		id           uuid.UUID
		ownerID      uuid.UUID
		category     string
		visibility   string
		status       string
		evidenceIDs  pq.StringArray
		lawyerReason sql.NullString
		adminReason  sql.NullString
		publishedAt  sql.NullTime
	)
	err := row.Scan(&id, &ownerID, &p.Title, &p.Description, &category, &visibility, &status,
		&evidenceIDs, &lawyerReason, &adminReason, &p.SupporterCount, &p.Version,
		&p.CreatedAt, &p.UpdatedAt, &publishedAt)
	if err != nil {
		return nil, err
	}
	p.ID = domain.PetitionID(id)
	p.OwnerID = domain.UserID(ownerID)
	p.Category = domain.Category(category)
	p.Visibility = domain.Visibility(visibility)
	p.Status = models.Status(status)
	p.LawyerReason = lawyerReason.String
	p.AdminReason = adminReason.String
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	for _, raw := range evidenceIDs {
		eid, err := domain.ParseEvidenceID(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt evidence id %q: %w", raw, err)
		}
		p.EvidenceIDs = append(p.EvidenceIDs, eid)
	}
	return &p, nil
}

func scanPetitions(rows *sql.Rows) ([]*models.Petition, error) {
	var out []*models.Petition
	for rows.Next() {
		p, err := scanPetition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan petition: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func evidenceIDArray(ids []domain.EvidenceID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
