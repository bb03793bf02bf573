package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/petition/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// PostgresEvidenceStore persists evidence rows in PostgreSQL.
type PostgresEvidenceStore struct {
	db *sql.DB
}

func NewPostgresEvidenceStore(db *sql.DB) *PostgresEvidenceStore {
	return &PostgresEvidenceStore{db: db}
}

const evidenceColumns = `id, petition_id, uploader_id, title, file_type, content_ref,
	size_bytes, case_tag, status, verified_by, rejection_reason, uploaded_at, verdict_at`

func (s *PostgresEvidenceStore) Create(ctx context.Context, e *models.Evidence) error {
	query := `
		INSERT INTO evidence (` + evidenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var verifiedBy any
	if !e.VerifiedBy.IsNil() {
		verifiedBy = uuid.UUID(e.VerifiedBy)
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.PetitionID),
		uuid.UUID(e.UploaderID),
		e.Title,
		string(e.FileType),
		e.ContentRef,
		e.SizeBytes,
		nullableString(e.CaseTag),
		string(e.Status),
		verifiedBy,
		nullableString(e.RejectionReason),
		e.UploadedAt,
		e.VerdictAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create evidence: %w", err)
	}
	return nil
}

func (s *PostgresEvidenceStore) FindByID(ctx context.Context, id domain.EvidenceID) (*models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = $1`
	e, err := scanEvidence(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find evidence: %w", err)
	}
	return e, nil
}

func (s *PostgresEvidenceStore) Update(ctx context.Context, e *models.Evidence) error {
	query := `
		UPDATE evidence
		SET status = $1, verified_by = $2, rejection_reason = $3, verdict_at = $4
		WHERE id = $5
	`
	var verifiedBy any
	if !e.VerifiedBy.IsNil() {
		verifiedBy = uuid.UUID(e.VerifiedBy)
	}
	res, err := s.db.ExecContext(ctx, query,
		string(e.Status),
		verifiedBy,
		nullableString(e.RejectionReason),
		e.VerdictAt,
		uuid.UUID(e.ID),
	)
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update evidence: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresEvidenceStore) ListByPetition(ctx context.Context, petitionID domain.PetitionID) ([]*models.Evidence, error) {
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE petition_id = $1 ORDER BY uploaded_at ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(petitionID))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()
	return scanEvidenceRows(rows)
}

// FindMany loads the given evidence rows, preserving input order. A missing
// row fails the whole lookup.
func (s *PostgresEvidenceStore) FindMany(ctx context.Context, ids []domain.EvidenceID) ([]*models.Evidence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	query := `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = ANY($1)`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find evidence batch: %w", err)
	}
	defer rows.Close()
	found, err := scanEvidenceRows(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[domain.EvidenceID]*models.Evidence, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]*models.Evidence, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		out = append(out, e)
	}
	return out, nil
}

func scanEvidence(row rowScanner) (*models.Evidence, error) {
	var (
		e          models.Evidence
		id         uuid.UUID
		petitionID uuid.UUID
		uploaderID uuid.UUID
		fileType   string
		caseTag    sql.NullString
		status     string
		verifiedBy uuid.NullUUID
		reason     sql.NullString
		verdictAt  sql.NullTime
	)
	err := row.Scan(&id, &petitionID, &uploaderID, &e.Title, &fileType, &e.ContentRef,
		&e.SizeBytes, &caseTag, &status, &verifiedBy, &reason, &e.UploadedAt, &verdictAt)
	if err != nil {
		return nil, err
	}
	e.ID = domain.EvidenceID(id)
	e.PetitionID = domain.PetitionID(petitionID)
	e.UploaderID = domain.UserID(uploaderID)
	e.FileType = domain.FileType(fileType)
	e.CaseTag = caseTag.String
	e.Status = models.EvidenceStatus(status)
	if verifiedBy.Valid {
		e.VerifiedBy = domain.UserID(verifiedBy.UUID)
	}
	e.RejectionReason = reason.String
	if verdictAt.Valid {
		t := verdictAt.Time
		e.VerdictAt = &t
	}
	return &e, nil
}

func scanEvidenceRows(rows *sql.Rows) ([]*models.Evidence, error) {
	var out []*models.Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
