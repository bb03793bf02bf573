package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
	txcontext "justicerollon/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresEntryStore persists index entries in PostgreSQL. Create joins a
// context transaction so the snapshot commits with the publication itself;
// evidence refs are stored as a JSONB document since they are read back as a
// unit and never queried individually.
type PostgresEntryStore struct {
	db *sql.DB
}

func NewPostgresEntryStore(db *sql.DB) *PostgresEntryStore {
	return &PostgresEntryStore{db: db}
}

const entryColumns = `id, petition_id, owner_id, title, description, category, evidence, published_at, created_at`

func (s *PostgresEntryStore) Create(ctx context.Context, e *models.Entry) error {
	evidence, err := json.Marshal(e.Evidence)
	if err != nil {
		return fmt.Errorf("marshal evidence refs: %w", err)
	}
	query := `
		INSERT INTO index_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var exec interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = s.db
	if tx, ok := txcontext.From(ctx); ok {
		exec = tx
	}
	_, err = exec.ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.PetitionID),
		uuid.UUID(e.OwnerID),
		e.Title,
		e.Description,
		string(e.Category),
		evidence,
		e.PublishedAt,
		e.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create index entry: %w", err)
	}
	return nil
}

func (s *PostgresEntryStore) FindByID(ctx context.Context, id domain.EntryID) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM index_entries WHERE id = $1`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find index entry: %w", err)
	}
	return e, nil
}

func (s *PostgresEntryStore) FindLatestByPetition(ctx context.Context, petitionID domain.PetitionID) (*models.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM index_entries
		WHERE petition_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(petitionID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest index entry: %w", err)
	}
	return e, nil
}

func (s *PostgresEntryStore) Search(ctx context.Context, query string, limit int) ([]*models.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var (
		rows *sql.Rows
		err  error
	)
	needle := strings.TrimSpace(query)
	if needle == "" {
		q := `SELECT ` + entryColumns + ` FROM index_entries ORDER BY created_at DESC LIMIT $1`
		rows, err = s.db.QueryContext(ctx, q, limit)
	} else {
		q := `
			SELECT ` + entryColumns + `
			FROM index_entries
			WHERE title ILIKE $1 OR description ILIKE $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		rows, err = s.db.QueryContext(ctx, q, "%"+escapeLike(needle)+"%", limit)
	}
	if err != nil {
		return nil, fmt.Errorf("search index entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan index entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e          models.Entry
		id         uuid.UUID
		petitionID uuid.UUID
		ownerID    uuid.UUID
		category   string
		evidence   []byte
	)
	err := row.Scan(&id, &petitionID, &ownerID, &e.Title, &e.Description, &category,
		&evidence, &e.PublishedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = domain.EntryID(id)
	e.PetitionID = domain.PetitionID(petitionID)
	e.OwnerID = domain.UserID(ownerID)
	e.Category = domain.Category(category)
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &e.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence refs: %w", err)
		}
	}
	return &e, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
