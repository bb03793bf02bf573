package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "justicerollon/pkg/domain"
	txcontext "justicerollon/pkg/platform/tx"
)

// PostgresStore persists audit events in PostgreSQL. Joins a context
// transaction when one is present so lifecycle writes and their audit records
// commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, category, actor_id, subject, action, reason, request_id, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var actorID any
	if !event.ActorID.IsNil() {
		actorID = uuid.UUID(event.ActorID)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		actorID,
		event.Subject,
		event.Action,
		nullableString(event.Reason),
		nullableString(event.RequestID),
		nullableString(event.Device),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error) {
	query := `
		SELECT category, actor_id, subject, action, reason, request_id, device, created_at
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("list audit events by actor: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT category, actor_id, subject, action, reason, request_id, device, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var (
			e       Event
			actorID uuid.NullUUID
			reason  sql.NullString
			reqID   sql.NullString
			device  sql.NullString
		)
		if err := rows.Scan(&e.Category, &actorID, &e.Subject, &e.Action, &reason, &reqID, &device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actorID.Valid {
			e.ActorID = id.UserID(actorID.UUID)
		}
		e.Reason = reason.String
		e.RequestID = reqID.String
		e.Device = device.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
