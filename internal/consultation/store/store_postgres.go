package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"justicerollon/internal/consultation/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
	txcontext "justicerollon/pkg/platform/tx"
)

const uniqueViolation = "23505"

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresSlotStore persists consultation slots in PostgreSQL.
type PostgresSlotStore struct {
	db *sql.DB
}

func NewPostgresSlotStore(db *sql.DB) *PostgresSlotStore {
	return &PostgresSlotStore{db: db}
}

const slotColumns = `id, lawyer_id, starts_at, ends_at, status, created_at`

func (s *PostgresSlotStore) Create(ctx context.Context, slot *models.Slot) error {
	query := `INSERT INTO consultation_slots (` + slotColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(slot.ID),
		uuid.UUID(slot.LawyerID),
		slot.StartsAt,
		slot.EndsAt,
		string(slot.Status),
		slot.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

func (s *PostgresSlotStore) FindByID(ctx context.Context, id domain.SlotID) (*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM consultation_slots WHERE id = $1`
	slot, err := scanSlot(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	return slot, nil
}

// Book flips the slot open→booked. The WHERE clause makes the flip atomic:
// of two racing bookings only one matches the open row.
func (s *PostgresSlotStore) Book(ctx context.Context, id domain.SlotID) error {
	return s.flip(ctx, id, models.SlotOpen, models.SlotBooked)
}

func (s *PostgresSlotStore) Release(ctx context.Context, id domain.SlotID) error {
	return s.flip(ctx, id, models.SlotBooked, models.SlotOpen)
}

func (s *PostgresSlotStore) Cancel(ctx context.Context, id domain.SlotID) error {
	query := `UPDATE consultation_slots SET status = $1 WHERE id = $2`
	res, err := execer(ctx, s.db).ExecContext(ctx, query, string(models.SlotCancelled), uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("cancel slot: %w", err)
	}
	return checkAffected(res)
}

func (s *PostgresSlotStore) flip(ctx context.Context, id domain.SlotID, from, to models.SlotStatus) error {
	query := `UPDATE consultation_slots SET status = $1 WHERE id = $2 AND status = $3`
	res, err := execer(ctx, s.db).ExecContext(ctx, query, string(to), uuid.UUID(id), string(from))
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := execer(ctx, s.db).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM consultation_slots WHERE id = $1)`, uuid.UUID(id),
		).Scan(&exists); err != nil {
			return fmt.Errorf("update slot status: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresSlotStore) ListOpen(ctx context.Context, from time.Time) ([]*models.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM consultation_slots
		WHERE status = $1 AND starts_at >= $2
		ORDER BY starts_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(models.SlotOpen), from)
	if err != nil {
		return nil, fmt.Errorf("list open slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (s *PostgresSlotStore) ListByLawyer(ctx context.Context, lawyerID domain.UserID) ([]*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM consultation_slots WHERE lawyer_id = $1 ORDER BY starts_at ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(lawyerID))
	if err != nil {
		return nil, fmt.Errorf("list slots by lawyer: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*models.Slot, error) {
	var (
		slot     models.Slot
		id       uuid.UUID
		lawyerID uuid.UUID
		status   string
	)
	if err := row.Scan(&id, &lawyerID, &slot.StartsAt, &slot.EndsAt, &status, &slot.CreatedAt); err != nil {
		return nil, err
	}
	slot.ID = domain.SlotID(id)
	slot.LawyerID = domain.UserID(lawyerID)
	slot.Status = models.SlotStatus(status)
	return &slot, nil
}

func scanSlots(rows *sql.Rows) ([]*models.Slot, error) {
	var out []*models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

// PostgresBookingStore persists bookings in PostgreSQL.
type PostgresBookingStore struct {
	db *sql.DB
}

func NewPostgresBookingStore(db *sql.DB) *PostgresBookingStore {
	return &PostgresBookingStore{db: db}
}

const bookingColumns = `id, slot_id, citizen_id, petition_id, note, status, created_at`

func (s *PostgresBookingStore) Create(ctx context.Context, b *models.Booking) error {
	query := `INSERT INTO consultation_bookings (` + bookingColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	var petitionID any
	if !b.PetitionID.IsNil() {
		petitionID = uuid.UUID(b.PetitionID)
	}
	_, err := execer(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(b.ID),
		uuid.UUID(b.SlotID),
		uuid.UUID(b.CitizenID),
		petitionID,
		nullableString(b.Note),
		string(b.Status),
		b.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (s *PostgresBookingStore) FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM consultation_bookings WHERE id = $1`
	b, err := scanBooking(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return b, nil
}

func (s *PostgresBookingStore) FindBySlot(ctx context.Context, slotID domain.SlotID) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM consultation_bookings
		WHERE slot_id = $1 AND status <> $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	b, err := scanBooking(s.db.QueryRowContext(ctx, query, uuid.UUID(slotID), string(models.BookingCancelled)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking by slot: %w", err)
	}
	return b, nil
}

func (s *PostgresBookingStore) Update(ctx context.Context, b *models.Booking) error {
	query := `UPDATE consultation_bookings SET status = $1, note = $2 WHERE id = $3`
	res, err := execer(ctx, s.db).ExecContext(ctx, query, string(b.Status), nullableString(b.Note), uuid.UUID(b.ID))
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return checkAffected(res)
}

func (s *PostgresBookingStore) ListByCitizen(ctx context.Context, citizenID domain.UserID) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM consultation_bookings WHERE citizen_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(citizenID))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		id         uuid.UUID
		slotID     uuid.UUID
		citizenID  uuid.UUID
		petitionID uuid.NullUUID
		note       sql.NullString
		status     string
	)
	if err := row.Scan(&id, &slotID, &citizenID, &petitionID, &note, &status, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.ID = domain.BookingID(id)
	b.SlotID = domain.SlotID(slotID)
	b.CitizenID = domain.UserID(citizenID)
	if petitionID.Valid {
		b.PetitionID = domain.PetitionID(petitionID.UUID)
	}
	b.Note = note.String
	b.Status = models.BookingStatus(status)
	return &b, nil
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
