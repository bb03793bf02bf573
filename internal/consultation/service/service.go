// Package service orchestrates consultation scheduling: lawyers open slots,
// citizens book them, lawyers confirm.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"justicerollon/internal/audit"
	"justicerollon/internal/consultation/models"
	"justicerollon/internal/consultation/store"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
	txcontext "justicerollon/pkg/platform/tx"
)

// AuditPublisher records scheduling events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs consultation scheduling.
type Service struct {
	slots    store.SlotStore
	bookings store.BookingStore

	db             *sql.DB
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithDB makes the slot flip and the booking insert commit together.
func WithDB(db *sql.DB) Option {
	return func(s *Service) { s.db = db }
}

func New(slots store.SlotStore, bookings store.BookingStore, opts ...Option) *Service {
	s := &Service{
		slots:    slots,
		bookings: bookings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSlot opens a bookable window for the calling lawyer.
func (s *Service) CreateSlot(ctx context.Context, actorID domain.UserID, role domain.Role, startsAt, endsAt time.Time) (*models.Slot, error) {
	if role != domain.RoleLawyer {
		return nil, dErrors.New(dErrors.CodeForbidden, "only lawyers may open consultation slots")
	}
	slot, err := models.NewSlot(actorID, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create slot")
	}
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: slot.ID.String(),
		Action:  string(audit.EventSlotCreated),
	})
	return slot, nil
}

// ListOpenSlots lists future open slots.
func (s *Service) ListOpenSlots(ctx context.Context) ([]*models.Slot, error) {
	out, err := s.slots.ListOpen(ctx, time.Now())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list slots")
	}
	return out, nil
}

// ListLawyerSlots lists the calling lawyer's own slots, any status.
func (s *Service) ListLawyerSlots(ctx context.Context, actorID domain.UserID, role domain.Role) ([]*models.Slot, error) {
	if role != domain.RoleLawyer {
		return nil, dErrors.New(dErrors.CodeForbidden, "only lawyers have consultation slots")
	}
	out, err := s.slots.ListByLawyer(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list slots")
	}
	return out, nil
}

// Book claims an open slot for the calling citizen. Exactly one of two
// concurrent bookings succeeds; the loser gets a conflict.
func (s *Service) Book(ctx context.Context, actorID domain.UserID, role domain.Role, slotID domain.SlotID, petitionID domain.PetitionID, note string) (*models.Booking, error) {
	if role != domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens may book consultations")
	}
	booking, err := models.NewBooking(slotID, actorID, petitionID, note)
	if err != nil {
		return nil, err
	}

	err = txcontext.Execute(ctx, s.db, func(ctx context.Context) error {
		if err := s.slots.Book(ctx, slotID); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "slot not found")
			case errors.Is(err, sentinel.ErrInvalidState):
				return dErrors.New(dErrors.CodeConflict, "slot is no longer open")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to book slot")
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: booking.ID.String(),
		Action:  string(audit.EventSlotBooked),
	})
	return booking, nil
}

// Confirm lets the slot's lawyer accept a pending booking.
func (s *Service) Confirm(ctx context.Context, actorID domain.UserID, role domain.Role, bookingID domain.BookingID) (*models.Booking, error) {
	booking, slot, err := s.loadBookingWithSlot(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleLawyer || slot.LawyerID != actorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the slot's lawyer may confirm")
	}
	if err := booking.CanConfirm(); err != nil {
		return nil, err
	}
	booking.ApplyConfirm()
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm booking")
	}
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: booking.ID.String(),
		Action:  string(audit.EventBookingConfirmed),
	})
	return booking, nil
}

// Cancel voids a booking and reopens the slot. The booking citizen or the
// slot's lawyer may cancel.
func (s *Service) Cancel(ctx context.Context, actorID domain.UserID, role domain.Role, bookingID domain.BookingID) (*models.Booking, error) {
	booking, slot, err := s.loadBookingWithSlot(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	isCitizen := booking.CitizenID == actorID
	isLawyer := role == domain.RoleLawyer && slot.LawyerID == actorID
	if !isCitizen && !isLawyer {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a party to this booking")
	}
	if err := booking.CanCancel(); err != nil {
		return nil, err
	}
	booking.ApplyCancel()

	err = txcontext.Execute(ctx, s.db, func(ctx context.Context) error {
		if err := s.bookings.Update(ctx, booking); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel booking")
		}
		if err := s.slots.Release(ctx, slot.ID); err != nil && !errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reopen slot")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings lists the calling citizen's bookings.
func (s *Service) ListBookings(ctx context.Context, actorID domain.UserID) ([]*models.Booking, error) {
	out, err := s.bookings.ListByCitizen(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list bookings")
	}
	return out, nil
}

func (s *Service) loadBookingWithSlot(ctx context.Context, bookingID domain.BookingID) (*models.Booking, *models.Slot, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "booking not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load booking")
	}
	slot, err := s.slots.FindByID(ctx, booking.SlotID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load slot")
	}
	return booking, slot, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
