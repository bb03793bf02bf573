// Package store provides persistence for consultation slots and bookings.
package store

import (
	"context"
	"time"

	"justicerollon/internal/consultation/models"
	"justicerollon/pkg/domain"
)

// SlotStore persists consultation slots.
//
// Book is the contended operation: it must flip open→booked atomically and
// return sentinel.ErrInvalidState when the slot is no longer open, so that
// exactly one of two racing bookings wins.
type SlotStore interface {
	Create(ctx context.Context, s *models.Slot) error
	FindByID(ctx context.Context, id domain.SlotID) (*models.Slot, error)
	Book(ctx context.Context, id domain.SlotID) error
	Release(ctx context.Context, id domain.SlotID) error
	Cancel(ctx context.Context, id domain.SlotID) error
	ListOpen(ctx context.Context, from time.Time) ([]*models.Slot, error)
	ListByLawyer(ctx context.Context, lawyerID domain.UserID) ([]*models.Slot, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id domain.BookingID) (*models.Booking, error)
	FindBySlot(ctx context.Context, slotID domain.SlotID) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	ListByCitizen(ctx context.Context, citizenID domain.UserID) ([]*models.Booking, error)
}
