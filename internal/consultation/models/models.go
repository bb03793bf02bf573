// Package models defines lawyer consultation slots and citizen bookings.
package models

import (
	"strings"
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

const (
	minSlotDuration = 10 * time.Minute
	maxSlotDuration = 4 * time.Hour
	maxNoteLength   = 1000
)

// SlotStatus is the availability state of a consultation slot.
type SlotStatus string

const (
	SlotOpen      SlotStatus = "open"
	SlotBooked    SlotStatus = "booked"
	SlotCancelled SlotStatus = "cancelled"
)

// Slot is a bookable window of a lawyer's time. A slot takes exactly one
// booking; the open→booked transition must be atomic in the store so two
// citizens cannot claim the same window.
type Slot struct {
	ID       domain.SlotID
	LawyerID domain.UserID
	StartsAt time.Time
	EndsAt   time.Time
	Status   SlotStatus
	CreatedAt time.Time
}

// NewSlot constructs an open slot in the future.
func NewSlot(lawyerID domain.UserID, startsAt, endsAt time.Time) (*Slot, error) {
	if lawyerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "lawyer is required")
	}
	if !endsAt.After(startsAt) {
		return nil, dErrors.New(dErrors.CodeValidation, "slot must end after it starts")
	}
	if d := endsAt.Sub(startsAt); d < minSlotDuration || d > maxSlotDuration {
		return nil, dErrors.New(dErrors.CodeValidation, "slot duration out of range")
	}
	if startsAt.Before(time.Now()) {
		return nil, dErrors.New(dErrors.CodeValidation, "slot must start in the future")
	}
	return &Slot{
		ID:        domain.NewSlotID(),
		LawyerID:  lawyerID,
		StartsAt:  startsAt.UTC(),
		EndsAt:    endsAt.UTC(),
		Status:    SlotOpen,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking ties a citizen to a slot, optionally in the context of one of
// their petitions.
type Booking struct {
	ID         domain.BookingID
	SlotID     domain.SlotID
	CitizenID  domain.UserID
	PetitionID domain.PetitionID
	Note       string
	Status     BookingStatus
	CreatedAt  time.Time
}

// NewBooking constructs a pending booking. PetitionID may be nil when the
// consultation is not about a specific petition.
func NewBooking(slotID domain.SlotID, citizenID domain.UserID, petitionID domain.PetitionID, note string) (*Booking, error) {
	if citizenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "citizen is required")
	}
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, dErrors.New(dErrors.CodeValidation, "booking note too long")
	}
	return &Booking{
		ID:         domain.NewBookingID(),
		SlotID:     slotID,
		CitizenID:  citizenID,
		PetitionID: petitionID,
		Note:       note,
		Status:     BookingPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CanConfirm checks that the lawyer owning the slot may confirm.
func (b *Booking) CanConfirm() error {
	if b.Status != BookingPending {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "booking is %s", b.Status)
	}
	return nil
}

func (b *Booking) ApplyConfirm() { b.Status = BookingConfirmed }

// CanCancel checks that the booking is still live.
func (b *Booking) CanCancel() error {
	if b.Status == BookingCancelled {
		return dErrors.New(dErrors.CodeInvalidTransition, "booking already cancelled")
	}
	return nil
}

func (b *Booking) ApplyCancel() { b.Status = BookingCancelled }
