package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"justicerollon/internal/consultation/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/sentinel"
)

// InMemorySlotStore is a thread-safe in-memory SlotStore.
type InMemorySlotStore struct {
	mu    sync.RWMutex
	slots map[domain.SlotID]*models.Slot
}

func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{slots: make(map[domain.SlotID]*models.Slot)}
}

func (s *InMemorySlotStore) Create(_ context.Context, slot *models.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[slot.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *slot
	s.slots[slot.ID] = &cp
	return nil
}

func (s *InMemorySlotStore) FindByID(_ context.Context, id domain.SlotID) (*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (s *InMemorySlotStore) Book(_ context.Context, id domain.SlotID) error {
	return s.setStatus(id, models.SlotOpen, models.SlotBooked)
}

func (s *InMemorySlotStore) Release(_ context.Context, id domain.SlotID) error {
	return s.setStatus(id, models.SlotBooked, models.SlotOpen)
}

func (s *InMemorySlotStore) Cancel(_ context.Context, id domain.SlotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	slot.Status = models.SlotCancelled
	return nil
}

func (s *InMemorySlotStore) setStatus(id domain.SlotID, from, to models.SlotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if slot.Status != from {
		return sentinel.ErrInvalidState
	}
	slot.Status = to
	return nil
}

func (s *InMemorySlotStore) ListOpen(_ context.Context, from time.Time) ([]*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Slot
	for _, slot := range s.slots {
		if slot.Status == models.SlotOpen && !slot.StartsAt.Before(from) {
			cp := *slot
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *InMemorySlotStore) ListByLawyer(_ context.Context, lawyerID domain.UserID) ([]*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Slot
	for _, slot := range s.slots {
		if slot.LawyerID == lawyerID {
			cp := *slot
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// InMemoryBookingStore is a thread-safe in-memory BookingStore.
type InMemoryBookingStore struct {
	mu       sync.RWMutex
	bookings map[domain.BookingID]*models.Booking
}

func NewInMemoryBookingStore() *InMemoryBookingStore {
	return &InMemoryBookingStore{bookings: make(map[domain.BookingID]*models.Booking)}
}

func (s *InMemoryBookingStore) Create(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *InMemoryBookingStore) FindByID(_ context.Context, id domain.BookingID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryBookingStore) FindBySlot(_ context.Context, slotID domain.SlotID) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Booking
	for _, b := range s.bookings {
		if b.SlotID != slotID || b.Status == models.BookingCancelled {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *InMemoryBookingStore) Update(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *InMemoryBookingStore) ListByCitizen(_ context.Context, citizenID domain.UserID) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Booking
	for _, b := range s.bookings {
		if b.CitizenID == citizenID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
