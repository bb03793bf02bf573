package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"justicerollon/internal/consultation/models"
	"justicerollon/internal/consultation/store"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

type ConsultationSuite struct {
	suite.Suite
	svc *Service

	lawyer  domain.UserID
	citizen domain.UserID
}

func TestConsultationSuite(t *testing.T) {
	suite.Run(t, new(ConsultationSuite))
}

func (s *ConsultationSuite) SetupTest() {
	s.svc = New(store.NewInMemorySlotStore(), store.NewInMemoryBookingStore())
	s.lawyer = domain.NewUserID()
	s.citizen = domain.NewUserID()
}

func (s *ConsultationSuite) openSlot() *models.Slot {
	start := time.Now().Add(24 * time.Hour)
	slot, err := s.svc.CreateSlot(context.Background(), s.lawyer, domain.RoleLawyer, start, start.Add(time.Hour))
	s.Require().NoError(err)
	return slot
}

func (s *ConsultationSuite) TestCreateSlot() {
	s.Run("lawyer opens a slot", func() {
		slot := s.openSlot()
		s.Equal(models.SlotOpen, slot.Status)
	})

	s.Run("citizens cannot open slots", func() {
		start := time.Now().Add(time.Hour)
		_, err := s.svc.CreateSlot(context.Background(), s.citizen, domain.RoleCitizen, start, start.Add(time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("past or malformed windows are refused", func() {
		now := time.Now()
		_, err := s.svc.CreateSlot(context.Background(), s.lawyer, domain.RoleLawyer, now.Add(-time.Hour), now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		start := now.Add(time.Hour)
		_, err = s.svc.CreateSlot(context.Background(), s.lawyer, domain.RoleLawyer, start, start.Add(time.Minute))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ConsultationSuite) TestBook() {
	ctx := context.Background()
	slot := s.openSlot()

	booking, err := s.svc.Book(ctx, s.citizen, domain.RoleCitizen, slot.ID, domain.PetitionID{}, "about my petition")
	s.Require().NoError(err)
	s.Equal(models.BookingPending, booking.Status)

	s.Run("a booked slot cannot be booked again", func() {
		_, err := s.svc.Book(ctx, domain.NewUserID(), domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("lawyers cannot book", func() {
		_, err := s.svc.Book(ctx, s.lawyer, domain.RoleLawyer, slot.ID, domain.PetitionID{}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown slot is not found", func() {
		_, err := s.svc.Book(ctx, s.citizen, domain.RoleCitizen, domain.NewSlotID(), domain.PetitionID{}, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("booked slot leaves the open listing", func() {
		open, err := s.svc.ListOpenSlots(ctx)
		s.Require().NoError(err)
		s.Empty(open)
	})
}

// TestBookRace sends many citizens at one slot; exactly one wins.
func (s *ConsultationSuite) TestBookRace() {
	ctx := context.Background()
	slot := s.openSlot()

	const contenders = 30
	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Book(ctx, domain.NewUserID(), domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
			switch {
			case err == nil:
				wins.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(contenders-1), conflicts.Load())
}

func (s *ConsultationSuite) TestConfirm() {
	ctx := context.Background()
	slot := s.openSlot()
	booking, err := s.svc.Book(ctx, s.citizen, domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
	s.Require().NoError(err)

	s.Run("only the slot's lawyer confirms", func() {
		_, err := s.svc.Confirm(ctx, domain.NewUserID(), domain.RoleLawyer, booking.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.svc.Confirm(ctx, s.citizen, domain.RoleCitizen, booking.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	booking, err = s.svc.Confirm(ctx, s.lawyer, domain.RoleLawyer, booking.ID)
	s.Require().NoError(err)
	s.Equal(models.BookingConfirmed, booking.Status)

	s.Run("a confirmed booking cannot be confirmed again", func() {
		_, err := s.svc.Confirm(ctx, s.lawyer, domain.RoleLawyer, booking.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ConsultationSuite) TestCancelReopensSlot() {
	ctx := context.Background()
	slot := s.openSlot()
	booking, err := s.svc.Book(ctx, s.citizen, domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
	s.Require().NoError(err)

	s.Run("strangers cannot cancel", func() {
		_, err := s.svc.Cancel(ctx, domain.NewUserID(), domain.RoleCitizen, booking.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	booking, err = s.svc.Cancel(ctx, s.citizen, domain.RoleCitizen, booking.ID)
	s.Require().NoError(err)
	s.Equal(models.BookingCancelled, booking.Status)

	s.Run("the slot is bookable again", func() {
		open, err := s.svc.ListOpenSlots(ctx)
		s.Require().NoError(err)
		s.Require().Len(open, 1)

		_, err = s.svc.Book(ctx, domain.NewUserID(), domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
		s.Require().NoError(err)
	})

	s.Run("a cancelled booking cannot be cancelled again", func() {
		_, err := s.svc.Cancel(ctx, s.citizen, domain.RoleCitizen, booking.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ConsultationSuite) TestListBookings() {
	ctx := context.Background()
	slot := s.openSlot()
	_, err := s.svc.Book(ctx, s.citizen, domain.RoleCitizen, slot.ID, domain.PetitionID{}, "")
	s.Require().NoError(err)

	mine, err := s.svc.ListBookings(ctx, s.citizen)
	s.Require().NoError(err)
	s.Len(mine, 1)

	none, err := s.svc.ListBookings(ctx, domain.NewUserID())
	s.Require().NoError(err)
	s.Empty(none)
}
