package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	depositionstore "justicerollon/internal/deposition/store"
	petitionmodels "justicerollon/internal/petition/models"
	petitionsvc "justicerollon/internal/petition/service"
	petitionstore "justicerollon/internal/petition/store"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

type DepositionSuite struct {
	suite.Suite
	petitions *petitionsvc.Service
	svc       *Service

	owner  domain.UserID
	lawyer domain.UserID
}

func TestDepositionSuite(t *testing.T) {
	suite.Run(t, new(DepositionSuite))
}

func (s *DepositionSuite) SetupTest() {
	s.petitions = petitionsvc.New(petitionstore.NewInMemoryPetitionStore(), petitionstore.NewInMemoryEvidenceStore(), nil)
	s.svc = New(depositionstore.NewInMemoryDepositionStore(), s.petitions)
	s.owner = domain.NewUserID()
	s.lawyer = domain.NewUserID()
}

func (s *DepositionSuite) newPetition(visibility domain.Visibility) *petitionmodels.Petition {
	p, err := s.petitions.Create(context.Background(), s.owner, domain.RoleCitizen,
		"Review the eviction moratorium", "Tenants are losing appeals on procedure.",
		domain.CategoryLegal, visibility)
	s.Require().NoError(err)
	return p
}

func (s *DepositionSuite) TestAdd() {
	ctx := context.Background()
	p := s.newPetition(domain.VisibilityPublic)

	s.Run("owner and lawyers may testify", func() {
		d, err := s.svc.Add(ctx, s.owner, domain.RoleCitizen, p.ID, "What happened at the hearing", "The panel refused the adjournment.")
		s.Require().NoError(err)
		s.Equal(1, d.Sequence)

		d, err = s.svc.Add(ctx, s.lawyer, domain.RoleLawyer, p.ID, "Counsel's account", "The refusal contradicts the practice direction.")
		s.Require().NoError(err)
		s.Equal(2, d.Sequence)
	})

	s.Run("other citizens are refused", func() {
		_, err := s.svc.Add(ctx, domain.NewUserID(), domain.RoleCitizen, p.ID, "title", "body")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("empty testimony is refused", func() {
		_, err := s.svc.Add(ctx, s.owner, domain.RoleCitizen, p.ID, "title", "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown petition is not found", func() {
		_, err := s.svc.Add(ctx, s.owner, domain.RoleCitizen, domain.NewPetitionID(), "title", "body")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DepositionSuite) TestWithdrawnPetitionTakesNoDepositions() {
	ctx := context.Background()
	p := s.newPetition(domain.VisibilityPublic)

	_, err := s.petitions.Withdraw(ctx, s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)

	_, err = s.svc.Add(ctx, s.owner, domain.RoleCitizen, p.ID, "late testimony", "body")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *DepositionSuite) TestListOrder() {
	ctx := context.Background()
	p := s.newPetition(domain.VisibilityPublic)

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.svc.Add(ctx, s.owner, domain.RoleCitizen, p.ID, title, "body")
		s.Require().NoError(err)
	}

	listed, err := s.svc.List(ctx, s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	for i, d := range listed {
		s.Equal(i+1, d.Sequence)
	}
	s.Equal("first", listed[0].Title)
	s.Equal("third", listed[2].Title)
}

func (s *DepositionSuite) TestVisibilityFollowsPetition() {
	ctx := context.Background()
	p := s.newPetition(domain.VisibilityPrivate)

	_, err := s.svc.List(ctx, domain.NewUserID(), domain.RoleCitizen, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.List(ctx, s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
}
