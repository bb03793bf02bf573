package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"justicerollon/internal/petition/models"
	"justicerollon/internal/petition/service"
	"justicerollon/internal/petition/service/mocks"
	"justicerollon/internal/petition/store"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
)

// conflictingPetitionStore forces an optimistic-concurrency loss on the next
// Update call, as if another writer committed in between.
type conflictingPetitionStore struct {
	store.PetitionStore
	failNext bool
}

func (s *conflictingPetitionStore) Update(ctx context.Context, p *models.Petition) error {
	if s.failNext {
		s.failNext = false
		return sentinel.ErrConflict
	}
	return s.PetitionStore.Update(ctx, p)
}

type ServiceSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	petitions *conflictingPetitionStore
	evidence  *store.InMemoryEvidenceStore
	mockIndex *mocks.MockIndexPublisher
	mockAudit *mocks.MockAuditPublisher
	svc       *service.Service

	owner  domain.UserID
	lawyer domain.UserID
	admin  domain.UserID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.petitions = &conflictingPetitionStore{PetitionStore: store.NewInMemoryPetitionStore()}
	s.evidence = store.NewInMemoryEvidenceStore()
	s.mockIndex = mocks.NewMockIndexPublisher(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.svc = service.New(s.petitions, s.evidence, s.mockIndex,
		service.WithAuditPublisher(s.mockAudit),
	)

	s.owner = domain.NewUserID()
	s.lawyer = domain.NewUserID()
	s.admin = domain.NewUserID()

	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) createDraft() *models.Petition {
	p, err := s.svc.Create(context.Background(), s.owner, domain.RoleCitizen,
		"Restore legal aid funding", "The county cut the program in March.",
		domain.CategoryLegal, domain.VisibilityPublic)
	s.Require().NoError(err)
	return p
}

func (s *ServiceSuite) attachEvidence(petitionID domain.PetitionID, title string) *models.Evidence {
	ev, err := s.svc.AttachEvidence(context.Background(), s.owner, domain.RoleCitizen,
		petitionID, title, domain.FileTypePDF, "s3://evidence/"+title, 2048, "")
	s.Require().NoError(err)
	return ev
}

// submitForReview walks a fresh petition into legal review with the given
// number of evidence rows.
func (s *ServiceSuite) submitForReview(evidenceCount int) (*models.Petition, []*models.Evidence) {
	p := s.createDraft()
	evs := make([]*models.Evidence, 0, evidenceCount)
	for i := 0; i < evidenceCount; i++ {
		evs = append(evs, s.attachEvidence(p.ID, "exhibit"))
	}
	p, err := s.svc.Submit(context.Background(), s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
	return p, evs
}

func (s *ServiceSuite) TestCreate() {
	s.Run("citizen opens a draft", func() {
		p := s.createDraft()
		s.Equal(models.StatusDraft, p.Status)
		s.Equal(s.owner, p.OwnerID)
	})

	s.Run("reviewers cannot create petitions", func() {
		_, err := s.svc.Create(context.Background(), s.lawyer, domain.RoleLawyer,
			"title", "body", domain.CategoryGeneral, domain.VisibilityPublic)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestGetVisibility() {
	ctx := context.Background()
	p, err := s.svc.Create(ctx, s.owner, domain.RoleCitizen,
		"Private matter", "body", domain.CategoryGeneral, domain.VisibilityPrivate)
	s.Require().NoError(err)

	s.Run("owner sees their private petition", func() {
		got, err := s.svc.Get(ctx, s.owner, domain.RoleCitizen, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})

	s.Run("another citizen gets not found, not forbidden", func() {
		_, err := s.svc.Get(ctx, domain.NewUserID(), domain.RoleCitizen, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reviewers see private petitions", func() {
		_, err := s.svc.Get(ctx, s.lawyer, domain.RoleLawyer, p.ID)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestModerationHappyPath() {
	ctx := context.Background()
	p, evs := s.submitForReview(2)
	s.Equal(models.StatusUnderLegalReview, p.Status)

	for _, ev := range evs {
		_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, ev.ID, true, "")
		s.Require().NoError(err)
	}

	p, err := s.svc.ConfirmVerification(ctx, s.lawyer, domain.RoleLawyer, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderAdminReview, p.Status)

	var published service.IndexSnapshot
	s.mockIndex.EXPECT().
		PublishSnapshot(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, snap service.IndexSnapshot) error {
			published = snap
			return nil
		})

	p, err = s.svc.Publish(ctx, s.admin, domain.RoleAdmin, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPublished, p.Status)
	s.Require().NotNil(p.PublishedAt)

	s.Equal(p.ID, published.PetitionID)
	s.Equal(p.Title, published.Title)
	s.Len(published.Evidence, 2)
}

func (s *ServiceSuite) TestRejectionAndResubmission() {
	ctx := context.Background()
	p, evs := s.submitForReview(2)

	_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, evs[0].ID, true, "")
	s.Require().NoError(err)
	_, err = s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, evs[1].ID, false, "scan is unreadable")
	s.Require().NoError(err)

	s.Run("confirmation is refused while a rejection stands", func() {
		_, err := s.svc.ConfirmVerification(ctx, s.lawyer, domain.RoleLawyer, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	p, err = s.svc.RejectByLawyer(ctx, s.lawyer, domain.RoleLawyer, p.ID, "one exhibit is unusable")
	s.Require().NoError(err)
	s.Equal(models.StatusRejectedByLawyer, p.Status)
	s.Equal("one exhibit is unusable", p.LawyerReason)

	p, err = s.svc.Resubmit(ctx, s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDraft, p.Status)
	s.Empty(p.LawyerReason)
	s.Require().Len(p.EvidenceIDs, 1)
	s.Equal(evs[0].ID, p.EvidenceIDs[0])

	s.Run("the rejected row stays queryable for the audit trail", func() {
		all, err := s.svc.ListEvidence(ctx, s.owner, domain.RoleCitizen, p.ID)
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("the corrected petition can be submitted again", func() {
		s.attachEvidence(p.ID, "exhibit-corrected")
		p, err := s.svc.Submit(ctx, s.owner, domain.RoleCitizen, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderLegalReview, p.Status)
	})
}

func (s *ServiceSuite) TestRecordEvidenceVerdict() {
	ctx := context.Background()

	s.Run("refused outside legal review", func() {
		p := s.createDraft()
		ev := s.attachEvidence(p.ID, "early")
		_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, ev.ID, true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("refused for non-lawyers", func() {
		_, evs := s.submitForReview(1)
		_, err := s.svc.RecordEvidenceVerdict(ctx, s.admin, domain.RoleAdmin, evs[0].ID, true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown evidence is not found", func() {
		_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, domain.NewEvidenceID(), true, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestAdminRejection() {
	ctx := context.Background()
	p, evs := s.submitForReview(1)

	_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, evs[0].ID, true, "")
	s.Require().NoError(err)
	p, err = s.svc.ConfirmVerification(ctx, s.lawyer, domain.RoleLawyer, p.ID)
	s.Require().NoError(err)

	s.Run("reason is mandatory", func() {
		_, err := s.svc.RejectByAdmin(ctx, s.admin, domain.RoleAdmin, p.ID, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	p, err = s.svc.RejectByAdmin(ctx, s.admin, domain.RoleAdmin, p.ID, "duplicate of an open petition")
	s.Require().NoError(err)
	s.Equal(models.StatusRejectedByAdmin, p.Status)
	s.Equal("duplicate of an open petition", p.AdminReason)
}

func (s *ServiceSuite) TestConcurrentModificationConflict() {
	p := s.createDraft()
	s.attachEvidence(p.ID, "exhibit")

	s.petitions.failNext = true
	_, err := s.svc.Submit(context.Background(), s.owner, domain.RoleCitizen, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestSupport() {
	ctx := context.Background()
	p, evs := s.submitForReview(1)

	_, err := s.svc.RecordEvidenceVerdict(ctx, s.lawyer, domain.RoleLawyer, evs[0].ID, true, "")
	s.Require().NoError(err)
	p, err = s.svc.ConfirmVerification(ctx, s.lawyer, domain.RoleLawyer, p.ID)
	s.Require().NoError(err)

	s.mockIndex.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil)
	p, err = s.svc.Publish(ctx, s.admin, domain.RoleAdmin, p.ID)
	s.Require().NoError(err)

	supporter := domain.NewUserID()

	count, err := s.svc.Support(ctx, supporter, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Run("double support conflicts", func() {
		_, err := s.svc.Support(ctx, supporter, domain.RoleCitizen, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("the owner cannot support", func() {
		_, err := s.svc.Support(ctx, s.owner, domain.RoleCitizen, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestWithdraw() {
	ctx := context.Background()
	p, _ := s.submitForReview(1)

	p, err := s.svc.Withdraw(ctx, s.owner, domain.RoleCitizen, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusWithdrawn, p.Status)

	s.Run("withdrawn petitions accept no further transitions", func() {
		_, err := s.svc.Resubmit(ctx, s.owner, domain.RoleCitizen, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceSuite) TestReviewQueues() {
	ctx := context.Background()
	p, _ := s.submitForReview(1)

	s.Run("lawyer queue holds the submitted petition", func() {
		queue, err := s.svc.ListReviewQueue(ctx, domain.RoleLawyer)
		s.Require().NoError(err)
		s.Require().Len(queue, 1)
		s.Equal(p.ID, queue[0].ID)
	})

	s.Run("admin queue is empty until legal review completes", func() {
		queue, err := s.svc.ListReviewQueue(ctx, domain.RoleAdmin)
		s.Require().NoError(err)
		s.Empty(queue)
	})

	s.Run("citizens have no queue", func() {
		_, err := s.svc.ListReviewQueue(ctx, domain.RoleCitizen)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
