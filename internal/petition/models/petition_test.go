package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

func newDraft(t *testing.T) *Petition {
	t.Helper()
	p, err := NewPetition(domain.NewUserID(), "Reopen the coastal legal aid office", "The office served three districts.", domain.CategoryLegal, domain.VisibilityPublic)
	require.NoError(t, err)
	return p
}

func newVerdictless(t *testing.T, p *Petition) *Evidence {
	t.Helper()
	ev, err := NewEvidence(p.ID, p.OwnerID, "Closure notice", domain.FileTypePDF, "s3://evidence/closure.pdf", 2048, "case-114")
	require.NoError(t, err)
	return ev
}

func TestNewPetition(t *testing.T) {
	t.Run("starts in draft at version 1", func(t *testing.T) {
		p := newDraft(t)
		assert.Equal(t, StatusDraft, p.Status)
		assert.Equal(t, 1, p.Version)
		assert.Empty(t, p.EvidenceIDs)
		assert.Nil(t, p.PublishedAt)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		owner := domain.NewUserID()

		_, err := NewPetition(owner, "   ", "body", domain.CategoryGeneral, domain.VisibilityPublic)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewPetition(owner, strings.Repeat("t", 201), "body", domain.CategoryGeneral, domain.VisibilityPublic)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewPetition(owner, "title", strings.Repeat("d", 10001), domain.CategoryGeneral, domain.VisibilityPublic)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = NewPetition(domain.UserID{}, "title", "body", domain.CategoryGeneral, domain.VisibilityPublic)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAttachEvidence(t *testing.T) {
	p := newDraft(t)
	stranger := domain.NewUserID()

	t.Run("owner may attach in draft", func(t *testing.T) {
		require.NoError(t, p.CanAttachEvidence(p.OwnerID, domain.RoleCitizen))
		p.ApplyAttachEvidence(domain.NewEvidenceID())
		assert.Len(t, p.EvidenceIDs, 1)
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		err := p.CanAttachEvidence(stranger, domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("attachment is frozen once submitted", func(t *testing.T) {
		p.ApplySubmit()
		err := p.CanAttachEvidence(p.OwnerID, domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestSubmit(t *testing.T) {
	t.Run("refuses a petition without evidence", func(t *testing.T) {
		p := newDraft(t)
		err := p.CanSubmit(p.OwnerID, domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("skips the submitted state into legal review", func(t *testing.T) {
		p := newDraft(t)
		p.ApplyAttachEvidence(domain.NewEvidenceID())
		require.NoError(t, p.CanSubmit(p.OwnerID, domain.RoleCitizen))

		p.ApplySubmit()
		assert.Equal(t, StatusUnderLegalReview, p.Status)
	})
}

func TestConfirmVerification(t *testing.T) {
	setup := func(t *testing.T) (*Petition, []*Evidence) {
		p := newDraft(t)
		evs := []*Evidence{newVerdictless(t, p), newVerdictless(t, p)}
		for _, ev := range evs {
			p.ApplyAttachEvidence(ev.ID)
		}
		p.ApplySubmit()
		return p, evs
	}
	lawyer := domain.NewUserID()

	t.Run("requires every active evidence verified", func(t *testing.T) {
		p, evs := setup(t)
		require.NoError(t, evs[0].ApplyVerdict(lawyer, true, ""))

		err := p.CanConfirmVerification(domain.RoleLawyer, evs)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		require.NoError(t, evs[1].ApplyVerdict(lawyer, true, ""))
		require.NoError(t, p.CanConfirmVerification(domain.RoleLawyer, evs))
	})

	t.Run("refuses an incomplete evidence set", func(t *testing.T) {
		p, evs := setup(t)
		require.NoError(t, evs[0].ApplyVerdict(lawyer, true, ""))

		err := p.CanConfirmVerification(domain.RoleLawyer, evs[:1])
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("auto-advances into admin review", func(t *testing.T) {
		p, evs := setup(t)
		for _, ev := range evs {
			require.NoError(t, ev.ApplyVerdict(lawyer, true, ""))
		}
		p.ApplyConfirmVerification()
		assert.Equal(t, StatusUnderAdminReview, p.Status)
	})
}

func TestRejectByLawyer(t *testing.T) {
	lawyer := domain.NewUserID()
	setup := func(t *testing.T) (*Petition, *Evidence) {
		p := newDraft(t)
		ev := newVerdictless(t, p)
		p.ApplyAttachEvidence(ev.ID)
		p.ApplySubmit()
		return p, ev
	}

	t.Run("requires a reason", func(t *testing.T) {
		p, ev := setup(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, false, "photo is illegible"))

		err := p.CanRejectByLawyer(domain.RoleLawyer, "  ", []*Evidence{ev})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires at least one rejected evidence", func(t *testing.T) {
		p, ev := setup(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, true, ""))

		err := p.CanRejectByLawyer(domain.RoleLawyer, "claims unsupported", []*Evidence{ev})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("records the reason", func(t *testing.T) {
		p, ev := setup(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, false, "photo is illegible"))
		require.NoError(t, p.CanRejectByLawyer(domain.RoleLawyer, "evidence does not support the claim", []*Evidence{ev}))

		p.ApplyRejectByLawyer("evidence does not support the claim")
		assert.Equal(t, StatusRejectedByLawyer, p.Status)
		assert.Equal(t, "evidence does not support the claim", p.LawyerReason)
	})
}

func TestResubmit(t *testing.T) {
	lawyer := domain.NewUserID()

	p := newDraft(t)
	good := newVerdictless(t, p)
	bad := newVerdictless(t, p)
	p.ApplyAttachEvidence(good.ID)
	p.ApplyAttachEvidence(bad.ID)
	p.ApplySubmit()

	require.NoError(t, good.ApplyVerdict(lawyer, true, ""))
	require.NoError(t, bad.ApplyVerdict(lawyer, false, "scanned page is blank"))
	p.ApplyRejectByLawyer("one exhibit is unusable")

	require.NoError(t, p.CanResubmit(p.OwnerID, domain.RoleCitizen))
	p.ApplyResubmit([]*Evidence{good, bad})

	assert.Equal(t, StatusDraft, p.Status)
	assert.Empty(t, p.LawyerReason)
	assert.Empty(t, p.AdminReason)

	// Rejected evidence drops out of the active set; the verified exhibit
	// stays and keeps its verdict.
	require.Len(t, p.EvidenceIDs, 1)
	assert.Equal(t, good.ID, p.EvidenceIDs[0])
	assert.Equal(t, EvidenceVerified, good.Status)
}

func TestPublishAndSupport(t *testing.T) {
	p := newDraft(t)
	p.ApplyAttachEvidence(domain.NewEvidenceID())
	p.ApplySubmit()
	p.ApplyConfirmVerification()

	require.NoError(t, p.CanPublish(domain.RoleAdmin))
	p.ApplyPublish()

	assert.Equal(t, StatusPublished, p.Status)
	require.NotNil(t, p.PublishedAt)

	t.Run("supporters must be citizens other than the owner", func(t *testing.T) {
		supporter := domain.NewUserID()
		require.NoError(t, p.CanSupport(supporter, domain.RoleCitizen))

		err := p.CanSupport(p.OwnerID, domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		err = p.CanSupport(supporter, domain.RoleLawyer)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unpublished petitions accept no support", func(t *testing.T) {
		draft := newDraft(t)
		err := draft.CanSupport(domain.NewUserID(), domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("owner may withdraw before publication", func(t *testing.T) {
		p := newDraft(t)
		require.NoError(t, p.CanWithdraw(p.OwnerID, domain.RoleCitizen))
		p.ApplyWithdraw()
		assert.Equal(t, StatusWithdrawn, p.Status)
	})

	t.Run("published petitions cannot be withdrawn", func(t *testing.T) {
		p := newDraft(t)
		p.ApplyAttachEvidence(domain.NewEvidenceID())
		p.ApplySubmit()
		p.ApplyConfirmVerification()
		p.ApplyPublish()

		err := p.CanWithdraw(p.OwnerID, domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("non-owner cannot withdraw", func(t *testing.T) {
		p := newDraft(t)
		err := p.CanWithdraw(domain.NewUserID(), domain.RoleCitizen)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
