package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

func TestNewEvidence(t *testing.T) {
	petitionID := domain.NewPetitionID()
	uploader := domain.NewUserID()

	t.Run("starts unverified", func(t *testing.T) {
		ev, err := NewEvidence(petitionID, uploader, "Eviction notice", domain.FileTypeImage, "s3://evidence/notice.jpg", 4096, "")
		require.NoError(t, err)
		assert.Equal(t, EvidenceUnverified, ev.Status)
		assert.Nil(t, ev.VerdictAt)
		assert.True(t, ev.VerifiedBy.IsNil())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		cases := []struct {
			name       string
			title      string
			contentRef string
			size       int64
			caseTag    string
		}{
			{"empty title", "", "ref", 1, ""},
			{"oversized title", strings.Repeat("t", 201), "ref", 1, ""},
			{"empty content ref", "title", "  ", 1, ""},
			{"negative size", "title", "ref", -1, ""},
			{"size above cap", "title", "ref", (512 << 20) + 1, ""},
			{"oversized case tag", "title", "ref", 1, strings.Repeat("c", 65)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewEvidence(petitionID, uploader, tc.title, domain.FileTypeOther, tc.contentRef, tc.size, tc.caseTag)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			})
		}
	})
}

func TestRecordVerdict(t *testing.T) {
	lawyer := domain.NewUserID()
	fresh := func(t *testing.T) *Evidence {
		ev, err := NewEvidence(domain.NewPetitionID(), domain.NewUserID(), "Exhibit A", domain.FileTypePDF, "s3://evidence/a.pdf", 1024, "case-9")
		require.NoError(t, err)
		return ev
	}

	t.Run("only lawyers record verdicts", func(t *testing.T) {
		ev := fresh(t)
		for _, role := range []domain.Role{domain.RoleCitizen, domain.RoleAdmin} {
			err := ev.CanRecordVerdict(role)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), role)
		}
		require.NoError(t, ev.CanRecordVerdict(domain.RoleLawyer))
	})

	t.Run("verification records the lawyer and timestamp", func(t *testing.T) {
		ev := fresh(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, true, ""))
		assert.Equal(t, EvidenceVerified, ev.Status)
		assert.Equal(t, lawyer, ev.VerifiedBy)
		assert.NotNil(t, ev.VerdictAt)
	})

	t.Run("verification discards a supplied reason", func(t *testing.T) {
		ev := fresh(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, true, "looks good"))
		assert.Equal(t, EvidenceVerified, ev.Status)
		assert.Empty(t, ev.RejectionReason)
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		ev := fresh(t)
		err := ev.ApplyVerdict(lawyer, false, "  ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		require.NoError(t, ev.ApplyVerdict(lawyer, false, "document is not signed"))
		assert.Equal(t, EvidenceRejected, ev.Status)
		assert.Equal(t, "document is not signed", ev.RejectionReason)
	})

	t.Run("verdicts are single-shot", func(t *testing.T) {
		ev := fresh(t)
		require.NoError(t, ev.ApplyVerdict(lawyer, true, ""))

		err := ev.CanRecordVerdict(domain.RoleLawyer)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}
