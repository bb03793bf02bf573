package models

import (
	"strings"
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

const (
	maxEvidenceTitleLength = 200
	maxCaseTagLength       = 64
	maxContentRefLength    = 1024
	maxEvidenceSizeBytes   = 512 << 20
)

// EvidenceStatus is the verification verdict on a single piece of evidence.
type EvidenceStatus string

const (
	EvidenceUnverified EvidenceStatus = "unverified"
	EvidenceVerified   EvidenceStatus = "verified"
	EvidenceRejected   EvidenceStatus = "rejected"
)

var validEvidenceStatuses = map[EvidenceStatus]bool{
	EvidenceUnverified: true,
	EvidenceVerified:   true,
	EvidenceRejected:   true,
}

func ParseEvidenceStatus(s string) (EvidenceStatus, error) {
	st := EvidenceStatus(s)
	if !validEvidenceStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid evidence status")
	}
	return st, nil
}

func (s EvidenceStatus) String() string { return string(s) }

// Evidence is an uploaded document attached to a petition. Rows are
// append-only: a verdict may be recorded once, but evidence is never deleted
// or edited afterwards.
type Evidence struct {
	ID         domain.EvidenceID
	PetitionID domain.PetitionID
	UploaderID domain.UserID

	Title      string
	FileType   domain.FileType
	ContentRef string
	SizeBytes  int64
	CaseTag    string

	Status          EvidenceStatus
	VerifiedBy      domain.UserID
	RejectionReason string

	UploadedAt time.Time
	VerdictAt  *time.Time
}

// NewEvidence constructs an unverified evidence row.
func NewEvidence(petitionID domain.PetitionID, uploaderID domain.UserID, title string, fileType domain.FileType, contentRef string, sizeBytes int64, caseTag string) (*Evidence, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence title cannot be empty")
	}
	if len(title) > maxEvidenceTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence title too long")
	}
	contentRef = strings.TrimSpace(contentRef)
	if contentRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence content reference cannot be empty")
	}
	if len(contentRef) > maxContentRefLength {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence content reference too long")
	}
	if sizeBytes < 0 || sizeBytes > maxEvidenceSizeBytes {
		return nil, dErrors.New(dErrors.CodeValidation, "evidence size out of range")
	}
	if len(caseTag) > maxCaseTagLength {
		return nil, dErrors.New(dErrors.CodeValidation, "case tag too long")
	}
	return &Evidence{
		ID:         domain.NewEvidenceID(),
		PetitionID: petitionID,
		UploaderID: uploaderID,
		Title:      title,
		FileType:   fileType,
		ContentRef: contentRef,
		SizeBytes:  sizeBytes,
		CaseTag:    strings.TrimSpace(caseTag),
		Status:     EvidenceUnverified,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// CanRecordVerdict checks that a lawyer may record a verdict now. Verdicts
// are single-shot: once verified or rejected the row is immutable.
func (e *Evidence) CanRecordVerdict(role domain.Role) error {
	if role != domain.RoleLawyer {
		return dErrors.New(dErrors.CodeForbidden, "only lawyers may record evidence verdicts")
	}
	if e.Status != EvidenceUnverified {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "evidence already %s", e.Status)
	}
	return nil
}

// ApplyVerdict records the verdict. A rejection requires a reason; on a
// verification any supplied reason is discarded.
func (e *Evidence) ApplyVerdict(lawyerID domain.UserID, verified bool, reason string) error {
	reason = strings.TrimSpace(reason)
	if !verified {
		if reason == "" {
			return dErrors.New(dErrors.CodeValidation, "a rejection verdict requires a reason")
		}
		if len(reason) > maxReasonLength {
			return dErrors.New(dErrors.CodeValidation, "rejection reason too long")
		}
	}
	now := time.Now().UTC()
	if verified {
		e.Status = EvidenceVerified
	} else {
		e.Status = EvidenceRejected
		e.RejectionReason = reason
	}
	e.VerifiedBy = lawyerID
	e.VerdictAt = &now
	return nil
}
