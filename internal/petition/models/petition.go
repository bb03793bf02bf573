package models

import (
	"strings"
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 10000
	maxReasonLength      = 2000
)

// Petition is the aggregate root of the moderation workflow.
//
// Invariants:
//   - Status only changes along the edges in the transition table.
//   - EvidenceIDs is the active evidence set, in attachment order. Evidence
//     rows are never deleted; resubmission removes rejected evidence from the
//     active set but the rows remain for the audit trail.
//   - LawyerReason / AdminReason are set only by the corresponding rejection
//     and cleared by resubmission.
//   - Version increments on every persisted change; stale writes are refused
//     by the store.
type Petition struct {
	ID          domain.PetitionID
	OwnerID     domain.UserID
	Title       string
	Description string
	Category    domain.Category
	Visibility  domain.Visibility

	Status      Status
	EvidenceIDs []domain.EvidenceID

	LawyerReason string
	AdminReason  string

	SupporterCount int

	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// NewPetition constructs a draft petition owned by the given citizen.
func NewPetition(ownerID domain.UserID, title, description string, category domain.Category, visibility domain.Visibility) (*Petition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title cannot be empty")
	}
	if len(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "title too long")
	}
	if len(description) > maxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeValidation, "description too long")
	}
	if ownerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	now := time.Now().UTC()
	return &Petition{
		ID:          domain.NewPetitionID(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Visibility:  visibility,
		Status:      StatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsOwner reports whether the given user owns this petition.
func (p *Petition) IsOwner(userID domain.UserID) bool { return p.OwnerID == userID }

// CanAttachEvidence checks that evidence may be added now. Evidence is only
// mutable while the owner holds the petition in draft.
func (p *Petition) CanAttachEvidence(actorID domain.UserID, role domain.Role) error {
	if role != domain.RoleCitizen || !p.IsOwner(actorID) {
		return dErrors.New(dErrors.CodeForbidden, "only the owning citizen may attach evidence")
	}
	if p.Status != StatusDraft {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "evidence cannot be attached in status %s", p.Status)
	}
	return nil
}

// ApplyAttachEvidence appends the evidence to the active set.
func (p *Petition) ApplyAttachEvidence(evidenceID domain.EvidenceID) {
	p.EvidenceIDs = append(p.EvidenceIDs, evidenceID)
	p.touch()
}

// CanSubmit checks the draft→submitted edge. A petition with no active
// evidence cannot enter review.
func (p *Petition) CanSubmit(actorID domain.UserID, role domain.Role) error {
	if err := CheckTransition(p.Status, StatusSubmitted, role, p.IsOwner(actorID)); err != nil {
		return err
	}
	if len(p.EvidenceIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "petition has no evidence attached")
	}
	return nil
}

// ApplySubmit moves draft→submitted and immediately auto-advances to
// under_legal_review. The intermediate state is never persisted on its own.
func (p *Petition) ApplySubmit() {
	p.Status = StatusSubmitted
	p.autoAdvance()
	p.touch()
}

// CanConfirmVerification checks under_legal_review→legally_verified. Every
// piece of active evidence must already carry a verified verdict; the caller
// supplies the evidence rows since the aggregate holds only IDs.
func (p *Petition) CanConfirmVerification(role domain.Role, active []*Evidence) error {
	if err := CheckTransition(p.Status, StatusLegallyVerified, role, false); err != nil {
		return err
	}
	if len(active) != len(p.EvidenceIDs) {
		return dErrors.New(dErrors.CodeValidation, "active evidence set is incomplete")
	}
	for _, ev := range active {
		if ev.Status != EvidenceVerified {
			return dErrors.Newf(dErrors.CodeValidation, "evidence %s is not verified", ev.ID)
		}
	}
	return nil
}

// ApplyConfirmVerification moves to legally_verified and auto-advances to
// under_admin_review.
func (p *Petition) ApplyConfirmVerification() {
	p.Status = StatusLegallyVerified
	p.autoAdvance()
	p.touch()
}

// CanRejectByLawyer checks under_legal_review→rejected_by_lawyer. A lawyer
// rejection requires a reason and at least one rejected evidence verdict.
func (p *Petition) CanRejectByLawyer(role domain.Role, reason string, active []*Evidence) error {
	if err := CheckTransition(p.Status, StatusRejectedByLawyer, role, false); err != nil {
		return err
	}
	if err := validateReason(reason); err != nil {
		return err
	}
	for _, ev := range active {
		if ev.Status == EvidenceRejected {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation, "lawyer rejection requires at least one rejected evidence")
}

func (p *Petition) ApplyRejectByLawyer(reason string) {
	p.Status = StatusRejectedByLawyer
	p.LawyerReason = strings.TrimSpace(reason)
	p.touch()
}

// CanPublish checks under_admin_review→published.
func (p *Petition) CanPublish(role domain.Role) error {
	return CheckTransition(p.Status, StatusPublished, role, false)
}

func (p *Petition) ApplyPublish() {
	now := time.Now().UTC()
	p.Status = StatusPublished
	p.PublishedAt = &now
	p.touch()
}

// CanRejectByAdmin checks under_admin_review→rejected_by_admin.
func (p *Petition) CanRejectByAdmin(role domain.Role, reason string) error {
	if err := CheckTransition(p.Status, StatusRejectedByAdmin, role, false); err != nil {
		return err
	}
	return validateReason(reason)
}

func (p *Petition) ApplyRejectByAdmin(reason string) {
	p.Status = StatusRejectedByAdmin
	p.AdminReason = strings.TrimSpace(reason)
	p.touch()
}

// CanResubmit checks rejected_*→draft.
func (p *Petition) CanResubmit(actorID domain.UserID, role domain.Role) error {
	return CheckTransition(p.Status, StatusDraft, role, p.IsOwner(actorID))
}

// ApplyResubmit returns the petition to draft. Rejection reasons are cleared
// and rejected evidence drops out of the active set so the owner can attach
// corrected replacements; verified evidence keeps its verdict.
func (p *Petition) ApplyResubmit(active []*Evidence) {
	p.Status = StatusDraft
	p.LawyerReason = ""
	p.AdminReason = ""

	kept := p.EvidenceIDs[:0]
	rejected := make(map[domain.EvidenceID]bool, len(active))
	for _, ev := range active {
		if ev.Status == EvidenceRejected {
			rejected[ev.ID] = true
		}
	}
	for _, id := range p.EvidenceIDs {
		if !rejected[id] {
			kept = append(kept, id)
		}
	}
	p.EvidenceIDs = kept
	p.touch()
}

// CanWithdraw checks the owner withdrawal edge from the current state.
func (p *Petition) CanWithdraw(actorID domain.UserID, role domain.Role) error {
	return CheckTransition(p.Status, StatusWithdrawn, role, p.IsOwner(actorID))
}

func (p *Petition) ApplyWithdraw() {
	p.Status = StatusWithdrawn
	p.touch()
}

// CanSupport checks that the user may add their support. Supporters are
// citizens other than the owner, and only published petitions accept support.
func (p *Petition) CanSupport(actorID domain.UserID, role domain.Role) error {
	if p.Status != StatusPublished {
		return dErrors.New(dErrors.CodeInvalidTransition, "only published petitions accept supporters")
	}
	if role != domain.RoleCitizen {
		return dErrors.New(dErrors.CodeForbidden, "only citizens may support petitions")
	}
	if p.IsOwner(actorID) {
		return dErrors.New(dErrors.CodeConflict, "owners cannot support their own petition")
	}
	return nil
}

// autoAdvance takes the pending system edge from the current state, if any.
// System edges are unambiguous: at most one leaves any state.
func (p *Petition) autoAdvance() {
	if to, ok := systemSuccessor(p.Status); ok {
		p.Status = to
	}
}

func systemSuccessor(from Status) (Status, bool) {
	for e, actor := range transitions {
		if e.from == from && actor == ActorSystem {
			return e.to, true
		}
	}
	return "", false
}

func (p *Petition) touch() { p.UpdatedAt = time.Now().UTC() }

func validateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}
	if len(reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "rejection reason too long")
	}
	return nil
}
