package models

import (
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

// Status is the petition lifecycle state.
//
// The lifecycle is a single path to publication:
//
//	draft → submitted → under_legal_review → legally_verified →
//	under_admin_review → published
//
// with rejection branches at legal and admin review, both of which may return
// to draft via resubmission. Withdrawal is terminal and owner-invoked.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSubmitted         Status = "submitted"
	StatusUnderLegalReview  Status = "under_legal_review"
	StatusLegallyVerified   Status = "legally_verified"
	StatusUnderAdminReview  Status = "under_admin_review"
	StatusPublished         Status = "published"
	StatusRejectedByLawyer  Status = "rejected_by_lawyer"
	StatusRejectedByAdmin   Status = "rejected_by_admin"
	StatusWithdrawn         Status = "withdrawn"
)

var validStatuses = map[Status]bool{
	StatusDraft:            true,
	StatusSubmitted:        true,
	StatusUnderLegalReview: true,
	StatusLegallyVerified:  true,
	StatusUnderAdminReview: true,
	StatusPublished:        true,
	StatusRejectedByLawyer: true,
	StatusRejectedByAdmin:  true,
	StatusWithdrawn:        true,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid petition status")
	}
	return st, nil
}

func (s Status) String() string { return string(s) }

// IsTerminal reports whether no further transitions exist from this state.
// Rejection states are not terminal: resubmission returns them to draft.
func (s Status) IsTerminal() bool {
	return s == StatusPublished || s == StatusWithdrawn
}

// Actor identifies who may invoke a transition edge. ActorSystem edges are
// auto-advanced by the service inside the triggering call, never requested
// over the API.
type Actor string

const (
	ActorCitizenOwner Actor = "citizen_owner"
	ActorLawyer       Actor = "lawyer"
	ActorAdmin        Actor = "admin"
	ActorSystem       Actor = "system"
)

type edge struct {
	from Status
	to   Status
}

// transitions is the single source of truth for the lifecycle. An edge absent
// from this map does not exist; every present edge names the only actor that
// may take it.
var transitions = map[edge]Actor{
	{StatusDraft, StatusSubmitted}:                    ActorCitizenOwner,
	{StatusSubmitted, StatusUnderLegalReview}:         ActorSystem,
	{StatusUnderLegalReview, StatusLegallyVerified}:   ActorLawyer,
	{StatusUnderLegalReview, StatusRejectedByLawyer}:  ActorLawyer,
	{StatusLegallyVerified, StatusUnderAdminReview}:   ActorSystem,
	{StatusUnderAdminReview, StatusPublished}:         ActorAdmin,
	{StatusUnderAdminReview, StatusRejectedByAdmin}:   ActorAdmin,
	{StatusRejectedByLawyer, StatusDraft}:             ActorCitizenOwner,
	{StatusRejectedByAdmin, StatusDraft}:              ActorCitizenOwner,

	// Withdrawal: the owner may abandon a petition at any pre-publication,
	// non-terminal stage.
	{StatusDraft, StatusWithdrawn}:            ActorCitizenOwner,
	{StatusSubmitted, StatusWithdrawn}:        ActorCitizenOwner,
	{StatusUnderLegalReview, StatusWithdrawn}: ActorCitizenOwner,
	{StatusLegallyVerified, StatusWithdrawn}:  ActorCitizenOwner,
	{StatusUnderAdminReview, StatusWithdrawn}: ActorCitizenOwner,
	{StatusRejectedByLawyer, StatusWithdrawn}: ActorCitizenOwner,
	{StatusRejectedByAdmin, StatusWithdrawn}:  ActorCitizenOwner,
}

// CanTransitionTo reports whether the edge exists, regardless of actor.
func (s Status) CanTransitionTo(to Status) bool {
	_, ok := transitions[edge{s, to}]
	return ok
}

// RequiredActor returns the actor allowed to take the edge.
func RequiredActor(from, to Status) (Actor, bool) {
	actor, ok := transitions[edge{from, to}]
	return actor, ok
}

// CheckTransition validates one edge attempt. Order matters: a nonexistent
// edge is reported before an actor mismatch so callers can distinguish
// InvalidTransition from UnauthorizedTransition.
func CheckTransition(from, to Status, actorRole domain.Role, isOwner bool) error {
	required, ok := transitions[edge{from, to}]
	if !ok {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "no transition from %s to %s", from, to)
	}
	switch required {
	case ActorCitizenOwner:
		if actorRole != domain.RoleCitizen || !isOwner {
			return dErrors.Newf(dErrors.CodeForbidden, "transition %s to %s requires the owning citizen", from, to)
		}
	case ActorLawyer:
		if actorRole != domain.RoleLawyer {
			return dErrors.Newf(dErrors.CodeForbidden, "transition %s to %s requires a lawyer", from, to)
		}
	case ActorAdmin:
		if actorRole != domain.RoleAdmin {
			return dErrors.Newf(dErrors.CodeForbidden, "transition %s to %s requires an administrator", from, to)
		}
	case ActorSystem:
		return dErrors.Newf(dErrors.CodeForbidden, "transition %s to %s is system-internal", from, to)
	}
	return nil
}
