package audit

import (
	"time"

	id "justicerollon/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: lifecycle
	// transitions, evidence verdicts, publications. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication and authorization events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// ActorID is the user who performed the action; nil UUID for system actions.
	ActorID id.UserID `json:"actor_id"`
	// Subject identifies the entity acted on (petition id, evidence id, ...).
	Subject string `json:"subject"`
	Action  string `json:"action"`
	// Reason carries rejection justifications so the trail explains outcomes.
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Device summarizes the client user agent for authentication events.
	Device string `json:"device,omitempty"`
}

type AuditEvent string

const (
	// Identity events
	EventUserRegistered AuditEvent = "user_registered"
	EventUserLoggedIn   AuditEvent = "user_logged_in"
	EventLoginFailed    AuditEvent = "login_failed"

	// Petition lifecycle events
	EventPetitionCreated          AuditEvent = "petition_created"
	EventPetitionSubmitted        AuditEvent = "petition_submitted"
	EventPetitionLegallyVerified  AuditEvent = "petition_legally_verified"
	EventPetitionRejectedByLawyer AuditEvent = "petition_rejected_by_lawyer"
	EventPetitionPublished        AuditEvent = "petition_published"
	EventPetitionRejectedByAdmin  AuditEvent = "petition_rejected_by_admin"
	EventPetitionResubmitted      AuditEvent = "petition_resubmitted"
	EventPetitionWithdrawn        AuditEvent = "petition_withdrawn"
	EventPetitionSupported        AuditEvent = "petition_supported"

	// Evidence events
	EventEvidenceAttached AuditEvent = "evidence_attached"
	EventEvidenceVerified AuditEvent = "evidence_verified"
	EventEvidenceRejected AuditEvent = "evidence_rejected"

	// Consultation events
	EventSlotCreated      AuditEvent = "consultation_slot_created"
	EventSlotBooked       AuditEvent = "consultation_slot_booked"
	EventBookingConfirmed AuditEvent = "consultation_booking_confirmed"

	// Deposition events
	EventDepositionCreated AuditEvent = "deposition_created"
)

// eventCategories maps each audit event to its category. Lifecycle and
// evidence events are compliance-grade; identity events feed security
// monitoring; the rest is operational visibility.
var eventCategories = map[AuditEvent]EventCategory{
	EventUserRegistered: CategorySecurity,
	EventUserLoggedIn:   CategorySecurity,
	EventLoginFailed:    CategorySecurity,

	EventPetitionCreated:          CategoryOperations,
	EventPetitionSubmitted:        CategoryCompliance,
	EventPetitionLegallyVerified:  CategoryCompliance,
	EventPetitionRejectedByLawyer: CategoryCompliance,
	EventPetitionPublished:        CategoryCompliance,
	EventPetitionRejectedByAdmin:  CategoryCompliance,
	EventPetitionResubmitted:      CategoryCompliance,
	EventPetitionWithdrawn:        CategoryCompliance,
	EventPetitionSupported:        CategoryOperations,

	EventEvidenceAttached: CategoryOperations,
	EventEvidenceVerified: CategoryCompliance,
	EventEvidenceRejected: CategoryCompliance,

	EventSlotCreated:      CategoryOperations,
	EventSlotBooked:       CategoryOperations,
	EventBookingConfirmed: CategoryOperations,

	EventDepositionCreated: CategoryOperations,
}

// Category returns the category for the event, defaulting to operations for
// unknown actions so nothing is silently dropped.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}
