// Package service orchestrates the petition moderation workflow: guard the
// requested transition against the aggregate, persist with an optimistic
// version check, then emit audit and metrics.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IndexPublisher,AuditPublisher

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"justicerollon/internal/audit"
	"justicerollon/internal/petition/models"
	"justicerollon/internal/petition/store"
	"justicerollon/internal/platform/metrics"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
	txcontext "justicerollon/pkg/platform/tx"
)

// IndexSnapshot is the immutable view of a petition handed to the public
// index at publication time.
type IndexSnapshot struct {
	PetitionID  domain.PetitionID
	OwnerID     domain.UserID
	Title       string
	Description string
	Category    domain.Category
	Evidence    []EvidenceSummary
	PublishedAt time.Time
}

// EvidenceSummary is the portion of a verified evidence row exposed publicly.
type EvidenceSummary struct {
	EvidenceID domain.EvidenceID
	Title      string
	FileType   domain.FileType
	CaseTag    string
}

// IndexPublisher records a publication snapshot in the public index. The
// implementation must honor a context transaction so the snapshot commits
// with the status change.
type IndexPublisher interface {
	PublishSnapshot(ctx context.Context, snap IndexSnapshot) error
}

// AuditPublisher records workflow events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the moderation workflow.
type Service struct {
	petitions store.PetitionStore
	evidence  store.EvidenceStore
	index     IndexPublisher

	db             *sql.DB
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDB enables transactional publication: the status change and the index
// snapshot commit together. Without it (in-memory wiring) the two writes are
// sequential.
func WithDB(db *sql.DB) Option {
	return func(s *Service) { s.db = db }
}

func New(petitions store.PetitionStore, evidence store.EvidenceStore, index IndexPublisher, opts ...Option) *Service {
	s := &Service{
		petitions: petitions,
		evidence:  evidence,
		index:     index,
		logger:    slog.Default(),
		tracer:    otel.Tracer("justicerollon/petition"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new draft petition owned by the calling citizen.
func (s *Service) Create(ctx context.Context, actorID domain.UserID, role domain.Role, title, description string, category domain.Category, visibility domain.Visibility) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.Create")
	defer span.End()

	if role != domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens may create petitions")
	}
	p, err := models.NewPetition(actorID, title, description, category, visibility)
	if err != nil {
		return nil, err
	}
	if err := s.petitions.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create petition")
	}

	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionCreated),
	})
	if s.metrics != nil {
		s.metrics.PetitionsCreated.Inc()
	}
	return p, nil
}

// Get loads a petition. Private petitions are visible to the owner and to
// reviewers; public ones to anyone authenticated.
func (s *Service) Get(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if p.Visibility == domain.VisibilityPrivate && !p.IsOwner(actorID) && role == domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeNotFound, "petition not found")
	}
	return p, nil
}

// ListOwn lists the caller's petitions.
func (s *Service) ListOwn(ctx context.Context, actorID domain.UserID) ([]*models.Petition, error) {
	out, err := s.petitions.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list petitions")
	}
	return out, nil
}

// ListReviewQueue lists the petitions waiting on the caller's review stage.
// Lawyers see the legal queue, admins the admin queue.
func (s *Service) ListReviewQueue(ctx context.Context, role domain.Role) ([]*models.Petition, error) {
	var status models.Status
	switch role {
	case domain.RoleLawyer:
		status = models.StatusUnderLegalReview
	case domain.RoleAdmin:
		status = models.StatusUnderAdminReview
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "no review queue for this role")
	}
	out, err := s.petitions.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list review queue")
	}
	return out, nil
}

// AttachEvidence adds an evidence row to a draft petition.
func (s *Service) AttachEvidence(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, title string, fileType domain.FileType, contentRef string, sizeBytes int64, caseTag string) (*models.Evidence, error) {
	ctx, span := s.span(ctx, "petition.AttachEvidence")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanAttachEvidence(actorID, role); err != nil {
		return nil, err
	}
	ev, err := models.NewEvidence(petitionID, actorID, title, fileType, contentRef, sizeBytes, caseTag)
	if err != nil {
		return nil, err
	}
	if err := s.evidence.Create(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store evidence")
	}
	p.ApplyAttachEvidence(ev.ID)
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: ev.ID.String(),
		Action:  string(audit.EventEvidenceAttached),
	})
	return ev, nil
}

// ListEvidence returns all evidence rows ever attached to the petition,
// including rows that dropped out of the active set on resubmission.
func (s *Service) ListEvidence(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) ([]*models.Evidence, error) {
	if _, err := s.Get(ctx, actorID, role, petitionID); err != nil {
		return nil, err
	}
	out, err := s.evidence.ListByPetition(ctx, petitionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence")
	}
	return out, nil
}

// Submit moves a draft into legal review. The submitted state auto-advances
// inside the same call; callers only ever observe under_legal_review.
func (s *Service) Submit(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.Submit")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanSubmit(actorID, role); err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplySubmit()
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionSubmitted),
	})
	return p, nil
}

// RecordEvidenceVerdict records a lawyer's verified or rejected verdict on a
// single piece of evidence. The petition must be under legal review.
func (s *Service) RecordEvidenceVerdict(ctx context.Context, actorID domain.UserID, role domain.Role, evidenceID domain.EvidenceID, verified bool, reason string) (*models.Evidence, error) {
	ctx, span := s.span(ctx, "petition.RecordEvidenceVerdict")
	defer span.End()

	ev, err := s.evidence.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "evidence not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	p, err := s.load(ctx, ev.PetitionID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusUnderLegalReview {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "verdicts are recorded only under legal review, petition is %s", p.Status)
	}
	if err := ev.CanRecordVerdict(role); err != nil {
		return nil, err
	}
	if err := ev.ApplyVerdict(actorID, verified, reason); err != nil {
		return nil, err
	}
	if err := s.evidence.Update(ctx, ev); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verdict")
	}

	action := audit.EventEvidenceVerified
	if !verified {
		action = audit.EventEvidenceRejected
	}
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: ev.ID.String(),
		Action:  string(action),
		Reason:  ev.RejectionReason,
	})
	if s.metrics != nil {
		s.metrics.ObserveEvidenceVerdict(ev.Status.String())
	}
	return ev, nil
}

// ConfirmVerification completes legal review once every active evidence row
// is verified, auto-advancing to the admin queue.
func (s *Service) ConfirmVerification(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.ConfirmVerification")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	active, err := s.activeEvidence(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := p.CanConfirmVerification(role, active); err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyConfirmVerification()
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionLegallyVerified),
	})
	return p, nil
}

// RejectByLawyer fails legal review. Requires a reason and at least one
// rejected evidence verdict.
func (s *Service) RejectByLawyer(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, reason string) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.RejectByLawyer")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	active, err := s.activeEvidence(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := p.CanRejectByLawyer(role, reason, active); err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyRejectByLawyer(reason)
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionRejectedByLawyer),
		Reason:  p.LawyerReason,
	})
	return p, nil
}

// Publish approves the petition and writes its immutable snapshot to the
// public index. With a database configured both writes share one transaction.
func (s *Service) Publish(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.Publish")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanPublish(role); err != nil {
		return nil, err
	}
	active, err := s.activeEvidence(ctx, p)
	if err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyPublish()

	err = txcontext.Execute(ctx, s.db, func(ctx context.Context) error {
		if err := s.update(ctx, p); err != nil {
			return err
		}
		return s.publishSnapshot(ctx, p, active)
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionPublished),
	})
	if s.metrics != nil {
		s.metrics.PetitionsPublished.Inc()
	}
	return p, nil
}

// RejectByAdmin fails admin review with a reason.
func (s *Service) RejectByAdmin(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, reason string) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.RejectByAdmin")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanRejectByAdmin(role, reason); err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyRejectByAdmin(reason)
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionRejectedByAdmin),
		Reason:  p.AdminReason,
	})
	return p, nil
}

// Resubmit returns a rejected petition to draft. Rejection reasons clear and
// rejected evidence drops from the active set; the rows stay queryable.
func (s *Service) Resubmit(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.Resubmit")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanResubmit(actorID, role); err != nil {
		return nil, err
	}
	active, err := s.activeEvidence(ctx, p)
	if err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyResubmit(active)
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionResubmitted),
	})
	return p, nil
}

// Withdraw abandons a pre-publication petition.
func (s *Service) Withdraw(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
	ctx, span := s.span(ctx, "petition.Withdraw")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	if err := p.CanWithdraw(actorID, role); err != nil {
		return nil, err
	}
	from := p.Status
	p.ApplyWithdraw()
	if err := s.update(ctx, p); err != nil {
		return nil, err
	}

	s.recordTransition(from, p.Status)
	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionWithdrawn),
	})
	return p, nil
}

// Support records a citizen's support for a published petition, once per
// user, and returns the new supporter count.
func (s *Service) Support(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (int, error) {
	ctx, span := s.span(ctx, "petition.Support")
	defer span.End()

	p, err := s.load(ctx, petitionID)
	if err != nil {
		return 0, err
	}
	if err := p.CanSupport(actorID, role); err != nil {
		return 0, err
	}
	count, err := s.petitions.AddSupporter(ctx, petitionID, actorID)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return 0, dErrors.New(dErrors.CodeConflict, "petition already supported")
		case errors.Is(err, sentinel.ErrNotFound):
			return 0, dErrors.New(dErrors.CodeNotFound, "petition not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record support")
	}

	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: p.ID.String(),
		Action:  string(audit.EventPetitionSupported),
	})
	return count, nil
}

func (s *Service) publishSnapshot(ctx context.Context, p *models.Petition, active []*models.Evidence) error {
	if s.index == nil {
		return nil
	}
	snap := IndexSnapshot{
		PetitionID:  p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Category:    p.Category,
		PublishedAt: *p.PublishedAt,
	}
	for _, ev := range active {
		snap.Evidence = append(snap.Evidence, EvidenceSummary{
			EvidenceID: ev.ID,
			Title:      ev.Title,
			FileType:   ev.FileType,
			CaseTag:    ev.CaseTag,
		})
	}
	if err := s.index.PublishSnapshot(ctx, snap); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish index snapshot")
	}
	return nil
}

func (s *Service) load(ctx context.Context, petitionID domain.PetitionID) (*models.Petition, error) {
	p, err := s.petitions.FindByID(ctx, petitionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "petition not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load petition")
	}
	return p, nil
}

// update persists the aggregate, translating a lost optimistic race into a
// retryable conflict for the caller.
func (s *Service) update(ctx context.Context, p *models.Petition) error {
	if err := s.petitions.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.ObserveConflict()
			}
			return dErrors.New(dErrors.CodeConflict, "petition was modified concurrently, retry")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "petition not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store petition")
	}
	return nil
}

func (s *Service) activeEvidence(ctx context.Context, p *models.Petition) ([]*models.Evidence, error) {
	active, err := s.evidence.FindMany(ctx, p.EvidenceIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	return active, nil
}

func (s *Service) recordTransition(from, to models.Status) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(from.String(), to.String())
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("component", "petition")))
}
