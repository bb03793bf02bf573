// Package service manages depositions on petitions.
package service

import (
	"context"
	"errors"
	"log/slog"

	"justicerollon/internal/audit"
	"justicerollon/internal/deposition/models"
	"justicerollon/internal/deposition/store"
	petitionmodels "justicerollon/internal/petition/models"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
)

// PetitionGetter loads a petition with the caller's visibility rules
// applied. Satisfied by the petition service.
type PetitionGetter interface {
	Get(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*petitionmodels.Petition, error)
}

// AuditPublisher records deposition events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service manages depositions.
type Service struct {
	depositions store.DepositionStore
	petitions   PetitionGetter

	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(depositions store.DepositionStore, petitions PetitionGetter, opts ...Option) *Service {
	s := &Service{
		depositions: depositions,
		petitions:   petitions,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a deposition to a petition. The petition owner and lawyers may
// testify; a withdrawn petition takes no further testimony.
func (s *Service) Add(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, title, body string) (*models.Deposition, error) {
	p, err := s.petitions.Get(ctx, actorID, role, petitionID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleLawyer && !p.IsOwner(actorID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the owner or a lawyer may add depositions")
	}
	if p.Status == petitionmodels.StatusWithdrawn {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "withdrawn petitions take no depositions")
	}

	d, err := models.NewDeposition(petitionID, actorID, title, body)
	if err != nil {
		return nil, err
	}
	if err := s.depositions.Create(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "deposition ordering contention, retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store deposition")
	}

	s.emit(ctx, audit.Event{
		ActorID: actorID,
		Subject: d.ID.String(),
		Action:  string(audit.EventDepositionCreated),
	})
	return d, nil
}

// List returns a petition's depositions in testimony order.
func (s *Service) List(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) ([]*models.Deposition, error) {
	if _, err := s.petitions.Get(ctx, actorID, role, petitionID); err != nil {
		return nil, err
	}
	out, err := s.depositions.ListByPetition(ctx, petitionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list depositions")
	}
	return out, nil
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
