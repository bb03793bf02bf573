package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"justicerollon/internal/audit"
	"justicerollon/internal/identity/models"
	"justicerollon/internal/identity/store"
	"justicerollon/internal/platform/metrics"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/sentinel"
	"justicerollon/pkg/secrets"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID domain.UserID, role domain.Role, expiresIn time.Duration) (string, error)
}

// AuditPublisher records identity events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates registration and login.
type Service struct {
	users     store.UserStore
	tokens    TokenIssuer
	accessTTL time.Duration

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func New(users store.UserStore, tokens TokenIssuer, accessTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		users:     users,
		tokens:    tokens,
		accessTTL: accessTTL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account. Anyone may register as citizen or lawyer (the
// original platform allowed self-selected roles); admin accounts are only
// created by an existing admin via ElevateRole, so registration rejects them.
func (s *Service) Register(ctx context.Context, username, email, password string, role domain.Role) (*models.User, error) {
	if role == "" {
		role = domain.RoleCitizen
	}
	if role == domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeValidation, "admin accounts cannot self-register")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(domain.NewUserID(), username, email, role, hash, time.Now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.users.CreateIfUsernameAvailable(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.emit(ctx, audit.Event{
		ActorID: user.ID,
		Subject: user.ID.String(),
		Action:  string(audit.EventUserRegistered),
	})
	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	return user, nil
}

// Login verifies credentials and issues an access token. The user agent is
// summarized into the audit trail so account takeovers leave a trace.
func (s *Service) Login(ctx context.Context, username, password, userAgent string) (string, *models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.emitLoginFailure(ctx, username, userAgent)
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		s.emitLoginFailure(ctx, username, userAgent)
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
	}

	tokenString, err := s.tokens.GenerateAccessToken(user.ID, user.Role, s.accessTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.emit(ctx, audit.Event{
		ActorID: user.ID,
		Subject: user.ID.String(),
		Action:  string(audit.EventUserLoggedIn),
		Device:  summarizeDevice(userAgent),
	})
	return tokenString, user, nil
}

// GetUser loads a user profile.
func (s *Service) GetUser(ctx context.Context, userID domain.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// ElevateRole lets an administrator change another user's role.
func (s *Service) ElevateRole(ctx context.Context, actorRole domain.Role, userID domain.UserID, role domain.Role) error {
	if actorRole != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only administrators can change roles")
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}
	return nil
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

func (s *Service) emitLoginFailure(ctx context.Context, username, userAgent string) {
	s.emit(ctx, audit.Event{
		Subject: username,
		Action:  string(audit.EventLoginFailed),
		Device:  summarizeDevice(userAgent),
	})
}

// summarizeDevice reduces a raw User-Agent header to "browser/version on os".
func summarizeDevice(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return rawUA
	}
	summary := name
	if version != "" {
		summary += "/" + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}
