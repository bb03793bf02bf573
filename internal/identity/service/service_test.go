package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"justicerollon/internal/identity/store"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

// staticTokenIssuer avoids real JWT signing in unit tests.
type staticTokenIssuer struct {
	lastUserID domain.UserID
	lastRole   domain.Role
}

func (i *staticTokenIssuer) GenerateAccessToken(userID domain.UserID, role domain.Role, _ time.Duration) (string, error) {
	i.lastUserID = userID
	i.lastRole = role
	return "token-" + userID.String(), nil
}

type IdentitySuite struct {
	suite.Suite
	issuer *staticTokenIssuer
	svc    *Service
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) SetupTest() {
	s.issuer = &staticTokenIssuer{}
	s.svc = New(store.NewInMemoryUserStore(), s.issuer, 15*time.Minute)
}

func (s *IdentitySuite) TestRegister() {
	ctx := context.Background()

	s.Run("defaults to citizen", func() {
		user, err := s.svc.Register(ctx, "ada", "ada@example.org", "correct-horse", "")
		s.Require().NoError(err)
		s.Equal(domain.RoleCitizen, user.Role)
	})

	s.Run("lawyers may self-register", func() {
		user, err := s.svc.Register(ctx, "counsel", "counsel@example.org", "correct-horse", domain.RoleLawyer)
		s.Require().NoError(err)
		s.Equal(domain.RoleLawyer, user.Role)
	})

	s.Run("admin self-registration is refused", func() {
		_, err := s.svc.Register(ctx, "boss", "boss@example.org", "correct-horse", domain.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("short passwords are refused", func() {
		_, err := s.svc.Register(ctx, "weak", "weak@example.org", "short", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate username conflicts", func() {
		_, err := s.svc.Register(ctx, "ada", "other@example.org", "correct-horse", "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *IdentitySuite) TestLogin() {
	ctx := context.Background()
	user, err := s.svc.Register(ctx, "ada", "ada@example.org", "correct-horse", "")
	s.Require().NoError(err)

	s.Run("valid credentials issue a token", func() {
		token, loggedIn, err := s.svc.Login(ctx, "ada", "correct-horse", "Mozilla/5.0")
		s.Require().NoError(err)
		s.NotEmpty(token)
		s.Equal(user.ID, loggedIn.ID)
		s.Equal(user.ID, s.issuer.lastUserID)
		s.Equal(domain.RoleCitizen, s.issuer.lastRole)
	})

	s.Run("wrong password and unknown user fail identically", func() {
		_, _, errPassword := s.svc.Login(ctx, "ada", "wrong", "")
		_, _, errUser := s.svc.Login(ctx, "nobody", "wrong", "")

		s.True(dErrors.HasCode(errPassword, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(errUser, dErrors.CodeUnauthorized))
		s.Equal(errPassword.Error(), errUser.Error())
	})
}

func (s *IdentitySuite) TestElevateRole() {
	ctx := context.Background()
	user, err := s.svc.Register(ctx, "ada", "ada@example.org", "correct-horse", "")
	s.Require().NoError(err)

	s.Run("only admins may elevate", func() {
		err := s.svc.ElevateRole(ctx, domain.RoleCitizen, user.ID, domain.RoleLawyer)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin promotes a user", func() {
		s.Require().NoError(s.svc.ElevateRole(ctx, domain.RoleAdmin, user.ID, domain.RoleAdmin))

		promoted, err := s.svc.GetUser(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(domain.RoleAdmin, promoted.Role)
	})

	s.Run("unknown user is not found", func() {
		err := s.svc.ElevateRole(ctx, domain.RoleAdmin, domain.NewUserID(), domain.RoleLawyer)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSummarizeDevice(t *testing.T) {
	cases := []struct {
		name string
		ua   string
		want string
	}{
		{"empty", "", ""},
		{"unknown agent passes through", "curl/8.4.0", "curl/8.4.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := summarizeDevice(tc.ua); got != tc.want {
				t.Fatalf("summarizeDevice(%q) = %q, want %q", tc.ua, got, tc.want)
			}
		})
	}
}
