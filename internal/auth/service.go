package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/users"
)

// UserStore looks up accounts.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
	Get(ctx context.Context, id string) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	users    UserStore
	tokens   *Tokens
	denylist *Denylist
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(store UserStore, tokens *Tokens, denylist *Denylist, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: store, tokens: tokens, denylist: denylist, logger: logger}
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return Session{}, err
		}
		return Session{}, shared.ErrInvalidCredentials
	}
	if !u.IsActive {
		return Session{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, shared.ErrInvalidCredentials
	}
	token, claims, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("login", slog.String("username", u.Username), slog.String("role", string(u.Role)))
	return Session{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        u,
	}, nil
}

// Verify parses a bearer token and rejects revoked ones.
func (s *Service) Verify(ctx context.Context, raw string) (*shared.Principal, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.ErrUnauthorized
	}
	return &shared.Principal{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     shared.Role(claims.Role),
		TokenID:  claims.ID,
	}, nil
}

// Logout denylists the token behind raw until it expires.
func (s *Service) Logout(ctx context.Context, raw string) error {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Me returns the account behind p.
func (s *Service) Me(ctx context.Context, p *shared.Principal) (users.User, error) {
	if p == nil {
		return users.User{}, shared.ErrUnauthorized
	}
	return s.users.Get(ctx, p.UserID)
}
