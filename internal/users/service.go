package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository defines data access methods for users.
type Repository interface {
	Get(ctx context.Context, id string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	Insert(ctx context.Context, u User) error
}

// Service handles user business logic.
type Service struct {
	repo Repository
	cost int
	now  func() time.Time
}

// NewService builds Service. cost is the bcrypt cost; zero selects bcrypt.DefaultCost.
func NewService(repo Repository, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, cost: cost, now: time.Now}
}

// Create hashes the password and stores a new active user.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return User{}, shared.Invalid("username", "required")
	}
	role := shared.RoleUser
	switch shared.Role(input.Role) {
	case "", shared.RoleUser:
	case shared.RoleAdmin:
		role = shared.RoleAdmin
	default:
		return User{}, shared.Invalid("role", "unknown role "+input.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return User{}, shared.Invalid("password", err.Error())
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get loads one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// FindByUsername loads a user by login name.
func (s *Service) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.FindByUsername(ctx, strings.TrimSpace(username))
}
