package users

import (
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// User is an account allowed to sign in.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// CreateInput is the body of POST /users.
type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

// ErrNotFound is returned for unknown users.
var ErrNotFound = shared.NotFound("user")
