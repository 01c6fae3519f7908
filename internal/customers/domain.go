package customers

import (
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Customer is a buyer of seals.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Input creates or replaces a customer.
type Input struct {
	Name    string `json:"name" validate:"required,max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// ErrNotFound is returned for unknown customer ids.
var ErrNotFound = shared.NotFound("customer")
