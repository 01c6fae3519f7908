package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// TransactionType enumerates supported inventory movements.
type TransactionType string

const (
	// TransactionTypeIn represents an inbound movement.
	TransactionTypeIn TransactionType = "in"
	// TransactionTypeOut represents an outbound movement.
	TransactionTypeOut TransactionType = "out"
)

// DefaultMinStockLevel applies when an item is created without a threshold.
const DefaultMinStockLevel = 2

// Item counts whole pieces of one material geometry.
type Item struct {
	ID              string    `json:"id"`
	MaterialType    string    `json:"material_type"`
	InnerDiameter   float64   `json:"inner_diameter"`
	OuterDiameter   float64   `json:"outer_diameter"`
	AvailablePieces int       `json:"available_pieces"`
	MinStockLevel   int       `json:"min_stock_level"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Low reports whether the item sits at or below its threshold.
func (i Item) Low() bool {
	return i.AvailablePieces <= i.MinStockLevel
}

// Key is the natural key of an inventory item.
type Key struct {
	MaterialType  string
	InnerDiameter float64
	OuterDiameter float64
}

// Transaction is one signed movement of pieces.
type Transaction struct {
	ID              string          `json:"id"`
	InventoryItemID string          `json:"inventory_item_id"`
	MaterialType    string          `json:"material_type"`
	InnerDiameter   float64         `json:"inner_diameter"`
	OuterDiameter   float64         `json:"outer_diameter"`
	TransactionType TransactionType `json:"transaction_type"`
	PiecesChange    int             `json:"pieces_change"`
	RemainingPieces int             `json:"remaining_pieces"`
	Reason          string          `json:"reason"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CreateInput describes a new inventory item.
type CreateInput struct {
	MaterialType    string  `json:"material_type" validate:"required"`
	InnerDiameter   float64 `json:"inner_diameter" validate:"gt=0"`
	OuterDiameter   float64 `json:"outer_diameter" validate:"gt=0"`
	AvailablePieces int     `json:"available_pieces" validate:"gte=0"`
	MinStockLevel   *int    `json:"min_stock_level" validate:"omitempty,gte=0"`
	Notes           string  `json:"notes"`
}

// UpdateInput edits thresholds and notes. Piece counts change only through transactions.
type UpdateInput struct {
	MinStockLevel *int    `json:"min_stock_level" validate:"omitempty,gte=0"`
	Notes         *string `json:"notes"`
}

// MovementInput posts a movement against an item.
type MovementInput struct {
	InventoryItemID string          `json:"inventory_item_id" validate:"required"`
	TransactionType TransactionType `json:"transaction_type" validate:"required"`
	Pieces          int             `json:"pieces" validate:"gt=0"`
	Reason          string          `json:"reason"`
	ReferenceID     string          `json:"reference_id"`
	Notes           string          `json:"notes"`
}

// ErrNegativeStock triggered when movement would result in negative pieces.
var ErrNegativeStock = fmt.Errorf("%w: inventory cannot go below zero", shared.ErrInsufficientStock)

// ErrInvalidQuantity indicates invalid pieces.
var ErrInvalidQuantity = &shared.ValidationError{Err: shared.ErrValidation, Field: "pieces", Details: "must be greater than zero"}

// ErrUnsupportedType indicates a movement type other than in/out.
var ErrUnsupportedType = &shared.ValidationError{Err: shared.ErrValidation, Field: "transaction_type", Key: shared.MsgUnsupportedTxType}

// ErrItemNotFound is returned for unknown inventory items.
var ErrItemNotFound = shared.NotFound("inventory item")

// IsNotFound reports whether err means the item does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
