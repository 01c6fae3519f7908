// Package catalog holds finished seals in stock and bought-in local products.
package catalog

import (
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Product is a finished seal held in stock.
type Product struct {
	ID            string    `json:"id"`
	SealType      string    `json:"seal_type"`
	MaterialType  string    `json:"material_type"`
	InnerDiameter float64   `json:"inner_diameter"`
	OuterDiameter float64   `json:"outer_diameter"`
	Height        float64   `json:"height"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProductInput creates or replaces a finished product.
type ProductInput struct {
	SealType      string  `json:"seal_type" validate:"required"`
	MaterialType  string  `json:"material_type" validate:"required"`
	InnerDiameter float64 `json:"inner_diameter" validate:"gt=0"`
	OuterDiameter float64 `json:"outer_diameter" validate:"gtfield=InnerDiameter"`
	Height        float64 `json:"height" validate:"gt=0"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
	UnitPrice     float64 `json:"unit_price" validate:"gte=0"`
}

// LocalProduct is bought from a supplier and resold as is.
type LocalProduct struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SupplierID    string    `json:"supplier_id"`
	SupplierName  string    `json:"supplier_name"`
	PurchasePrice float64   `json:"purchase_price"`
	SellingPrice  float64   `json:"selling_price"`
	CurrentStock  int       `json:"current_stock"`
	TotalSold     int       `json:"total_sold"`
	CreatedAt     time.Time `json:"created_at"`
}

// LocalInput creates or replaces a local product.
type LocalInput struct {
	Name          string  `json:"name" validate:"required"`
	SupplierID    string  `json:"supplier_id"`
	SupplierName  string  `json:"supplier_name"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	SellingPrice  float64 `json:"selling_price" validate:"gte=0"`
	CurrentStock  int     `json:"current_stock"`
}

// LocalSale identifies a sold local product by id, or by name and supplier.
type LocalSale struct {
	ProductID    string
	Name         string
	SupplierName string
	Quantity     int
}

var (
	// ErrProductNotFound is returned for unknown finished products.
	ErrProductNotFound = shared.NotFound("product")
	// ErrLocalNotFound is returned for unknown local products.
	ErrLocalNotFound = shared.NotFound("local product")
)
