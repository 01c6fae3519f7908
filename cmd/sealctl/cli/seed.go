package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/customers"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
)

// Seeder creates a small demo dataset through the services.
type Seeder struct {
	Customers interface {
		Create(ctx context.Context, input customers.Input) (customers.Customer, error)
	}
	Suppliers interface {
		Create(ctx context.Context, input suppliers.Input) (suppliers.Supplier, error)
	}
	Inventory interface {
		Create(ctx context.Context, input inventory.CreateInput) (inventory.Item, error)
	}
	Materials interface {
		Create(ctx context.Context, input materials.CreateInput) (materials.RawMaterial, error)
	}
	Catalog interface {
		CreateProduct(ctx context.Context, input catalog.ProductInput) (catalog.Product, error)
		CreateLocal(ctx context.Context, input catalog.LocalInput) (catalog.LocalProduct, error)
	}
}

func minStock(n int) *int { return &n }

// Run seeds every collection and reports one line per created record.
func (s *Seeder) Run(ctx context.Context, out io.Writer) error {
	for _, in := range []customers.Input{
		{Name: "ورشة النور", Phone: "01000000001", Address: "القاهرة"},
		{Name: "مصنع الأمل", Phone: "01000000002", Address: "الإسكندرية"},
	} {
		c, err := s.Customers.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", in.Name, err)
		}
		fmt.Fprintf(out, "customer %s\n", c.ID)
	}

	supplier, err := s.Suppliers.Create(ctx, suppliers.Input{Name: "مورد الجوانات", Phone: "01100000000"})
	if err != nil {
		return fmt.Errorf("seed supplier: %w", err)
	}
	fmt.Fprintf(out, "supplier %s\n", supplier.ID)

	stock := []inventory.CreateInput{
		{MaterialType: "NBR", InnerDiameter: 20, OuterDiameter: 40, AvailablePieces: 10, MinStockLevel: minStock(2)},
		{MaterialType: "BUR", InnerDiameter: 30, OuterDiameter: 50, AvailablePieces: 6, MinStockLevel: minStock(2)},
		{MaterialType: "VT", InnerDiameter: 25, OuterDiameter: 45, AvailablePieces: 1, MinStockLevel: minStock(3)},
	}
	for _, in := range stock {
		item, err := s.Inventory.Create(ctx, in)
		if errors.Is(err, shared.ErrConflict) {
			fmt.Fprintf(out, "inventory %s %gx%g exists\n", in.MaterialType, in.InnerDiameter, in.OuterDiameter)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed inventory %s: %w", in.MaterialType, err)
		}
		fmt.Fprintf(out, "inventory %s\n", item.ID)
	}

	for _, in := range []materials.CreateInput{
		{MaterialType: "NBR", InnerDiameter: 20, OuterDiameter: 40, Height: 1000, PiecesCount: 2, CostPerMM: 0.5},
		{MaterialType: "BUR", InnerDiameter: 30, OuterDiameter: 50, Height: 500, PiecesCount: 1, CostPerMM: 0.8},
	} {
		m, err := s.Materials.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("seed raw material %s: %w", in.MaterialType, err)
		}
		fmt.Fprintf(out, "raw material %s %s\n", m.ID, m.UnitCode)
	}

	p, err := s.Catalog.CreateProduct(ctx, catalog.ProductInput{
		SealType: "oil_seal", MaterialType: "NBR", InnerDiameter: 20, OuterDiameter: 40, Height: 8, Quantity: 50, UnitPrice: 12.5,
	})
	if err != nil {
		return fmt.Errorf("seed product: %w", err)
	}
	fmt.Fprintf(out, "product %s\n", p.ID)

	lp, err := s.Catalog.CreateLocal(ctx, catalog.LocalInput{
		Name: "طقم جوانات مستورد", SupplierID: supplier.ID, PurchasePrice: 15, SellingPrice: 25, CurrentStock: 20,
	})
	if err != nil {
		return fmt.Errorf("seed local product: %w", err)
	}
	fmt.Fprintf(out, "local product %s\n", lp.ID)
	return nil
}

func newSeedCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a demo dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			seeder, release, err := env.OpenSeeder(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return seeder.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
}
