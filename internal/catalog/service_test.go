package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/catalog/catalogtest"
	"github.com/sealworks/seal-erp/internal/shared"
)

func TestSellLocalByNameAndSupplier(t *testing.T) {
	repo := catalogtest.NewRepository()
	repo.AddLocal(catalog.LocalProduct{ID: "l1", Name: "kit", SupplierName: "A", CurrentStock: 10})
	repo.AddLocal(catalog.LocalProduct{ID: "l2", Name: "kit", SupplierName: "B", CurrentStock: 4})
	svc := catalog.NewService(repo)

	p, err := svc.SellLocal(context.Background(), catalog.LocalSale{Name: "kit", SupplierName: "B", Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, "l2", p.ID)
	require.Equal(t, 1, p.CurrentStock)
	require.Equal(t, 3, p.TotalSold)

	p, err = svc.SellLocal(context.Background(), catalog.LocalSale{ProductID: "l2", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, -1, p.CurrentStock)
}

func TestSellLocalErrors(t *testing.T) {
	svc := catalog.NewService(catalogtest.NewRepository())

	_, err := svc.SellLocal(context.Background(), catalog.LocalSale{Name: "none", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.SellLocal(context.Background(), catalog.LocalSale{ProductID: "x", Quantity: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestProductCRUD(t *testing.T) {
	svc := catalog.NewService(catalogtest.NewRepository())
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{SealType: "TC", MaterialType: "nbr", InnerDiameter: 20, OuterDiameter: 35, Height: 7, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, "NBR", p.MaterialType)

	p, err = svc.UpdateProduct(ctx, p.ID, catalog.ProductInput{SealType: "TC", MaterialType: "NBR", InnerDiameter: 20, OuterDiameter: 35, Height: 7, Quantity: 9})
	require.NoError(t, err)
	require.Equal(t, 9, p.Quantity)

	matches, err := svc.MatchProducts(ctx, "TC", 20.5, 35, 7.8, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
