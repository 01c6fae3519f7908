package compat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/catalog/catalogtest"
	"github.com/sealworks/seal-erp/internal/compat"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/materials/materialstest"
	"github.com/sealworks/seal-erp/internal/shared"
)

func raw(id string, inner, outer, height float64) materials.RawMaterial {
	return materials.RawMaterial{ID: id, UnitCode: id, MaterialType: materials.MaterialNBR, InnerDiameter: inner, OuterDiameter: outer, Height: height}
}

func newService() *compat.Service {
	stock := materialstest.NewStore(
		raw("b", 21.5, 39, 200),
		raw("a", 20, 40, 200),
		raw("c", 20, 40, 55),
		raw("e", 18, 42, 300),
		raw("d", 19.5, 40.5, 52),
		raw("f", 25, 40, 200),
		raw("g", 20, 40, 10),
	)
	products := catalogtest.NewRepository()
	products.AddProduct(catalog.Product{ID: "p1", SealType: "TC", InnerDiameter: 20.5, OuterDiameter: 40, Height: 50})
	products.AddProduct(catalog.Product{ID: "p2", SealType: "TC", InnerDiameter: 22, OuterDiameter: 40, Height: 50})
	products.AddProduct(catalog.Product{ID: "p3", SealType: "TB", InnerDiameter: 20, OuterDiameter: 40, Height: 50})
	return compat.NewService(stock, catalog.NewService(products), nil)
}

func ids(cs []compat.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestSearchRanksByScoreThenDeviation(t *testing.T) {
	res, err := newService().Search(context.Background(), compat.Query{SealType: "TC", InnerDiameter: 20, OuterDiameter: 40, Height: 50})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "d", "e", "b"}, ids(res.CompatibleMaterials))
	scores := []int{}
	for _, c := range res.CompatibleMaterials {
		scores = append(scores, c.Score)
	}
	require.Equal(t, []int{110, 100, 100, 90}, scores)
	require.InDelta(t, 2.5, res.CompatibleMaterials[3].Deviation, 1e-9)

	require.Len(t, res.CompatibleProducts, 1)
	require.Equal(t, "p1", res.CompatibleProducts[0].ID)
	require.Equal(t, 50.0, res.SearchCriteria.Height)
}

func TestSearchFiltersByMaterialType(t *testing.T) {
	svc := compat.NewService(materialstest.NewStore(raw("a", 20, 40, 200)), nil, nil)

	res, err := svc.Search(context.Background(), compat.Query{InnerDiameter: 20, OuterDiameter: 40, Height: 50, MaterialType: "vt"})
	require.NoError(t, err)
	require.Empty(t, res.CompatibleMaterials)
	require.Equal(t, "VT", res.SearchCriteria.MaterialType)
	require.NotNil(t, res.CompatibleProducts)

	_, err = svc.Search(context.Background(), compat.Query{InnerDiameter: 20, OuterDiameter: 40, Height: 50, MaterialType: "silicone"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestWasteful(t *testing.T) {
	require.True(t, compat.Wasteful(15, 3))
	require.True(t, compat.Wasteful(20, 8))
	require.False(t, compat.Wasteful(10+15, 8))
	require.False(t, compat.Wasteful(52, 50))
}

func TestCompatibilityCheckEndpoint(t *testing.T) {
	r := chi.NewRouter()
	compat.NewHandler(nil, newService()).MountRoutes(r)

	rec := httptest.NewRecorder()
	body := `{"seal_type":"TC","inner_diameter":20,"outer_diameter":40,"height":50}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/compatibility-check", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Contains(t, payload, "compatible_materials")
	require.Contains(t, payload, "compatible_products")
	require.Contains(t, payload, "search_criteria")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/compatibility-check", strings.NewReader(`{"inner_diameter":40,"outer_diameter":20,"height":5}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
