// Package compat ranks raw materials and stocked seals against a target seal geometry.
package compat

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/materials"
)

const (
	baseScore       = 100
	shortPenalty    = 10
	fitPenalty      = 5
	exactBonus      = 10
	exactWindowMM   = 1.0
	productTolMM    = 1.0
	diameterTolPct  = 0.10
	minHeightTolMM  = 5.0
	heightTolFactor = 0.10
)

// MaterialFinder lists raw materials long enough for a cut.
type MaterialFinder interface {
	Candidates(ctx context.Context, t materials.MaterialType, minHeight float64) ([]materials.RawMaterial, error)
}

// ProductFinder matches finished seals within a tolerance.
type ProductFinder interface {
	MatchProducts(ctx context.Context, sealType string, inner, outer, height, tol float64) ([]catalog.Product, error)
}

// Query is the seal geometry being looked for.
type Query struct {
	SealType      string  `json:"seal_type"`
	InnerDiameter float64 `json:"inner_diameter" validate:"gt=0"`
	OuterDiameter float64 `json:"outer_diameter" validate:"gtfield=InnerDiameter"`
	Height        float64 `json:"height" validate:"gt=0"`
	MaterialType  string  `json:"material_type,omitempty"`
}

// Candidate is a raw material that can be cut into the queried seal.
type Candidate struct {
	materials.RawMaterial
	Score     int     `json:"compatibility_score"`
	Deviation float64 `json:"deviation"`
	MaxSeals  int     `json:"max_seals"`
}

// Result is the response of a compatibility check.
type Result struct {
	CompatibleMaterials []Candidate       `json:"compatible_materials"`
	CompatibleProducts  []catalog.Product `json:"compatible_products"`
	SearchCriteria      Query             `json:"search_criteria"`
}

// Service runs compatibility searches.
type Service struct {
	materials MaterialFinder
	products  ProductFinder
	logger    *slog.Logger
}

// NewService builds Service. products may be nil.
func NewService(stock MaterialFinder, products ProductFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{materials: stock, products: products, logger: logger}
}

// Search looks up materials and products concurrently.
func (s *Service) Search(ctx context.Context, q Query) (Result, error) {
	var t materials.MaterialType
	if q.MaterialType != "" {
		parsed, err := materials.ParseMaterialType(q.MaterialType)
		if err != nil {
			return Result{}, err
		}
		t = parsed
		q.MaterialType = string(parsed)
	}

	res := Result{CompatibleMaterials: []Candidate{}, CompatibleProducts: []catalog.Product{}, SearchCriteria: q}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.materials.Candidates(ctx, t, materials.PerSeal(q.Height))
		if err != nil {
			return err
		}
		res.CompatibleMaterials = Rank(q, found)
		return nil
	})
	if s.products != nil && q.SealType != "" {
		g.Go(func() error {
			found, err := s.products.MatchProducts(ctx, q.SealType, q.InnerDiameter, q.OuterDiameter, q.Height, productTolMM)
			if err != nil {
				return err
			}
			if found != nil {
				res.CompatibleProducts = found
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	s.logger.Debug("compatibility search",
		slog.Float64("inner", q.InnerDiameter),
		slog.Float64("outer", q.OuterDiameter),
		slog.Float64("height", q.Height),
		slog.Int("materials", len(res.CompatibleMaterials)),
		slog.Int("products", len(res.CompatibleProducts)))
	return res, nil
}

// Rank filters and scores materials for q, best first.
func Rank(q Query, found []materials.RawMaterial) []Candidate {
	required := materials.PerSeal(q.Height)
	heightTol := math.Max(minHeightTolMM, q.Height*heightTolFactor)
	innerMax := q.InnerDiameter * (1 + diameterTolPct)
	outerMin := q.OuterDiameter * (1 - diameterTolPct)

	out := []Candidate{}
	for _, m := range found {
		if Wasteful(m.Height, q.Height) {
			continue
		}
		if m.InnerDiameter > innerMax || m.OuterDiameter < outerMin || m.Height < required {
			continue
		}
		score := baseScore
		if m.Height < required+heightTol {
			score -= shortPenalty
		}
		if m.InnerDiameter > q.InnerDiameter {
			score -= fitPenalty
		}
		if m.OuterDiameter < q.OuterDiameter {
			score -= fitPenalty
		}
		innerDev := math.Abs(m.InnerDiameter - q.InnerDiameter)
		outerDev := math.Abs(m.OuterDiameter - q.OuterDiameter)
		if innerDev <= exactWindowMM && outerDev <= exactWindowMM {
			score += exactBonus
		}
		out = append(out, Candidate{
			RawMaterial: m,
			Score:       score,
			Deviation:   math.Round((innerDev+outerDev)*100) / 100,
			MaxSeals:    materials.MaxSeals(m.Height, q.Height),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Deviation < out[j].Deviation
	})
	return out
}

// Wasteful reports whether a material of length mm is too short to offer, or would
// leave an unusable offcut after one seal of sealHeight.
func Wasteful(length, sealHeight float64) bool {
	if length <= materials.WasteFloorMM {
		return true
	}
	rest := length - materials.PerSeal(sealHeight)
	return rest > 0 && rest < materials.WasteFloorMM
}
