package materials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository abstracts raw-material persistence.
type Repository interface {
	StockStore
	List(ctx context.Context) ([]RawMaterial, error)
	Get(ctx context.Context, id string) (RawMaterial, error)
	Insert(ctx context.Context, m RawMaterial) error
	Update(ctx context.Context, m RawMaterial) error
	Delete(ctx context.Context, id string) error
	UnitCodes(ctx context.Context, t MaterialType, inner, outer float64) ([]string, error)
}

// PiecesConsumer takes pieces out of the inventory counter when a batch is cut into stock.
type PiecesConsumer interface {
	ConsumePieces(ctx context.Context, materialType string, inner, outer float64, pieces int, referenceID, reason string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages raw-material batches.
type Service struct {
	repo      Repository
	inventory PiecesConsumer
	audit     AuditPort
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds Service. inventory and audit may be nil.
func NewService(repo Repository, inventory PiecesConsumer, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, inventory: inventory, audit: audit, logger: logger, now: time.Now}
}

// List returns materials ordered by type priority then diameters.
func (s *Service) List(ctx context.Context) ([]RawMaterial, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	SortMaterials(items)
	return items, nil
}

// SortMaterials orders by type priority (BUR, NBR, BT, BOOM, VT), inner then outer diameter.
func SortMaterials(items []RawMaterial) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ra, rb := a.MaterialType.Rank(), b.MaterialType.Rank(); ra != rb {
			return ra < rb
		}
		if a.InnerDiameter != b.InnerDiameter {
			return a.InnerDiameter < b.InnerDiameter
		}
		return a.OuterDiameter < b.OuterDiameter
	})
}

// Get loads one material.
func (s *Service) Get(ctx context.Context, id string) (RawMaterial, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a batch, assigns its unit code and books the pieces out of inventory.
func (s *Service) Create(ctx context.Context, input CreateInput) (RawMaterial, error) {
	t, err := ParseMaterialType(input.MaterialType)
	if err != nil {
		return RawMaterial{}, err
	}
	if input.OuterDiameter <= input.InnerDiameter {
		return RawMaterial{}, shared.Invalid("outer_diameter", "must exceed inner_diameter")
	}
	code, err := s.nextUnitCode(ctx, t, input.InnerDiameter, input.OuterDiameter)
	if err != nil {
		return RawMaterial{}, err
	}
	m := RawMaterial{
		ID:            uuid.NewString(),
		MaterialType:  t,
		InnerDiameter: input.InnerDiameter,
		OuterDiameter: input.OuterDiameter,
		Height:        input.Height,
		PiecesCount:   input.PiecesCount,
		UnitCode:      code,
		CostPerMM:     input.CostPerMM,
		CreatedAt:     s.now().UTC(),
	}
	if s.inventory != nil && m.PiecesCount > 0 {
		reason := fmt.Sprintf("raw material %s created", code)
		err := s.inventory.ConsumePieces(ctx, string(t), m.InnerDiameter, m.OuterDiameter, m.PiecesCount, m.ID, reason)
		switch {
		case err == nil:
		case isNotFound(err):
			s.logger.Warn("no inventory item for raw material",
				slog.String("material_type", string(t)),
				slog.Float64("inner_diameter", m.InnerDiameter),
				slog.Float64("outer_diameter", m.OuterDiameter))
		default:
			return RawMaterial{}, err
		}
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return RawMaterial{}, err
	}
	s.record(ctx, "raw_material:create", m.ID, map[string]any{"unit_code": code, "height": m.Height})
	return m, nil
}

// Update edits length, pieces or cost.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (RawMaterial, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return RawMaterial{}, err
	}
	if input.Height != nil {
		m.Height = *input.Height
	}
	if input.PiecesCount != nil {
		m.PiecesCount = *input.PiecesCount
	}
	if input.CostPerMM != nil {
		m.CostPerMM = *input.CostPerMM
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return RawMaterial{}, err
	}
	s.record(ctx, "raw_material:update", m.ID, map[string]any{"height": m.Height})
	return m, nil
}

// Delete removes a material. Invoices that consumed it keep their records.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "raw_material:delete", id, nil)
	return nil
}

func (s *Service) nextUnitCode(ctx context.Context, t MaterialType, inner, outer float64) (string, error) {
	codes, err := s.repo.UnitCodes(ctx, t, inner, outer)
	if err != nil {
		return "", err
	}
	return NextUnitCode(t, codes), nil
}

// NextUnitCode returns prefix + (highest existing sequence + 1).
func NextUnitCode(t MaterialType, existing []string) string {
	prefix := t.Prefix()
	highest := 0
	for _, code := range existing {
		seq, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(code), prefix))
		if err == nil && seq > highest {
			highest = seq
		}
	}
	return prefix + strconv.Itoa(highest+1)
}

func (s *Service) record(ctx context.Context, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorName(ctx, "system"),
		Action:   action,
		Entity:   "raw_material",
		EntityID: id,
		Meta:     meta,
		At:       s.now().UTC(),
	}); err != nil {
		s.logger.Warn("audit raw material", slog.Any("error", err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
