package materials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sealworks/seal-erp/internal/shared"
)

// StockStore runs length mutations inside short row-locking transactions.
type StockStore interface {
	WithStockTx(ctx context.Context, fn func(context.Context, StockTx) error) error
}

// StockTx exposes the locked reads and writes used by the allocator.
type StockTx interface {
	LockByID(ctx context.Context, id string) (RawMaterial, error)
	LockByRef(ctx context.Context, ref Ref) (RawMaterial, error)
	SetHeight(ctx context.Context, id string, height float64) error
}

// Allocator deducts consumed length from raw materials. Shortfalls never fail
// the call; they are reported in the Outcome and logged.
type Allocator struct {
	store  StockStore
	logger *slog.Logger
}

// NewAllocator builds an Allocator.
func NewAllocator(store StockStore, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{store: store, logger: logger}
}

// MaxSeals returns how many seals fit in length without leaving an unusable offcut.
// When the remainder after the last cut lands in (0, WasteFloorMM) one seal is dropped.
func MaxSeals(length, sealHeight float64) int {
	per := decimal.NewFromFloat(PerSeal(sealHeight))
	if !per.IsPositive() {
		return 0
	}
	remaining := decimal.NewFromFloat(length)
	if !remaining.IsPositive() {
		return 0
	}
	n := remaining.Div(per).Floor()
	rem := remaining.Sub(n.Mul(per))
	if n.IsPositive() && rem.IsPositive() && rem.LessThan(decimal.NewFromInt(WasteFloorMM)) {
		n = n.Sub(decimal.NewFromInt(1))
	}
	return int(n.IntPart())
}

// Allocate deducts raw-material length for req and reports what was taken.
// Returned errors are structural (storage failures); shortfalls are not errors.
func (a *Allocator) Allocate(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{RequestedSeals: req.Quantity, Consumptions: []Consumption{}, Warnings: []string{}}
	var err error
	switch {
	case len(req.Selected) > 0:
		err = a.allocateSelected(ctx, req, &out)
	case req.Details != nil:
		err = a.allocateDetails(ctx, req, *req.Details, &out)
	case req.UnitCode != "":
		err = a.allocateUnitCode(ctx, req, &out)
	default:
		out.Warnings = append(out.Warnings, "no material specified")
	}
	out.ShortfallSeals = max(out.RequestedSeals-out.AllocatedSeals, 0)
	if out.ShortfallSeals > 0 {
		a.logger.Warn("allocation shortfall",
			slog.Int("requested_seals", out.RequestedSeals),
			slog.Int("allocated_seals", out.AllocatedSeals),
			slog.Any("warnings", out.Warnings))
	}
	return out, err
}

func (a *Allocator) allocateSelected(ctx context.Context, req Request, out *Outcome) error {
	for _, sel := range req.Selected {
		if sel.SealCount <= 0 {
			continue
		}
		required := mul(sel.SealCount, PerSeal(req.SealHeight))
		err := a.deduct(ctx, sel.Ref, func(m RawMaterial) (int, float64, string) {
			if m.Height < required {
				return 0, 0, fmt.Sprintf("material %s has %.2fmm, needs %.2fmm", m.UnitCode, m.Height, required)
			}
			return sel.SealCount, required, ""
		}, out)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Allocator) allocateDetails(ctx context.Context, req Request, ref Ref, out *Outcome) error {
	if req.Quantity <= 0 {
		return nil
	}
	return a.deduct(ctx, ref, func(m RawMaterial) (int, float64, string) {
		seals := min(req.Quantity, MaxSeals(m.Height, req.SealHeight))
		if seals <= 0 {
			return 0, 0, fmt.Sprintf("material %s has %.2fmm, not enough for one seal", m.UnitCode, m.Height)
		}
		var warning string
		if seals < req.Quantity {
			warning = fmt.Sprintf("material %s covers %d of %d seals", m.UnitCode, seals, req.Quantity)
		}
		return seals, mul(seals, PerSeal(req.SealHeight)), warning
	}, out)
}

func (a *Allocator) allocateUnitCode(ctx context.Context, req Request, out *Outcome) error {
	if req.Quantity <= 0 {
		return nil
	}
	required := mul(req.Quantity, PerSeal(req.SealHeight))
	return a.deduct(ctx, Ref{UnitCode: req.UnitCode}, func(m RawMaterial) (int, float64, string) {
		if m.Height < required {
			return 0, 0, fmt.Sprintf("material %s has %.2fmm, needs %.2fmm", m.UnitCode, m.Height, required)
		}
		return req.Quantity, required, ""
	}, out)
}

// plan decides how many seals to cut from a locked material and how much length that takes.
type plan func(RawMaterial) (seals int, consumed float64, warning string)

func (a *Allocator) deduct(ctx context.Context, ref Ref, decide plan, out *Outcome) error {
	var (
		taken   *Consumption
		warning string
	)
	err := a.store.WithStockTx(ctx, func(ctx context.Context, tx StockTx) error {
		taken, warning = nil, ""
		m, err := lockRef(ctx, tx, ref)
		if err != nil {
			return err
		}
		var seals int
		var consumed float64
		seals, consumed, warning = decide(m)
		if seals <= 0 {
			return nil
		}
		left := decimal.NewFromFloat(m.Height).Sub(decimal.NewFromFloat(consumed)).InexactFloat64()
		if err := tx.SetHeight(ctx, m.ID, left); err != nil {
			return err
		}
		taken = &Consumption{MaterialID: m.ID, UnitCode: m.UnitCode, Seals: seals, ConsumedMM: consumed}
		return nil
	})
	if errors.Is(err, shared.ErrNotFound) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("material %s not found", ref.label()))
		return nil
	}
	if err != nil {
		return err
	}
	if warning != "" {
		out.Warnings = append(out.Warnings, warning)
	}
	if taken != nil {
		out.AllocatedSeals += taken.Seals
		out.ConsumedMM = shared.SumAmounts(out.ConsumedMM, taken.ConsumedMM)
		out.Consumptions = append(out.Consumptions, *taken)
	}
	return nil
}

// Restore puts recorded consumptions back onto their materials.
// Materials deleted since the allocation are skipped.
func (a *Allocator) Restore(ctx context.Context, consumptions []Consumption) (float64, error) {
	var restored float64
	for _, c := range consumptions {
		if c.ConsumedMM <= 0 {
			continue
		}
		err := a.store.WithStockTx(ctx, func(ctx context.Context, tx StockTx) error {
			var (
				m   RawMaterial
				err error
			)
			if c.MaterialID != "" {
				m, err = tx.LockByID(ctx, c.MaterialID)
			} else {
				m, err = tx.LockByRef(ctx, Ref{UnitCode: c.UnitCode})
			}
			if err != nil {
				return err
			}
			return tx.SetHeight(ctx, m.ID, shared.SumAmounts(m.Height, c.ConsumedMM))
		})
		if errors.Is(err, shared.ErrNotFound) {
			a.logger.Warn("restore skipped missing material", slog.String("material_id", c.MaterialID), slog.String("unit_code", c.UnitCode))
			continue
		}
		if err != nil {
			return restored, err
		}
		restored = shared.SumAmounts(restored, c.ConsumedMM)
	}
	return restored, nil
}

// LegacyConsumptions rebuilds consumptions for items stored without an allocation
// record, assuming every requested seal was cut.
func LegacyConsumptions(req Request) []Consumption {
	per := PerSeal(req.SealHeight)
	switch {
	case len(req.Selected) > 0:
		out := make([]Consumption, 0, len(req.Selected))
		for _, sel := range req.Selected {
			out = append(out, Consumption{MaterialID: sel.ID, UnitCode: sel.UnitCode, Seals: sel.SealCount, ConsumedMM: mul(sel.SealCount, per)})
		}
		return out
	case req.Details != nil:
		return []Consumption{{MaterialID: req.Details.ID, UnitCode: req.Details.UnitCode, Seals: req.Quantity, ConsumedMM: mul(req.Quantity, per)}}
	case req.UnitCode != "":
		return []Consumption{{UnitCode: req.UnitCode, Seals: req.Quantity, ConsumedMM: mul(req.Quantity, per)}}
	default:
		return nil
	}
}

func lockRef(ctx context.Context, tx StockTx, ref Ref) (RawMaterial, error) {
	if ref.ID != "" {
		return tx.LockByID(ctx, ref.ID)
	}
	return tx.LockByRef(ctx, ref)
}

func mul(n int, per float64) float64 {
	return decimal.NewFromInt(int64(n)).Mul(decimal.NewFromFloat(per)).InexactFloat64()
}
