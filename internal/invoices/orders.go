package invoices

import (
	"context"

	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/workorders"
)

// OrderEntry snapshots inv for a work order, annotating each manufactured line with
// the length it needs: (height + 2) × quantity.
func OrderEntry(inv Invoice) workorders.OrderInvoice {
	entry := workorders.OrderInvoice{
		InvoiceID:      inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		CustomerName:   inv.CustomerName,
		SupervisorName: inv.SupervisorName,
		TotalAmount:    inv.TotalAmount,
		Items:          make([]workorders.OrderItem, 0, len(inv.Items)),
	}
	for _, it := range inv.Items {
		line := workorders.OrderItem{ProductType: string(it.ProductType), Quantity: it.Quantity}
		if it.IsManufactured() {
			line.SealType = it.SealType
			line.MaterialType = it.MaterialType
			line.InnerDiameter = it.InnerDiameter
			line.OuterDiameter = it.OuterDiameter
			line.Height = it.Height
			line.UnitCode = unitCode(it)
			line.MaterialConsumptionMM = shared.Round2(materials.PerSeal(it.Height) * float64(it.Quantity))
		} else if it.Local != nil {
			line.ProductName = it.ProductName
			if line.ProductName == "" && it.LocalProductDetails != nil {
				line.ProductName = it.LocalProductDetails.Name
			}
		}
		entry.Items = append(entry.Items, line)
	}
	return entry
}

func unitCode(it Item) string {
	if it.Allocation != nil && len(it.Allocation.Consumptions) > 0 {
		return it.Allocation.Consumptions[0].UnitCode
	}
	switch {
	case len(it.SelectedMaterials) > 0:
		return it.SelectedMaterials[0].UnitCode
	case it.MaterialDetails != nil:
		return it.MaterialDetails.UnitCode
	default:
		return it.MaterialUsed
	}
}

// OrderSource resolves invoice ids for ad-hoc work orders.
type OrderSource struct {
	repo Repository
}

// NewOrderSource adapts repo to workorders.InvoiceSource.
func NewOrderSource(repo Repository) *OrderSource {
	return &OrderSource{repo: repo}
}

// OrderEntries implements workorders.InvoiceSource. Unknown ids are skipped.
func (o *OrderSource) OrderEntries(ctx context.Context, ids []string) ([]workorders.OrderInvoice, error) {
	found, err := o.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]workorders.OrderInvoice, 0, len(found))
	for _, inv := range found {
		out = append(out, OrderEntry(inv))
	}
	return out, nil
}
