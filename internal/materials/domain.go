package materials

import (
	"strings"
	"time"

	"github.com/sealworks/seal-erp/internal/shared"
)

// MaterialType enumerates raw-material compounds.
type MaterialType string

const (
	MaterialBUR  MaterialType = "BUR"
	MaterialNBR  MaterialType = "NBR"
	MaterialBT   MaterialType = "BT"
	MaterialBOOM MaterialType = "BOOM"
	MaterialVT   MaterialType = "VT"
)

// Cutting constants in millimetres.
const (
	// CutAllowanceMM is lost to the blade for every seal cut.
	CutAllowanceMM = 2
	// WasteFloorMM is the shortest offcut that can still be used.
	WasteFloorMM = 15
)

var materialOrder = []MaterialType{MaterialBUR, MaterialNBR, MaterialBT, MaterialBOOM, MaterialVT}

var unitPrefixes = map[MaterialType]string{
	MaterialBUR:  "B",
	MaterialNBR:  "N",
	MaterialBT:   "T",
	MaterialVT:   "V",
	MaterialBOOM: "M",
}

// ParseMaterialType normalises s into a known MaterialType.
func ParseMaterialType(s string) (MaterialType, error) {
	t := MaterialType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := unitPrefixes[t]; !ok {
		return "", &shared.ValidationError{Err: shared.ErrValidation, Field: "material_type", Details: s, Key: shared.MsgUnsupportedMaterialType}
	}
	return t, nil
}

// Prefix returns the one-letter unit code prefix.
func (t MaterialType) Prefix() string {
	return unitPrefixes[t]
}

// Rank orders material types for listings.
func (t MaterialType) Rank() int {
	for i, candidate := range materialOrder {
		if candidate == t {
			return i
		}
	}
	return len(materialOrder)
}

// RawMaterial is a tube of rubber cut into seals. Height is the remaining length in mm.
type RawMaterial struct {
	ID            string       `json:"id"`
	MaterialType  MaterialType `json:"material_type"`
	InnerDiameter float64      `json:"inner_diameter"`
	OuterDiameter float64      `json:"outer_diameter"`
	Height        float64      `json:"height"`
	PiecesCount   int          `json:"pieces_count"`
	UnitCode      string       `json:"unit_code"`
	CostPerMM     float64      `json:"cost_per_mm"`
	CreatedAt     time.Time    `json:"created_at"`
}

// PerSeal returns the length consumed by one seal of the given height.
func PerSeal(sealHeight float64) float64 {
	return sealHeight + CutAllowanceMM
}

// CreateInput captures a new raw-material batch.
type CreateInput struct {
	MaterialType  string  `json:"material_type" validate:"required"`
	InnerDiameter float64 `json:"inner_diameter" validate:"gt=0"`
	OuterDiameter float64 `json:"outer_diameter" validate:"gtfield=InnerDiameter"`
	Height        float64 `json:"height" validate:"gt=0"`
	PiecesCount   int     `json:"pieces_count" validate:"gte=0"`
	CostPerMM     float64 `json:"cost_per_mm" validate:"gte=0"`
}

// UpdateInput edits mutable fields of a raw material.
type UpdateInput struct {
	Height      *float64 `json:"height" validate:"omitempty,gte=0"`
	PiecesCount *int     `json:"pieces_count" validate:"omitempty,gte=0"`
	CostPerMM   *float64 `json:"cost_per_mm" validate:"omitempty,gte=0"`
}

// Ref identifies a raw material from an invoice item. ID wins when present,
// otherwise the unit code is matched, together with the dimensions when given.
type Ref struct {
	ID            string       `json:"id,omitempty"`
	UnitCode      string       `json:"unit_code"`
	MaterialType  MaterialType `json:"material_type,omitempty"`
	InnerDiameter float64      `json:"inner_diameter,omitempty"`
	OuterDiameter float64      `json:"outer_diameter,omitempty"`
}

// HasDimensions reports whether the reference pins a dimension tuple.
func (r Ref) HasDimensions() bool {
	return r.MaterialType != "" && r.InnerDiameter > 0 && r.OuterDiameter > 0
}

func (r Ref) label() string {
	if r.UnitCode != "" {
		return r.UnitCode
	}
	return r.ID
}

// Selection assigns a number of seals to one material.
type Selection struct {
	Ref
	SealCount int `json:"seal_count"`
}

// Request describes what a manufactured line item needs cut.
// Selected, Details and UnitCode are tried in that order; the first present wins.
type Request struct {
	SealHeight float64
	Quantity   int
	Selected   []Selection
	Details    *Ref
	UnitCode   string
}

// Consumption records length taken from one material.
type Consumption struct {
	MaterialID string  `json:"material_id"`
	UnitCode   string  `json:"unit_code"`
	Seals      int     `json:"seals"`
	ConsumedMM float64 `json:"consumed_mm"`
}

// Outcome is the machine-readable result of an allocation.
type Outcome struct {
	RequestedSeals int           `json:"requested_seals"`
	AllocatedSeals int           `json:"allocated_seals"`
	ConsumedMM     float64       `json:"consumed_mm"`
	ShortfallSeals int           `json:"shortfall_seals"`
	Consumptions   []Consumption `json:"consumptions"`
	Warnings       []string      `json:"warnings"`
}
