package materials_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/materials/materialstest"
)

func nbr(id, code string, height float64) materials.RawMaterial {
	return materials.RawMaterial{ID: id, MaterialType: materials.MaterialNBR, InnerDiameter: 20, OuterDiameter: 40, Height: height, UnitCode: code}
}

func TestMaxSealsWasteRule(t *testing.T) {
	require.Equal(t, 9, materials.MaxSeals(102, 8))
	require.Equal(t, 10, materials.MaxSeals(100, 8))
	require.Equal(t, 10, materials.MaxSeals(115, 8))
	require.Equal(t, 0, materials.MaxSeals(5, 8))
	require.Equal(t, 0, materials.MaxSeals(0, 8))
}

func TestAllocateDetailsLeavesUsableOffcut(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "N1", 102))
	alloc := materials.NewAllocator(repo, nil)

	out, err := alloc.Allocate(context.Background(), materials.Request{
		SealHeight: 8,
		Quantity:   10,
		Details:    &materials.Ref{UnitCode: "N1", MaterialType: materials.MaterialNBR, InnerDiameter: 20, OuterDiameter: 40},
	})
	require.NoError(t, err)
	require.Equal(t, 9, out.AllocatedSeals)
	require.Equal(t, 1, out.ShortfallSeals)
	require.InDelta(t, 90, out.ConsumedMM, 1e-9)
	require.InDelta(t, 12, repo.Height("m1"), 1e-9)
	require.Len(t, out.Consumptions, 1)
	require.NotEmpty(t, out.Warnings)
}

func TestAllocateDetailsPartialFulfillment(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "N1", 20))
	alloc := materials.NewAllocator(repo, nil)

	out, err := alloc.Allocate(context.Background(), materials.Request{SealHeight: 8, Quantity: 100, Details: &materials.Ref{ID: "m1"}})
	require.NoError(t, err)
	require.Equal(t, 2, out.AllocatedSeals)
	require.Equal(t, 98, out.ShortfallSeals)
	require.InDelta(t, 0, repo.Height("m1"), 1e-9)
}

func TestAllocateSelectedSkipsShortMaterial(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "N1", 50), nbr("m2", "N2", 15))
	alloc := materials.NewAllocator(repo, nil)

	out, err := alloc.Allocate(context.Background(), materials.Request{
		SealHeight: 3,
		Quantity:   12,
		Selected: []materials.Selection{
			{Ref: materials.Ref{UnitCode: "N1"}, SealCount: 8},
			{Ref: materials.Ref{UnitCode: "N2"}, SealCount: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 8, out.AllocatedSeals)
	require.Equal(t, 4, out.ShortfallSeals)
	require.InDelta(t, 10, repo.Height("m1"), 1e-9)
	require.InDelta(t, 15, repo.Height("m2"), 1e-9)
	require.Len(t, out.Warnings, 1)
}

func TestAllocateSelectedWinsOverOtherDescriptors(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "N1", 100), nbr("m2", "N2", 100))
	alloc := materials.NewAllocator(repo, nil)

	out, err := alloc.Allocate(context.Background(), materials.Request{
		SealHeight: 8,
		Quantity:   2,
		Selected:   []materials.Selection{{Ref: materials.Ref{UnitCode: "N1"}, SealCount: 2}},
		Details:    &materials.Ref{UnitCode: "N2"},
		UnitCode:   "N2",
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.AllocatedSeals)
	require.InDelta(t, 80, repo.Height("m1"), 1e-9)
	require.InDelta(t, 100, repo.Height("m2"), 1e-9)
}

func TestAllocateUnitCodeRequiresFullLength(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "V3", 30))
	alloc := materials.NewAllocator(repo, nil)

	out, err := alloc.Allocate(context.Background(), materials.Request{SealHeight: 8, Quantity: 4, UnitCode: "V3"})
	require.NoError(t, err)
	require.Zero(t, out.AllocatedSeals)
	require.InDelta(t, 30, repo.Height("m1"), 1e-9)

	out, err = alloc.Allocate(context.Background(), materials.Request{SealHeight: 8, Quantity: 3, UnitCode: "V3"})
	require.NoError(t, err)
	require.Equal(t, 3, out.AllocatedSeals)
	require.InDelta(t, 0, repo.Height("m1"), 1e-9)
}

func TestAllocateMissingMaterialWarns(t *testing.T) {
	alloc := materials.NewAllocator(materialstest.NewStore(), nil)
	out, err := alloc.Allocate(context.Background(), materials.Request{SealHeight: 8, Quantity: 1, UnitCode: "N9"})
	require.NoError(t, err)
	require.Equal(t, 1, out.ShortfallSeals)
	require.Equal(t, []string{"material N9 not found"}, out.Warnings)
}

func TestRestoreRoundTrip(t *testing.T) {
	repo := materialstest.NewStore(nbr("m1", "N1", 1000))
	alloc := materials.NewAllocator(repo, nil)
	ctx := context.Background()

	out, err := alloc.Allocate(ctx, materials.Request{SealHeight: 8, Quantity: 4, Details: &materials.Ref{ID: "m1"}})
	require.NoError(t, err)
	require.InDelta(t, 960, repo.Height("m1"), 1e-9)

	restored, err := alloc.Restore(ctx, out.Consumptions)
	require.NoError(t, err)
	require.InDelta(t, 40, restored, 1e-9)
	require.InDelta(t, 1000, repo.Height("m1"), 1e-9)
}

func TestRestoreSkipsDeletedMaterial(t *testing.T) {
	alloc := materials.NewAllocator(materialstest.NewStore(), nil)
	restored, err := alloc.Restore(context.Background(), []materials.Consumption{{MaterialID: "gone", ConsumedMM: 10}})
	require.NoError(t, err)
	require.Zero(t, restored)
}

func TestLegacyConsumptions(t *testing.T) {
	got := materials.LegacyConsumptions(materials.Request{SealHeight: 8, Quantity: 3, Details: &materials.Ref{UnitCode: "N1"}})
	require.Equal(t, []materials.Consumption{{UnitCode: "N1", Seals: 3, ConsumedMM: 30}}, got)

	got = materials.LegacyConsumptions(materials.Request{SealHeight: 3, Quantity: 5, Selected: []materials.Selection{{Ref: materials.Ref{UnitCode: "N1"}, SealCount: 2}, {Ref: materials.Ref{UnitCode: "N2"}, SealCount: 3}}})
	require.Len(t, got, 2)
	require.InDelta(t, 15, got[1].ConsumedMM, 1e-9)
	require.Nil(t, materials.LegacyConsumptions(materials.Request{SealHeight: 3, Quantity: 5}))
}
