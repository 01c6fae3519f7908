package invoices_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/catalog/catalogtest"
	"github.com/sealworks/seal-erp/internal/invoices"
	"github.com/sealworks/seal-erp/internal/invoices/invoicestest"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/materials/materialstest"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/suppliers/supplierstest"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/treasury/treasurytest"
	"github.com/sealworks/seal-erp/internal/workorders"
)

type stubOrders struct {
	enrolled []workorders.OrderInvoice
	detached []string
}

func (s *stubOrders) EnrollDaily(ctx context.Context, entry workorders.OrderInvoice) (workorders.WorkOrder, error) {
	s.enrolled = append(s.enrolled, entry)
	return workorders.WorkOrder{}, nil
}

func (s *stubOrders) Detach(ctx context.Context, invoiceID string) (int, error) {
	s.detached = append(s.detached, invoiceID)
	return 1, nil
}

type shortfalls struct{ seals int }

func (s *shortfalls) ObserveAllocationShortfall(n int) { s.seals += n }

type fixture struct {
	svc       *invoices.Service
	repo      *invoicestest.Repository
	stock     *materialstest.Store
	ledger    *treasury.Service
	ledgerLog *treasurytest.Repository
	orders    *stubOrders
	observer  *shortfalls
}

func newFixture(t *testing.T, stock ...materials.RawMaterial) *fixture {
	t.Helper()
	f := &fixture{
		repo:      invoicestest.NewRepository(),
		stock:     materialstest.NewStore(stock...),
		ledgerLog: treasurytest.NewRepository(),
		orders:    &stubOrders{},
		observer:  &shortfalls{},
	}
	sources := &treasurytest.Sources{DeferredFunc: f.repo.DeferredTotal}
	f.ledger = treasury.NewService(f.ledgerLog, sources, treasurytest.NewIdempotency(), treasury.Options{})
	f.svc = invoices.NewService(f.repo, materials.NewAllocator(f.stock, nil), f.ledger, invoices.Options{
		WorkOrders: f.orders,
		Observer:   f.observer,
	})
	return f
}

func seal(total float64, qty int, height float64, ref *materials.Ref) invoices.Item {
	return invoices.Item{
		ProductType: invoices.ProductManufactured,
		Quantity:    qty,
		UnitPrice:   total / float64(qty),
		TotalPrice:  total,
		Manufactured: &invoices.Manufactured{
			SealType:        "TC",
			MaterialType:    "NBR",
			InnerDiameter:   20,
			OuterDiameter:   40,
			Height:          height,
			MaterialDetails: ref,
		},
	}
}

func nbr(id, code string, height float64) materials.RawMaterial {
	return materials.RawMaterial{ID: id, MaterialType: materials.MaterialNBR, InnerDiameter: 20, OuterDiameter: 40, Height: height, UnitCode: code}
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	for i, want := range []string{"INV-000001", "INV-000002", "INV-000003"} {
		inv, err := f.svc.Create(context.Background(), invoices.CreateInput{
			CustomerName:  "عميل",
			PaymentMethod: string(treasury.MethodCash),
			Items:         []invoices.Item{seal(10, 1, 5, nil)},
		})
		require.NoError(t, err, "invoice %d", i)
		require.Equal(t, want, inv.InvoiceNumber)
		require.Equal(t, invoices.StatusPending, inv.Status)
	}
}

func TestPercentageDiscount(t *testing.T) {
	f := newFixture(t)
	inv, err := f.svc.Create(context.Background(), invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		DiscountType:  "percentage",
		DiscountValue: 10,
		Items:         []invoices.Item{seal(100, 1, 5, nil), seal(150, 3, 5, nil)},
	})
	require.NoError(t, err)
	require.InDelta(t, 250, inv.Subtotal, 1e-9)
	require.InDelta(t, 25, inv.Discount, 1e-9)
	require.InDelta(t, 225, inv.TotalAfterDiscount, 1e-9)
	require.InDelta(t, 225, inv.TotalAmount, 1e-9)
}

func TestUnsupportedDiscountType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		DiscountType:  "coupon",
		Items:         []invoices.Item{seal(100, 1, 5, nil)},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, shared.MsgUnsupportedDiscountType, shared.MessageKeyFor(err))
}

func TestRemainingAmountFollowsPaymentMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deferred, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodDeferred),
		Items:         []invoices.Item{seal(300, 1, 5, nil)},
	})
	require.NoError(t, err)
	require.InDelta(t, 300, deferred.RemainingAmount, 1e-9)
	require.Empty(t, f.ledgerLog.All())

	cash, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodVodafoneWael),
		Items:         []invoices.Item{seal(300, 1, 5, nil)},
	})
	require.NoError(t, err)
	require.Zero(t, cash.RemainingAmount)

	posted := f.ledgerLog.ByReference("invoice_" + cash.ID)
	require.Len(t, posted, 1)
	require.Equal(t, treasury.AccountVodafoneWael, posted[0].AccountID)
	require.Equal(t, treasury.TypeIncome, posted[0].TransactionType)

	balances, err := f.ledger.Balances(ctx)
	require.NoError(t, err)
	require.InDelta(t, 300, balances[treasury.AccountDeferred], 1e-9)
	require.InDelta(t, 300, balances[treasury.AccountVodafoneWael], 1e-9)
}

func TestIncomePostingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(80, 1, 5, nil)},
	})
	require.NoError(t, err)

	key := "invoice_" + inv.ID
	_, posted, err := f.ledger.Post(ctx, treasury.PostInput{
		AccountID:      treasury.AccountCash,
		Type:           treasury.TypeIncome,
		Amount:         inv.TotalAmount,
		Reference:      key,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
	require.False(t, posted)
	require.Len(t, f.ledgerLog.ByReference(key), 1)
}

func TestPartialAllocationStillCreatesInvoice(t *testing.T) {
	f := newFixture(t, nbr("m1", "N1", 20))
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(1000, 100, 8, &materials.Ref{UnitCode: "N1"})},
	})
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	alloc := stored.Items[0].Allocation
	require.NotNil(t, alloc)
	require.Equal(t, 2, alloc.AllocatedSeals)
	require.Equal(t, 98, alloc.ShortfallSeals)
	require.InDelta(t, 20, alloc.ConsumedMM, 1e-9)
	require.Equal(t, 98, f.observer.seals)
	require.Len(t, f.orders.enrolled, 1)
	require.InDelta(t, 1000, f.orders.enrolled[0].Items[0].MaterialConsumptionMM, 1e-9)
}

func TestCancelRestoresMaterialAndReversesTreasury(t *testing.T) {
	f := newFixture(t, nbr("m1", "N1", 1000))
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(120, 4, 8, &materials.Ref{UnitCode: "N1"})},
	})
	require.NoError(t, err)
	require.InDelta(t, 960, f.stock.Height("m1"), 1e-9)

	result, err := f.svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.InvoiceNumber, result.InvoiceNumber)
	require.True(t, result.MaterialsRestored)
	require.True(t, result.TreasuryReversed)
	require.InDelta(t, 1000, f.stock.Height("m1"), 1e-9)

	reversal := f.ledgerLog.ByReference("invoice_cancel_" + inv.ID)
	require.Len(t, reversal, 1)
	require.Equal(t, treasury.TypeExpense, reversal[0].TransactionType)
	require.InDelta(t, 120, reversal[0].Amount, 1e-9)

	balances, err := f.ledger.Balances(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0, balances[treasury.AccountCash], 1e-9)

	_, err = f.svc.Get(ctx, inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Equal(t, []string{inv.ID}, f.orders.detached)

	_, err = f.svc.Cancel(ctx, inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCancelDeferredSkipsTreasury(t *testing.T) {
	f := newFixture(t, nbr("m1", "N1", 500))
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodDeferred),
		Items:         []invoices.Item{seal(50, 5, 8, &materials.Ref{UnitCode: "N1"})},
	})
	require.NoError(t, err)

	result, err := f.svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, result.TreasuryReversed)
	require.Empty(t, f.ledgerLog.All())
	require.InDelta(t, 500, f.stock.Height("m1"), 1e-9)
}

func TestCancelLegacyInvoiceUsesQuantityRule(t *testing.T) {
	f := newFixture(t, nbr("m1", "N1", 900))
	ctx := context.Background()
	legacy := invoices.Invoice{
		ID:            "legacy",
		InvoiceNumber: "INV-000042",
		PaymentMethod: treasury.MethodDeferred,
		Items:         []invoices.Item{seal(10, 10, 8, &materials.Ref{ID: "m1", UnitCode: "N1"})},
	}
	require.NoError(t, f.repo.Insert(ctx, legacy))

	result, err := f.svc.Cancel(ctx, "legacy")
	require.NoError(t, err)
	require.InDelta(t, 100, result.RestoredMM, 1e-9)
	require.InDelta(t, 1000, f.stock.Height("m1"), 1e-9)
}

func TestChangePaymentMethodBetweenAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(200, 2, 5, nil)},
	})
	require.NoError(t, err)
	before, err := f.ledger.Balances(ctx)
	require.NoError(t, err)

	change, err := f.svc.ChangePaymentMethod(ctx, inv.ID, string(treasury.MethodVodafoneElsawy), "mona")
	require.NoError(t, err)
	require.Equal(t, shared.MsgPaymentMethodChanged, change.MessageKey)
	require.Len(t, change.TransactionsCreated, 2)
	require.Equal(t, treasury.TypeExpense, change.TransactionsCreated[0].TransactionType)
	require.Equal(t, treasury.AccountCash, change.TransactionsCreated[0].AccountID)
	require.Equal(t, treasury.TypeIncome, change.TransactionsCreated[1].TransactionType)
	require.Equal(t, treasury.AccountVodafoneElsawy, change.TransactionsCreated[1].AccountID)

	after, err := f.ledger.Balances(ctx)
	require.NoError(t, err)
	require.InDelta(t, before[treasury.AccountCash]-200, after[treasury.AccountCash], 1e-9)
	require.InDelta(t, before[treasury.AccountVodafoneElsawy]+200, after[treasury.AccountVodafoneElsawy], 1e-9)

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, treasury.MethodVodafoneElsawy, stored.PaymentMethod)
}

func TestChangePaymentMethodToAndFromDeferred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodDeferred),
		Items:         []invoices.Item{seal(90, 1, 5, nil)},
	})
	require.NoError(t, err)

	change, err := f.svc.ChangePaymentMethod(ctx, inv.ID, string(treasury.MethodInstapay), "")
	require.NoError(t, err)
	require.Len(t, change.TransactionsCreated, 1)
	require.Equal(t, treasury.TypeIncome, change.TransactionsCreated[0].TransactionType)
	require.Zero(t, change.RemainingAmount)

	balances, err := f.ledger.Balances(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0, balances[treasury.AccountDeferred], 1e-9)
	require.InDelta(t, 90, balances[treasury.AccountInstapay], 1e-9)

	change, err = f.svc.ChangePaymentMethod(ctx, inv.ID, string(treasury.MethodDeferred), "")
	require.NoError(t, err)
	require.Len(t, change.TransactionsCreated, 1)
	require.Equal(t, treasury.TypeExpense, change.TransactionsCreated[0].TransactionType)
	require.InDelta(t, 90, change.RemainingAmount, 1e-9)

	change, err = f.svc.ChangePaymentMethod(ctx, inv.ID, string(treasury.MethodDeferred), "")
	require.NoError(t, err)
	require.Equal(t, shared.MsgPaymentMethodUnchanged, change.MessageKey)
	require.Empty(t, change.TransactionsCreated)
}

func TestChangePaymentMethodRejectsUnknownMethod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{seal(50, 1, 5, nil)},
	})
	require.NoError(t, err)
	postings := len(f.ledgerLog.All())

	_, err = f.svc.ChangePaymentMethod(ctx, inv.ID, "paypal", "")
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Len(t, f.ledgerLog.All(), postings)
}

func TestRecordPaymentOnDeferredInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodDeferred),
		Items:         []invoices.Item{seal(300, 3, 5, nil)},
	})
	require.NoError(t, err)

	p, err := f.svc.RecordPayment(ctx, invoices.PaymentInput{InvoiceID: inv.ID, Amount: 100, PaymentMethod: string(treasury.MethodCash)})
	require.NoError(t, err)

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPartial, stored.Status)
	require.InDelta(t, 200, stored.RemainingAmount, 1e-9)

	require.Len(t, f.ledgerLog.ByReference("payment_"+p.ID), 1)
	settle := f.ledgerLog.ByReference("payment_" + p.ID + "_deferred")
	require.Len(t, settle, 1)
	require.Equal(t, treasury.AccountDeferred, settle[0].AccountID)
	require.Equal(t, treasury.TypeExpense, settle[0].TransactionType)

	balances, err := f.ledger.Balances(ctx)
	require.NoError(t, err)
	require.InDelta(t, 200, balances[treasury.AccountDeferred], 1e-9)
	require.InDelta(t, 100, balances[treasury.AccountCash], 1e-9)

	_, err = f.svc.RecordPayment(ctx, invoices.PaymentInput{InvoiceID: inv.ID, Amount: 250, PaymentMethod: string(treasury.MethodCash)})
	require.NoError(t, err)
	stored, err = f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, invoices.StatusPaid, stored.Status)
	require.Zero(t, stored.RemainingAmount)

	payments, err := f.svc.Payments(ctx, inv.ID, 0)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestRecordPaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordPayment(ctx, invoices.PaymentInput{InvoiceID: "x", Amount: 0, PaymentMethod: string(treasury.MethodCash)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.RecordPayment(ctx, invoices.PaymentInput{InvoiceID: "missing", Amount: 10, PaymentMethod: string(treasury.MethodCash)})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, f.ledgerLog.All())
}

func TestLocalItemBooksSaleAndSupplierPurchase(t *testing.T) {
	f := newFixture(t)
	products := catalogtest.NewRepository()
	products.AddLocal(catalog.LocalProduct{ID: "l1", Name: "طقم", SupplierID: "s1", SupplierName: "الأمل", CurrentStock: 10})
	supplierRepo := supplierstest.NewRepository(suppliers.Supplier{ID: "s1", Name: "الأمل"})
	svc := invoices.NewService(f.repo, materials.NewAllocator(f.stock, nil), f.ledger, invoices.Options{
		LocalStock: catalog.NewService(products),
		Suppliers:  suppliers.NewService(supplierRepo, nil, nil),
	})
	ctx := context.Background()

	withDetails := invoices.Item{
		ProductType: invoices.ProductLocal, Quantity: 4, UnitPrice: 25, TotalPrice: 100,
		Local: &invoices.Local{ProductName: "طقم", LocalProductDetails: &invoices.LocalDetails{Name: "طقم", Supplier: "الأمل", PurchasePrice: 15}},
	}
	withoutDetails := invoices.Item{
		ProductType: invoices.ProductLocal, Quantity: 2, UnitPrice: 25, TotalPrice: 50,
		Local: &invoices.Local{ProductName: "طقم"},
	}
	inv, err := svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{withDetails, withoutDetails},
	})
	require.NoError(t, err)
	require.InDelta(t, 150, inv.TotalAmount, 1e-9)

	p, err := products.GetLocal(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, 4, p.TotalSold)
	require.Equal(t, 6, p.CurrentStock)

	s, err := supplierRepo.Get(ctx, "s1")
	require.NoError(t, err)
	require.InDelta(t, 60, s.Balance, 1e-9)
	txs := supplierRepo.Transactions()
	require.Len(t, txs, 1)
	require.Equal(t, inv.ID, txs[0].ReferenceInvoiceID)
}

func TestCreateRejectsBadItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: string(treasury.MethodCash),
		Items:         []invoices.Item{{ProductType: "service", Quantity: 1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Create(ctx, invoices.CreateInput{
		PaymentMethod: "credit card",
		Items:         []invoices.Item{seal(10, 1, 5, nil)},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, f.ledgerLog.All())
}
