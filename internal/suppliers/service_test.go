package suppliers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/suppliers/supplierstest"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/treasury/treasurytest"
)

func TestPurchaseRaisesBalance(t *testing.T) {
	repo := supplierstest.NewRepository(suppliers.Supplier{ID: "s1", Name: "الأمل"})
	svc := suppliers.NewService(repo, nil, nil)
	ctx := context.Background()

	tx, err := svc.RecordPurchase(ctx, suppliers.PurchaseInput{SupplierName: "الأمل", ProductName: "oring kit", Quantity: 3, UnitPrice: 12.5})
	require.NoError(t, err)
	require.Equal(t, suppliers.TypePurchase, tx.Type)
	require.InDelta(t, 37.5, tx.Amount, 1e-9)

	s, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.InDelta(t, 37.5, s.Balance, 1e-9)
	require.InDelta(t, 37.5, s.TotalOwed, 1e-9)
}

func TestPurchaseUnknownSupplier(t *testing.T) {
	svc := suppliers.NewService(supplierstest.NewRepository(), nil, nil)
	_, err := svc.RecordPurchase(context.Background(), suppliers.PurchaseInput{SupplierName: "nobody", Quantity: 1})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPaymentLowersBalanceAndPostsExpense(t *testing.T) {
	repo := supplierstest.NewRepository(suppliers.Supplier{ID: "s1", Name: "الأمل", TotalOwed: 100, Balance: 100})
	ledgerRepo := treasurytest.NewRepository()
	ledger := treasury.NewService(ledgerRepo, nil, treasurytest.NewIdempotency(), treasury.Options{})
	svc := suppliers.NewService(repo, ledger, nil)
	ctx := context.Background()

	tx, err := svc.RecordPayment(ctx, "s1", suppliers.PaymentInput{Amount: 40, PaymentMethod: string(treasury.MethodCash)})
	require.NoError(t, err)

	s, err := svc.Get(ctx, "s1")
	require.NoError(t, err)
	require.InDelta(t, 60, s.Balance, 1e-9)
	require.InDelta(t, 40, s.TotalPaid, 1e-9)

	posted := ledgerRepo.ByReference("supplier_payment_" + tx.ID)
	require.Len(t, posted, 1)
	require.Equal(t, treasury.AccountCash, posted[0].AccountID)
	require.Equal(t, treasury.TypeExpense, posted[0].TransactionType)

	txs, err := svc.Transactions(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestPaymentValidation(t *testing.T) {
	repo := supplierstest.NewRepository(suppliers.Supplier{ID: "s1", Name: "x"})
	svc := suppliers.NewService(repo, nil, nil)

	_, err := svc.RecordPayment(context.Background(), "s1", suppliers.PaymentInput{Amount: 0})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordPayment(context.Background(), "s1", suppliers.PaymentInput{Amount: 5, PaymentMethod: "cheque"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordPayment(context.Background(), "missing", suppliers.PaymentInput{Amount: 5})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
