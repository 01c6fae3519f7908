package treasury_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sealworks/seal-erp/internal/platform/cache"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/treasury"
	"github.com/sealworks/seal-erp/internal/treasury/treasurytest"
)

type countingObserver struct {
	calls map[string]int
}

func (o *countingObserver) ObserveTreasuryPosting(account, txType string) {
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[account+":"+txType]++
}

func newService(t *testing.T, sources treasury.BalanceSources) (*treasury.Service, *treasurytest.Repository) {
	t.Helper()
	repo := treasurytest.NewRepository()
	return treasury.NewService(repo, sources, treasurytest.NewIdempotency(), treasury.Options{}), repo
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := treasury.ParsePaymentMethod("نقدي")
	require.NoError(t, err)
	require.Equal(t, treasury.AccountCash, m.Account())

	m, err = treasury.ParsePaymentMethod("instapay")
	require.NoError(t, err)
	require.Equal(t, treasury.MethodInstapay, m)

	m, err = treasury.ParsePaymentMethod("آجل")
	require.NoError(t, err)
	require.True(t, m.IsDeferred())

	_, err = treasury.ParsePaymentMethod("bitcoin")
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, shared.MsgUnsupportedPaymentMethod, shared.MessageKeyFor(err))
}

func TestEveryAccountHasAMethod(t *testing.T) {
	for _, a := range treasury.Accounts {
		m, err := treasury.ParsePaymentMethod(string(a))
		require.NoError(t, err)
		require.Equal(t, a, m.Account())
	}
}

func TestPostIdempotent(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()
	input := treasury.PostInput{
		AccountID:      treasury.AccountCash,
		Type:           treasury.TypeIncome,
		Amount:         225,
		Reference:      "invoice_abc",
		IdempotencyKey: "invoice_abc",
	}

	_, posted, err := svc.Post(ctx, input)
	require.NoError(t, err)
	require.True(t, posted)
	_, posted, err = svc.Post(ctx, input)
	require.NoError(t, err)
	require.False(t, posted)

	require.Len(t, repo.ByReference("invoice_abc"), 1)
}

func TestPostReleasesKeyOnFailure(t *testing.T) {
	repo := treasurytest.NewRepository()
	idem := treasurytest.NewIdempotency()
	svc := treasury.NewService(repo, nil, idem, treasury.Options{})
	ctx := context.Background()

	repo.FailInsert = errors.New("disk full")
	input := treasury.PostInput{AccountID: treasury.AccountCash, Type: treasury.TypeIncome, Amount: 10, IdempotencyKey: "k1"}
	_, _, err := svc.Post(ctx, input)
	require.Error(t, err)
	require.False(t, idem.Has("k1"))

	_, posted, err := svc.Post(ctx, input)
	require.NoError(t, err)
	require.True(t, posted)
}

func TestPostValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, _, err := svc.Post(ctx, treasury.PostInput{AccountID: treasury.AccountCash, Type: treasury.TypeIncome, Amount: 0})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, _, err = svc.Post(ctx, treasury.PostInput{AccountID: "safe", Type: treasury.TypeIncome, Amount: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, _, err = svc.Post(ctx, treasury.PostInput{AccountID: treasury.AccountCash, Type: "refund", Amount: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBalancesDualSource(t *testing.T) {
	sources := &treasurytest.Sources{Deferred: 300, Expenses: 40}
	svc, _ := newService(t, sources)
	ctx := context.Background()

	post := func(account treasury.AccountID, typ treasury.TransactionType, amount float64) {
		_, _, err := svc.Post(ctx, treasury.PostInput{AccountID: account, Type: typ, Amount: amount})
		require.NoError(t, err)
	}
	post(treasury.AccountCash, treasury.TypeIncome, 500)
	post(treasury.AccountCash, treasury.TypeExpense, 60)
	post(treasury.AccountDeferred, treasury.TypeExpense, 100)
	post(treasury.AccountInstapay, treasury.TypeIncome, 75.5)

	balances, err := svc.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, len(treasury.Accounts))
	require.InDelta(t, 400, balances[treasury.AccountCash], 1e-9)
	require.InDelta(t, 200, balances[treasury.AccountDeferred], 1e-9)
	require.InDelta(t, 75.5, balances[treasury.AccountInstapay], 1e-9)
	require.Zero(t, balances[treasury.AccountYadElsawy])
}

func TestTransferLinksLegs(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()

	result, err := svc.Transfer(ctx, treasury.TransferInput{FromAccount: "cash", ToAccount: "instapay", Amount: 120, Notes: "deposit"})
	require.NoError(t, err)
	require.Equal(t, result.In.ID, result.Out.RelatedTransactionID)
	require.Equal(t, result.Out.ID, result.In.RelatedTransactionID)
	require.Len(t, repo.All(), 2)

	cash, err := svc.Balance(ctx, treasury.AccountCash)
	require.NoError(t, err)
	require.InDelta(t, -120, cash, 1e-9)
	instapay, err := svc.Balance(ctx, treasury.AccountInstapay)
	require.NoError(t, err)
	require.InDelta(t, 120, instapay, 1e-9)

	_, err = svc.Transfer(ctx, treasury.TransferInput{FromAccount: "cash", ToAccount: "cash", Amount: 1})
	require.ErrorIs(t, err, treasury.ErrSameAccount)
	_, err = svc.Transfer(ctx, treasury.TransferInput{FromAccount: "cash", ToAccount: "bank", Amount: 1})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestBalancesCachedUntilPosting(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sources := &treasurytest.Sources{}
	calls := 0
	sources.DeferredFunc = func() float64 {
		calls++
		return 0
	}
	observer := &countingObserver{}
	repo := treasurytest.NewRepository()
	svc := treasury.NewService(repo, sources, treasurytest.NewIdempotency(), treasury.Options{
		Cache:    cache.NewVersioned(client, "treasury", time.Minute),
		Observer: observer,
	})
	ctx := context.Background()

	_, err := svc.Balances(ctx)
	require.NoError(t, err)
	_, err = svc.Balances(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	_, _, err = svc.Post(ctx, treasury.PostInput{AccountID: treasury.AccountCash, Type: treasury.TypeIncome, Amount: 10})
	require.NoError(t, err)
	balances, err := svc.Balances(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.InDelta(t, 10, balances[treasury.AccountCash], 1e-9)
	require.Equal(t, 1, observer.calls["cash:income"])
}

func TestReset(t *testing.T) {
	svc, repo := newService(t, nil)
	ctx := context.Background()
	_, _, err := svc.Post(ctx, treasury.PostInput{AccountID: treasury.AccountCash, Type: treasury.TypeIncome, Amount: 10})
	require.NoError(t, err)

	n, err := svc.Reset(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Empty(t, repo.All())
}
