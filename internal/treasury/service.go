package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/sealworks/seal-erp/internal/platform/cache"
	"github.com/sealworks/seal-erp/internal/shared"
)

// Repository abstracts ledger persistence.
type Repository interface {
	Insert(ctx context.Context, t Transaction) error
	InsertPair(ctx context.Context, out, in Transaction) error
	List(ctx context.Context, account AccountID, limit int) ([]Transaction, error)
	Totals(ctx context.Context) ([]TypeTotal, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// BalanceSources supplies the non-ledger inputs of the balance computation.
type BalanceSources interface {
	DeferredInvoicesTotal(ctx context.Context) (float64, error)
	ExpensesTotal(ctx context.Context) (float64, error)
}

// IdempotencyPort reserves posting keys.
type IdempotencyPort interface {
	Reserve(ctx context.Context, key, module string) error
	Release(ctx context.Context, key string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Observer receives a callback for every posting.
type Observer interface {
	ObserveTreasuryPosting(account, txType string)
}

// Service is the treasury ledger.
type Service struct {
	repo     Repository
	sources  BalanceSources
	idem     IdempotencyPort
	cache    *cache.Versioned
	audit    AuditPort
	observer Observer
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// Options carries optional collaborators.
type Options struct {
	Cache    *cache.Versioned
	Audit    AuditPort
	Observer Observer
	Logger   *slog.Logger
}

// NewService builds the ledger.
func NewService(repo Repository, sources BalanceSources, idem IdempotencyPort, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		sources:  sources,
		idem:     idem,
		cache:    opts.Cache,
		audit:    opts.Audit,
		observer: opts.Observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Post appends one transaction. With an IdempotencyKey a repeated call is a no-op
// and reports posted=false.
func (s *Service) Post(ctx context.Context, input PostInput) (Transaction, bool, error) {
	if input.Amount <= 0 {
		return Transaction{}, false, ErrInvalidAmount
	}
	if input.Type.Sign() == 0 {
		return Transaction{}, false, &shared.ValidationError{Err: shared.ErrValidation, Field: "transaction_type", Details: string(input.Type), Key: shared.MsgUnsupportedTxType}
	}
	if _, err := ParseAccount(string(input.AccountID)); err != nil {
		return Transaction{}, false, err
	}
	reserved := false
	if input.IdempotencyKey != "" && s.idem != nil {
		err := s.idem.Reserve(ctx, input.IdempotencyKey, "treasury")
		if errors.Is(err, shared.ErrAlreadyProcessed) {
			s.logger.Info("treasury posting already applied", slog.String("key", input.IdempotencyKey))
			return Transaction{}, false, nil
		}
		if err != nil {
			return Transaction{}, false, err
		}
		reserved = true
	}
	t := Transaction{
		ID:              uuid.NewString(),
		AccountID:       input.AccountID,
		TransactionType: input.Type,
		Amount:          shared.Round2(input.Amount),
		Description:     input.Description,
		Reference:       input.Reference,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		if reserved {
			if rerr := s.idem.Release(ctx, input.IdempotencyKey); rerr != nil {
				s.logger.Error("release idempotency key", slog.String("key", input.IdempotencyKey), slog.Any("error", rerr))
			}
		}
		return Transaction{}, false, err
	}
	s.posted(ctx, t)
	return t, true, nil
}

// PostManual validates and posts a hand-entered income or expense.
func (s *Service) PostManual(ctx context.Context, input ManualPostInput) (Transaction, error) {
	account, err := ParseAccount(input.AccountID)
	if err != nil {
		return Transaction{}, err
	}
	t, _, err := s.Post(ctx, PostInput{
		AccountID:   account,
		Type:        TransactionType(input.TransactionType),
		Amount:      input.Amount,
		Description: input.Description,
		Reference:   "manual",
	})
	return t, err
}

// Transfer writes the transfer_out and transfer_in legs in one transaction, each
// pointing at the other through RelatedTransactionID.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	from, err := ParseAccount(input.FromAccount)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := ParseAccount(input.ToAccount)
	if err != nil {
		return TransferResult{}, err
	}
	if from == to {
		return TransferResult{}, ErrSameAccount
	}
	if input.Amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}
	now := s.now().UTC()
	amount := shared.Round2(input.Amount)
	out := Transaction{
		ID:              uuid.NewString(),
		AccountID:       from,
		TransactionType: TypeTransferOut,
		Amount:          amount,
		Description:     transferDescription("to", to, input.Notes),
		CreatedAt:       now,
	}
	in := Transaction{
		ID:              uuid.NewString(),
		AccountID:       to,
		TransactionType: TypeTransferIn,
		Amount:          amount,
		Description:     transferDescription("from", from, input.Notes),
		CreatedAt:       now,
	}
	out.RelatedTransactionID = in.ID
	in.RelatedTransactionID = out.ID
	out.Reference = "transfer_" + out.ID
	in.Reference = out.Reference
	if err := s.repo.InsertPair(ctx, out, in); err != nil {
		return TransferResult{}, err
	}
	s.posted(ctx, out)
	s.posted(ctx, in)
	return TransferResult{Out: out, In: in}, nil
}

func transferDescription(direction string, account AccountID, notes string) string {
	desc := fmt.Sprintf("transfer %s %s", direction, account)
	if notes != "" {
		desc += ": " + notes
	}
	return desc
}

// Transactions lists postings newest first, optionally for one account.
func (s *Service) Transactions(ctx context.Context, account string, limit int) ([]Transaction, error) {
	var id AccountID
	if account != "" {
		parsed, err := ParseAccount(account)
		if err != nil {
			return nil, err
		}
		id = parsed
	}
	return s.repo.List(ctx, id, limit)
}

// Balance returns one account balance.
func (s *Service) Balance(ctx context.Context, account AccountID) (float64, error) {
	balances, err := s.Balances(ctx)
	if err != nil {
		return 0, err
	}
	b, ok := balances[account]
	if !ok {
		return 0, shared.Invalid("account_id", "unknown account "+string(account))
	}
	return b, nil
}

// Balances returns every account balance. Deferred adds the total of invoices still
// on credit; cash subtracts all recorded expenses. Other accounts fold the ledger only.
func (s *Service) Balances(ctx context.Context) (map[AccountID]float64, error) {
	key, err := s.cache.BuildKey(ctx, "balances")
	if err != nil {
		s.logger.Warn("treasury cache unavailable", slog.Any("error", err))
		return s.computeBalances(ctx)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out map[AccountID]float64
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.computeBalances(ctx)
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return v.(map[AccountID]float64), nil
}

func (s *Service) computeBalances(ctx context.Context) (map[AccountID]float64, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, err
	}
	folded := Fold(totals)
	if s.sources != nil {
		deferred, err := s.sources.DeferredInvoicesTotal(ctx)
		if err != nil {
			return nil, err
		}
		expenses, err := s.sources.ExpensesTotal(ctx)
		if err != nil {
			return nil, err
		}
		folded[AccountDeferred] = folded[AccountDeferred].Add(decimal.NewFromFloat(deferred))
		folded[AccountCash] = folded[AccountCash].Sub(decimal.NewFromFloat(expenses))
	}
	out := make(map[AccountID]float64, len(folded))
	for account, amount := range folded {
		out[account] = amount.Round(2).InexactFloat64()
	}
	return out, nil
}

// Reset deletes the whole ledger.
func (s *Service) Reset(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Actor:  shared.ActorName(ctx, "system"),
			Action: "treasury:reset",
			Entity: "treasury_transactions",
			Meta:   map[string]any{"deleted": n},
			At:     s.now().UTC(),
		}); err != nil {
			s.logger.Warn("audit treasury reset", slog.Any("error", err))
		}
	}
	s.logger.Warn("treasury reset", slog.Int64("deleted", n), slog.String("actor", shared.ActorName(ctx, "system")))
	return n, nil
}

// Invalidate drops cached balances. Callers that change invoices or expenses use it.
func (s *Service) Invalidate(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) posted(ctx context.Context, t Transaction) {
	s.invalidate(ctx)
	if s.observer != nil {
		s.observer.ObserveTreasuryPosting(string(t.AccountID), string(t.TransactionType))
	}
	s.logger.Info("treasury posting",
		slog.String("account", string(t.AccountID)),
		slog.String("type", string(t.TransactionType)),
		slog.Float64("amount", t.Amount),
		slog.String("reference", t.Reference))
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("treasury cache bump", slog.Any("error", err))
	}
}
