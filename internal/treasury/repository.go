package treasury

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
)

const insertSQL = `INSERT INTO treasury_transactions (id, account_id, transaction_type, amount, description, reference, related_transaction_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// PGRepository persists ledger entries in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func insert(ctx context.Context, q db.DBTX, t Transaction) error {
	_, err := q.Exec(ctx, insertSQL, t.ID, string(t.AccountID), string(t.TransactionType), t.Amount, t.Description, t.Reference, t.RelatedTransactionID, t.CreatedAt)
	return err
}

// Insert appends one entry.
func (r *PGRepository) Insert(ctx context.Context, t Transaction) error {
	return insert(ctx, r.pool, t)
}

// InsertPair appends both transfer legs atomically.
func (r *PGRepository) InsertPair(ctx context.Context, out, in Transaction) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insert(ctx, tx, out); err != nil {
			return err
		}
		return insert(ctx, tx, in)
	})
}

// List returns entries newest first.
func (r *PGRepository) List(ctx context.Context, account AccountID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT id, account_id, transaction_type, amount, description, reference, related_transaction_id, created_at FROM treasury_transactions`
	args := []any{}
	if account != "" {
		args = append(args, string(account))
		query += ` WHERE account_id = $1`
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		var account, typ string
		if err := rows.Scan(&t.ID, &account, &typ, &t.Amount, &t.Description, &t.Reference, &t.RelatedTransactionID, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.AccountID = AccountID(account)
		t.TransactionType = TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Totals sums amounts per account and type.
func (r *PGRepository) Totals(ctx context.Context) ([]TypeTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT account_id, transaction_type, COALESCE(SUM(amount), 0) FROM treasury_transactions GROUP BY account_id, transaction_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TypeTotal
	for rows.Next() {
		var t TypeTotal
		var account, typ string
		if err := rows.Scan(&account, &typ, &t.Amount); err != nil {
			return nil, err
		}
		t.AccountID = AccountID(account)
		t.TransactionType = TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteAll truncates the ledger.
func (r *PGRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM treasury_transactions`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PGSources reads the invoice and expense totals used by Balances.
type PGSources struct {
	pool *pgxpool.Pool
}

// NewSources constructs PGSources.
func NewSources(pool *pgxpool.Pool) *PGSources {
	return &PGSources{pool: pool}
}

// DeferredInvoicesTotal sums invoices whose current method is deferred.
func (s *PGSources) DeferredInvoicesTotal(ctx context.Context) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM invoices WHERE payment_method = $1`, string(MethodDeferred)).Scan(&total)
	return total, err
}

// ExpensesTotal sums every recorded expense.
func (s *PGSources) ExpensesTotal(ctx context.Context) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses`).Scan(&total)
	return total, err
}
