package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
)

const supplierColumns = `id, name, phone, address, total_owed, total_paid, balance, created_at`

const transactionColumns = `id, supplier_id, supplier_name, type, amount, description, product_name, quantity, unit_price,
payment_method, reference_invoice_id, created_at`

// PGRepository persists suppliers in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func one(rows pgx.Rows, err error) (Supplier, error) {
	if err != nil {
		return Supplier{}, err
	}
	s, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Supplier])
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, ErrNotFound
	}
	return s, err
}

func (r *PGRepository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE name ILIKE $1 ORDER BY name LIMIT $2 OFFSET $3`,
		filters.Pattern(), filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Supplier])
}

func (r *PGRepository) Get(ctx context.Context, id string) (Supplier, error) {
	return one(r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
}

func (r *PGRepository) FindByName(ctx context.Context, name string) (Supplier, error) {
	return one(r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE name = $1 ORDER BY created_at LIMIT 1`, name))
}

func (r *PGRepository) Insert(ctx context.Context, s Supplier) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO suppliers (`+supplierColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Name, s.Phone, s.Address, s.TotalOwed, s.TotalPaid, s.Balance, s.CreatedAt)
	return err
}

func (r *PGRepository) Update(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name = $2, phone = $3, address = $4 WHERE id = $1`, s.ID, s.Name, s.Phone, s.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Apply inserts t and shifts the supplier totals atomically.
func (r *PGRepository) Apply(ctx context.Context, t Transaction) (Supplier, error) {
	owed, paid := t.delta()
	var out Supplier
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := one(tx.Query(ctx, `UPDATE suppliers SET total_owed = total_owed + $2, total_paid = total_paid + $3,
balance = balance + $2 - $3 WHERE id = $1 RETURNING `+supplierColumns, t.SupplierID, owed, paid))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO supplier_transactions (`+transactionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			t.ID, t.SupplierID, t.SupplierName, string(t.Type), t.Amount, t.Description, t.ProductName, t.Quantity, t.UnitPrice,
			t.PaymentMethod, t.ReferenceInvoiceID, t.CreatedAt); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func (r *PGRepository) ListTransactions(ctx context.Context, supplierID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+` FROM supplier_transactions WHERE supplier_id = $1
ORDER BY created_at DESC LIMIT $2`, supplierID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Transaction])
}
