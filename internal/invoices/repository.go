package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/treasury"
)

const invoiceColumns = `id, invoice_number, customer_id, customer_name, invoice_title, supervisor_name, items,
subtotal, discount, discount_type, discount_value, total_after_discount, total_amount, paid_amount,
remaining_amount, payment_method, status, notes, created_at`

// PGRepository persists invoices and payments in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (Invoice, error) {
	var (
		inv                          Invoice
		raw                          []byte
		discountType, method, status string
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceTitle, &inv.SupervisorName, &raw,
		&inv.Subtotal, &inv.Discount, &discountType, &inv.DiscountValue, &inv.TotalAfterDiscount, &inv.TotalAmount, &inv.PaidAmount,
		&inv.RemainingAmount, &method, &status, &inv.Notes, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, err
	}
	inv.DiscountType = DiscountType(discountType)
	inv.PaymentMethod = treasury.PaymentMethod(method)
	inv.Status = Status(status)
	inv.Items = []Item{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &inv.Items); err != nil {
			return Invoice{}, err
		}
	}
	return inv, nil
}

func collectInvoices(rows pgx.Rows) ([]Invoice, error) {
	defer rows.Close()
	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// NextNumber draws the next invoice sequence value.
func (r *PGRepository) NextNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n)
	return n, err
}

// Insert stores a new invoice.
func (r *PGRepository) Insert(ctx context.Context, inv Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		inv.ID, inv.InvoiceNumber, inv.CustomerID, inv.CustomerName, inv.InvoiceTitle, inv.SupervisorName, items,
		inv.Subtotal, inv.Discount, string(inv.DiscountType), inv.DiscountValue, inv.TotalAfterDiscount, inv.TotalAmount, inv.PaidAmount,
		inv.RemainingAmount, string(inv.PaymentMethod), string(inv.Status), inv.Notes, inv.CreatedAt)
	return err
}

// Get loads one invoice.
func (r *PGRepository) Get(ctx context.Context, id string) (Invoice, error) {
	return scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
}

// GetMany loads the invoices among ids that exist.
func (r *PGRepository) GetMany(ctx context.Context, ids []string) ([]Invoice, error) {
	if len(ids) == 0 {
		return []Invoice{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

// List returns invoices newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, "customer_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, max(filter.Offset, 0))
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectInvoices(rows)
}

func update(ctx context.Context, q db.DBTX, inv Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `UPDATE invoices SET customer_id = $2, customer_name = $3, invoice_title = $4, supervisor_name = $5,
items = $6, paid_amount = $7, remaining_amount = $8, payment_method = $9, status = $10, notes = $11 WHERE id = $1`,
		inv.ID, inv.CustomerID, inv.CustomerName, inv.InvoiceTitle, inv.SupervisorName,
		items, inv.PaidAmount, inv.RemainingAmount, string(inv.PaymentMethod), string(inv.Status), inv.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Update overwrites the mutable columns. Pricing is fixed at creation.
func (r *PGRepository) Update(ctx context.Context, inv Invoice) error {
	return update(ctx, r.pool, inv)
}

// Delete removes an invoice. Its payments are kept.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyPayment serialises payments on one invoice with a row lock.
func (r *PGRepository) ApplyPayment(ctx context.Context, p Payment, apply func(*Invoice) error) (Invoice, error) {
	var out Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, p.InvoiceID))
		if err != nil {
			return err
		}
		if err := apply(&inv); err != nil {
			return err
		}
		if err := update(ctx, tx, inv); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO payments (id, invoice_id, amount, payment_method, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.InvoiceID, p.Amount, string(p.PaymentMethod), p.Notes, p.CreatedAt); err != nil {
			return err
		}
		out = inv
		return nil
	})
	return out, err
}

// ListPayments returns payments newest first, optionally for one invoice.
func (r *PGRepository) ListPayments(ctx context.Context, invoiceID string, limit int) ([]Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, invoice_id, amount, payment_method, notes, created_at FROM payments`
	args := []any{limit}
	if invoiceID != "" {
		query += ` WHERE invoice_id = $2`
		args = append(args, invoiceID)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY created_at DESC LIMIT $1`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		var (
			p      Payment
			method string
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &method, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PaymentMethod = treasury.PaymentMethod(method)
		out = append(out, p)
	}
	return out, rows.Err()
}

