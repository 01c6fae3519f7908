package workorders

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const columns = `id, title, description, supervisor_name, is_daily, COALESCE(work_date::text, ''), invoices, total_amount, total_items, status, created_at`

// PGRepository persists work orders in PostgreSQL.
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

func scanOrder(row scanner) (WorkOrder, error) {
	var w WorkOrder
	var raw []byte
	var status string
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.SupervisorName, &w.IsDaily, &w.WorkDate, &raw, &w.TotalAmount, &w.TotalItems, &status, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return WorkOrder{}, ErrNotFound
	}
	if err != nil {
		return WorkOrder{}, err
	}
	w.Status = Status(status)
	w.Invoices = []OrderInvoice{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &w.Invoices); err != nil {
			return WorkOrder{}, err
		}
	}
	return w, nil
}

func collect(rows pgx.Rows) ([]WorkOrder, error) {
	defer rows.Close()
	out := []WorkOrder{}
	for rows.Next() {
		w, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nullableDate(date string) any {
	if date == "" {
		return nil
	}
	return date
}

// List returns orders newest first.
func (r *PGRepository) List(ctx context.Context, limit int) ([]WorkOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM work_orders ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Get loads one order.
func (r *PGRepository) Get(ctx context.Context, id string) (WorkOrder, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM work_orders WHERE id = $1`, id))
}

// Insert stores a new order.
func (r *PGRepository) Insert(ctx context.Context, w WorkOrder) error {
	raw, err := json.Marshal(w.Invoices)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO work_orders (id, title, description, supervisor_name, is_daily, work_date, invoices, total_amount, total_items, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9, $10, $11)`,
		w.ID, w.Title, w.Description, w.SupervisorName, w.IsDaily, nullableDate(w.WorkDate), raw, w.TotalAmount, w.TotalItems, string(w.Status), w.CreatedAt)
	return err
}

// Update writes the invoice list, totals and status.
func (r *PGRepository) Update(ctx context.Context, w WorkOrder) error {
	raw, err := json.Marshal(w.Invoices)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE work_orders SET invoices = $2, total_amount = $3, total_items = $4, status = $5 WHERE id = $1`,
		w.ID, raw, w.TotalAmount, w.TotalItems, string(w.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureDaily creates the daily order for seed.WorkDate unless one exists.
func (r *PGRepository) EnsureDaily(ctx context.Context, seed WorkOrder) (WorkOrder, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO work_orders (id, title, description, supervisor_name, is_daily, work_date, invoices, total_amount, total_items, status, created_at)
VALUES ($1, $2, $3, '', TRUE, $4::date, '[]'::jsonb, 0, 0, $5, $6)
ON CONFLICT (work_date) WHERE is_daily DO NOTHING`,
		seed.ID, seed.Title, seed.Description, seed.WorkDate, string(seed.Status), seed.CreatedAt)
	if err != nil {
		return WorkOrder{}, err
	}
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM work_orders WHERE is_daily AND work_date = $1::date`, seed.WorkDate))
}

// AppendDaily upserts the daily order and appends entry in one statement.
func (r *PGRepository) AppendDaily(ctx context.Context, seed WorkOrder, entry OrderInvoice) (WorkOrder, error) {
	raw, err := json.Marshal([]OrderInvoice{entry})
	if err != nil {
		return WorkOrder{}, err
	}
	return scanOrder(r.pool.QueryRow(ctx, `INSERT INTO work_orders (id, title, description, supervisor_name, is_daily, work_date, invoices, total_amount, total_items, status, created_at)
VALUES ($1, $2, $3, '', TRUE, $4::date, $5::jsonb, $6, $7, $8, $9)
ON CONFLICT (work_date) WHERE is_daily DO UPDATE SET
	invoices = work_orders.invoices || EXCLUDED.invoices,
	total_amount = work_orders.total_amount + EXCLUDED.total_amount,
	total_items = work_orders.total_items + EXCLUDED.total_items
RETURNING `+columns,
		seed.ID, seed.Title, seed.Description, seed.WorkDate, raw, entry.TotalAmount, len(entry.Items), string(seed.Status), seed.CreatedAt))
}

// ListContaining returns orders whose invoice list holds invoiceID.
func (r *PGRepository) ListContaining(ctx context.Context, invoiceID string) ([]WorkOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM work_orders WHERE invoices @> jsonb_build_array(jsonb_build_object('invoice_id', $1::text))`, invoiceID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
