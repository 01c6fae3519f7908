package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
)

const itemColumns = `SELECT id, material_type, inner_diameter, outer_diameter, available_pieces, min_stock_level, notes, created_at, updated_at FROM inventory_items`

const txColumns = `SELECT id, inventory_item_id, material_type, inner_diameter, outer_diameter, transaction_type, pieces_change, remaining_pieces, reason, reference_id, notes, created_at FROM inventory_transactions`

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id string) (Item, error)
	FindByKeyForUpdate(ctx context.Context, key Key) (Item, error)
	SetPieces(ctx context.Context, id string, pieces int, at time.Time) error
	InsertTransaction(ctx context.Context, tx Transaction) error
}

type txRepo struct {
	q db.DBTX
}

// WithTx executes the callback inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.MaterialType, &it.InnerDiameter, &it.OuterDiameter, &it.AvailablePieces, &it.MinStockLevel, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns all items.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, itemColumns+` ORDER BY material_type, inner_diameter, outer_diameter`)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// LowStock returns items at or below their minimum level.
func (r *Repository) LowStock(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, itemColumns+` WHERE available_pieces <= min_stock_level ORDER BY available_pieces, material_type`)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

// Get loads one item.
func (r *Repository) Get(ctx context.Context, id string) (Item, error) {
	return scanItem(r.pool.QueryRow(ctx, itemColumns+` WHERE id = $1`, id))
}

// Insert stores a new item.
func (r *Repository) Insert(ctx context.Context, it Item) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO inventory_items (id, material_type, inner_diameter, outer_diameter, available_pieces, min_stock_level, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		it.ID, it.MaterialType, it.InnerDiameter, it.OuterDiameter, it.AvailablePieces, it.MinStockLevel, it.Notes, it.CreatedAt, it.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return shared.ErrConflict
	}
	return err
}

// Update writes threshold and notes.
func (r *Repository) Update(ctx context.Context, it Item) error {
	tag, err := r.pool.Exec(ctx, `UPDATE inventory_items SET min_stock_level = $2, notes = $3, updated_at = $4 WHERE id = $1`,
		it.ID, it.MinStockLevel, it.Notes, it.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Delete removes an item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ListTransactions returns movements newest first.
func (r *Repository) ListTransactions(ctx context.Context, itemID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 200
	}
	query := txColumns
	args := []any{}
	if itemID != "" {
		query += ` WHERE inventory_item_id = $1`
		args = append(args, itemID)
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
		var typ string
		if err := rows.Scan(&t.ID, &t.InventoryItemID, &t.MaterialType, &t.InnerDiameter, &t.OuterDiameter, &typ, &t.PiecesChange, &t.RemainingPieces, &t.Reason, &t.ReferenceID, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.TransactionType = TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *txRepo) GetItemForUpdate(ctx context.Context, id string) (Item, error) {
	return scanItem(r.q.QueryRow(ctx, itemColumns+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *txRepo) FindByKeyForUpdate(ctx context.Context, key Key) (Item, error) {
	return scanItem(r.q.QueryRow(ctx, itemColumns+` WHERE material_type = $1 AND inner_diameter = $2 AND outer_diameter = $3 FOR UPDATE`,
		key.MaterialType, key.InnerDiameter, key.OuterDiameter))
}

func (r *txRepo) SetPieces(ctx context.Context, id string, pieces int, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE inventory_items SET available_pieces = $2, updated_at = $3 WHERE id = $1`, id, pieces, at)
	return err
}

func (r *txRepo) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := r.q.Exec(ctx, `INSERT INTO inventory_transactions (id, inventory_item_id, material_type, inner_diameter, outer_diameter, transaction_type, pieces_change, remaining_pieces, reason, reference_id, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.InventoryItemID, t.MaterialType, t.InnerDiameter, t.OuterDiameter, string(t.TransactionType), t.PiecesChange, t.RemainingPieces, t.Reason, t.ReferenceID, t.Notes, t.CreatedAt)
	return err
}
