package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/shared"
)

const productColumns = `id, seal_type, material_type, inner_diameter, outer_diameter, height, quantity, unit_price, created_at`

const localColumns = `id, name, supplier_id, supplier_name, purchase_price, selling_price, current_stock, total_sold, created_at`

// PGRepository persists the catalogue in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func exactlyOne[T any](rows pgx.Rows, err error, notFound error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, notFound
	}
	return v, err
}

func affected(tag interface{ RowsAffected() int64 }, err error, notFound error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}

func (r *PGRepository) ListProducts(ctx context.Context, filters shared.ListFilters) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM finished_products
WHERE seal_type ILIKE $1 OR material_type ILIKE $1 ORDER BY seal_type, inner_diameter, outer_diameter LIMIT $2 OFFSET $3`,
		filters.Pattern(), filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
}

func (r *PGRepository) GetProduct(ctx context.Context, id string) (Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM finished_products WHERE id = $1`, id)
	return exactlyOne[Product](rows, err, ErrProductNotFound)
}

func (r *PGRepository) InsertProduct(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO finished_products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.SealType, p.MaterialType, p.InnerDiameter, p.OuterDiameter, p.Height, p.Quantity, p.UnitPrice, p.CreatedAt)
	return err
}

func (r *PGRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE finished_products SET seal_type = $2, material_type = $3, inner_diameter = $4,
outer_diameter = $5, height = $6, quantity = $7, unit_price = $8 WHERE id = $1`,
		p.ID, p.SealType, p.MaterialType, p.InnerDiameter, p.OuterDiameter, p.Height, p.Quantity, p.UnitPrice)
	return affected(tag, err, ErrProductNotFound)
}

func (r *PGRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM finished_products WHERE id = $1`, id)
	return affected(tag, err, ErrProductNotFound)
}

func (r *PGRepository) MatchProducts(ctx context.Context, sealType string, inner, outer, height, tol float64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM finished_products
WHERE seal_type = $1 AND abs(inner_diameter - $2) <= $5 AND abs(outer_diameter - $3) <= $5 AND abs(height - $4) <= $5
ORDER BY inner_diameter, outer_diameter`, sealType, inner, outer, height, tol)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
}

func (r *PGRepository) ListLocal(ctx context.Context, filters shared.ListFilters) ([]LocalProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+localColumns+` FROM local_products
WHERE name ILIKE $1 OR supplier_name ILIKE $1 ORDER BY name LIMIT $2 OFFSET $3`, filters.Pattern(), filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[LocalProduct])
}

func (r *PGRepository) GetLocal(ctx context.Context, id string) (LocalProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+localColumns+` FROM local_products WHERE id = $1`, id)
	return exactlyOne[LocalProduct](rows, err, ErrLocalNotFound)
}

func (r *PGRepository) FindLocal(ctx context.Context, name, supplierName string) (LocalProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+localColumns+` FROM local_products
WHERE name = $1 AND ($2 = '' OR supplier_name = $2) ORDER BY created_at LIMIT 1`, name, supplierName)
	return exactlyOne[LocalProduct](rows, err, ErrLocalNotFound)
}

func (r *PGRepository) InsertLocal(ctx context.Context, p LocalProduct) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO local_products (`+localColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.SupplierID, p.SupplierName, p.PurchasePrice, p.SellingPrice, p.CurrentStock, p.TotalSold, p.CreatedAt)
	return err
}

func (r *PGRepository) UpdateLocal(ctx context.Context, p LocalProduct) error {
	tag, err := r.pool.Exec(ctx, `UPDATE local_products SET name = $2, supplier_id = $3, supplier_name = $4,
purchase_price = $5, selling_price = $6, current_stock = $7 WHERE id = $1`,
		p.ID, p.Name, p.SupplierID, p.SupplierName, p.PurchasePrice, p.SellingPrice, p.CurrentStock)
	return affected(tag, err, ErrLocalNotFound)
}

func (r *PGRepository) DeleteLocal(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM local_products WHERE id = $1`, id)
	return affected(tag, err, ErrLocalNotFound)
}

// RecordSale adjusts both counters in one statement.
func (r *PGRepository) RecordSale(ctx context.Context, id string, quantity int) (LocalProduct, error) {
	rows, err := r.pool.Query(ctx, `UPDATE local_products SET total_sold = total_sold + $2, current_stock = current_stock - $2
WHERE id = $1 RETURNING `+localColumns, id, quantity)
	return exactlyOne[LocalProduct](rows, err, ErrLocalNotFound)
}
