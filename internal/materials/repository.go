package materials

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
)

const selectColumns = `SELECT id, material_type, inner_diameter, outer_diameter, height, pieces_count, unit_code, cost_per_mm, created_at FROM raw_materials`

// PGRepository persists raw materials in PostgreSQL.
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

func scanMaterial(row scanner) (RawMaterial, error) {
	var m RawMaterial
	var t string
	err := row.Scan(&m.ID, &t, &m.InnerDiameter, &m.OuterDiameter, &m.Height, &m.PiecesCount, &m.UnitCode, &m.CostPerMM, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RawMaterial{}, shared.NotFound("raw material")
	}
	m.MaterialType = MaterialType(t)
	return m, err
}

func collect(rows pgx.Rows) ([]RawMaterial, error) {
	defer rows.Close()
	var out []RawMaterial
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// List returns every material.
func (r *PGRepository) List(ctx context.Context) ([]RawMaterial, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY inner_diameter, outer_diameter`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Candidates returns materials long enough to cut at least minHeight, optionally of one type.
func (r *PGRepository) Candidates(ctx context.Context, t MaterialType, minHeight float64) ([]RawMaterial, error) {
	query := selectColumns + ` WHERE height >= $1`
	args := []any{minHeight}
	if t != "" {
		query += ` AND material_type = $2`
		args = append(args, string(t))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Get loads one material.
func (r *PGRepository) Get(ctx context.Context, id string) (RawMaterial, error) {
	return scanMaterial(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
}

// Insert stores a new material.
func (r *PGRepository) Insert(ctx context.Context, m RawMaterial) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO raw_materials (id, material_type, inner_diameter, outer_diameter, height, pieces_count, unit_code, cost_per_mm, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, string(m.MaterialType), m.InnerDiameter, m.OuterDiameter, m.Height, m.PiecesCount, m.UnitCode, m.CostPerMM, m.CreatedAt)
	return err
}

// Update overwrites the mutable columns.
func (r *PGRepository) Update(ctx context.Context, m RawMaterial) error {
	tag, err := r.pool.Exec(ctx, `UPDATE raw_materials SET height = $2, pieces_count = $3, cost_per_mm = $4 WHERE id = $1`,
		m.ID, m.Height, m.PiecesCount, m.CostPerMM)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("raw material")
	}
	return nil
}

// Delete removes a material.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM raw_materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("raw material")
	}
	return nil
}

// UnitCodes lists codes already used for a dimension tuple.
func (r *PGRepository) UnitCodes(ctx context.Context, t MaterialType, inner, outer float64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT unit_code FROM raw_materials WHERE material_type = $1 AND inner_diameter = $2 AND outer_diameter = $3`,
		string(t), inner, outer)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// WithStockTx runs fn in a transaction whose locks serialise cuts on the same material.
func (r *PGRepository) WithStockTx(ctx context.Context, fn func(context.Context, StockTx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &stockTx{q: tx})
	})
}

type stockTx struct {
	q db.DBTX
}

func (t *stockTx) LockByID(ctx context.Context, id string) (RawMaterial, error) {
	return scanMaterial(t.q.QueryRow(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id))
}

func (t *stockTx) LockByRef(ctx context.Context, ref Ref) (RawMaterial, error) {
	if ref.HasDimensions() {
		return scanMaterial(t.q.QueryRow(ctx, selectColumns+`
WHERE unit_code = $1 AND material_type = $2 AND inner_diameter = $3 AND outer_diameter = $4
ORDER BY created_at LIMIT 1 FOR UPDATE`, ref.UnitCode, string(ref.MaterialType), ref.InnerDiameter, ref.OuterDiameter))
	}
	return scanMaterial(t.q.QueryRow(ctx, selectColumns+` WHERE unit_code = $1 ORDER BY created_at LIMIT 1 FOR UPDATE`, ref.UnitCode))
}

func (t *stockTx) SetHeight(ctx context.Context, id string, height float64) error {
	if height < 0 {
		height = 0
	}
	_, err := t.q.Exec(ctx, `UPDATE raw_materials SET height = $2 WHERE id = $1`, id, height)
	return err
}
