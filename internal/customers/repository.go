package customers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/shared"
)

const columns = `id, name, phone, address, notes, created_at`

// PGRepository persists customers in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, filters shared.ListFilters) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM customers
WHERE name ILIKE $1 OR phone ILIKE $1 ORDER BY name LIMIT $2 OFFSET $3`, filters.Pattern(), filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Customer])
}

func (r *PGRepository) Get(ctx context.Context, id string) (Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM customers WHERE id = $1`, id)
	if err != nil {
		return Customer{}, err
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Customer])
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	return c, err
}

func (r *PGRepository) Insert(ctx context.Context, c Customer) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO customers (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Phone, c.Address, c.Notes, c.CreatedAt)
	return err
}

func (r *PGRepository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET name = $2, phone = $3, address = $4, notes = $5 WHERE id = $1`,
		c.ID, c.Name, c.Phone, c.Address, c.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
