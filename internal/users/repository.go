package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/platform/db"
	"github.com/sealworks/seal-erp/internal/shared"
)

const columns = `id, username, password_hash, role, is_active, created_at`

// PGRepository persists users in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) one(ctx context.Context, where string, arg any) (User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM users WHERE `+where, arg)
	if err != nil {
		return User{}, err
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Get loads a user by id.
func (r *PGRepository) Get(ctx context.Context, id string) (User, error) {
	return r.one(ctx, `id = $1`, id)
}

// FindByUsername loads a user by login name.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.one(ctx, `username = $1`, username)
}

// List returns every user ordered by username.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[User])
}

// Insert stores a new user. Duplicate usernames map to shared.ErrConflict.
func (r *PGRepository) Insert(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.IsActive, u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: username %s", shared.ErrConflict, u.Username)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
