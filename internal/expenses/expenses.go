// Package expenses records shop expenses. Every expense is paid from cash, so
// changes here move the cash balance.
package expenses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sealworks/seal-erp/internal/shared"
)

// Expense is money spent outside of invoices.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Input creates or replaces an expense.
type Input struct {
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Category    string  `json:"category"`
}

// ErrNotFound is returned for unknown expenses.
var ErrNotFound = shared.NotFound("expense")

// Repository abstracts expense persistence.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Expense, error)
	Get(ctx context.Context, id string) (Expense, error)
	Insert(ctx context.Context, e Expense) error
	Update(ctx context.Context, e Expense) error
	Delete(ctx context.Context, id string) error
}

// BalanceCache is invalidated whenever expenses change.
type BalanceCache interface {
	Invalidate(ctx context.Context)
}

// Service manages expenses.
type Service struct {
	repo  Repository
	cache BalanceCache
	now   func() time.Time
}

// NewService builds Service. cache may be nil.
func NewService(repo Repository, cache BalanceCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Expense, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Expense, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, input Input) (Expense, error) {
	if input.Amount <= 0 {
		return Expense{}, &shared.ValidationError{Err: shared.ErrValidation, Field: "amount", Key: shared.MsgInvalidAmount}
	}
	e := Expense{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(input.Description),
		Amount:      shared.Round2(input.Amount),
		Category:    strings.TrimSpace(input.Category),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return Expense{}, err
	}
	s.changed(ctx)
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, input Input) (Expense, error) {
	if input.Amount <= 0 {
		return Expense{}, &shared.ValidationError{Err: shared.ErrValidation, Field: "amount", Key: shared.MsgInvalidAmount}
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Expense{}, err
	}
	e.Description = strings.TrimSpace(input.Description)
	e.Amount = shared.Round2(input.Amount)
	e.Category = strings.TrimSpace(input.Category)
	if err := s.repo.Update(ctx, e); err != nil {
		return Expense{}, err
	}
	s.changed(ctx)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) changed(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

const columns = `id, description, amount, category, created_at`

// PGRepository persists expenses in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) List(ctx context.Context, filters shared.ListFilters) ([]Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM expenses WHERE description ILIKE $1 OR category ILIKE $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`, filters.Pattern(), filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Expense])
}

func (r *PGRepository) Get(ctx context.Context, id string) (Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM expenses WHERE id = $1`, id)
	if err != nil {
		return Expense{}, err
	}
	e, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[Expense])
	if errors.Is(err, pgx.ErrNoRows) {
		return Expense{}, ErrNotFound
	}
	return e, err
}

func (r *PGRepository) Insert(ctx context.Context, e Expense) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO expenses (`+columns+`) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Description, e.Amount, e.Category, e.CreatedAt)
	return err
}

func (r *PGRepository) Update(ctx context.Context, e Expense) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expenses SET description = $2, amount = $3, category = $4 WHERE id = $1`,
		e.ID, e.Description, e.Amount, e.Category)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
