// Package userstest provides an in-memory user store for tests.
package userstest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/users"
)

// Repository implements users.Repository in memory.
type Repository struct {
	mu   sync.Mutex
	rows map[string]users.User
}

// NewRepository returns a Repository seeded with existing users.
func NewRepository(seed ...users.User) *Repository {
	r := &Repository{rows: make(map[string]users.User)}
	for _, u := range seed {
		r.rows[u.ID] = u
	}
	return r
}

func (r *Repository) Get(ctx context.Context, id string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if u.Username == username {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *Repository) List(ctx context.Context) ([]users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]users.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *Repository) Insert(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username %s", shared.ErrConflict, u.Username)
		}
	}
	r.rows[u.ID] = u
	return nil
}
