package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

type departmentRepo struct {
	store *Store
}

// NewDepartmentRepo returns a DepartmentRepository backed by st.
func NewDepartmentRepo(st *Store) port.DepartmentRepository {
	return &departmentRepo{store: st}
}

func (r *departmentRepo) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	r.store.dirMu.RLock()
	defer r.store.dirMu.RUnlock()
	d, ok := r.store.departments[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	return &d, nil
}

func (r *departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.store.dirMu.RLock()
	defer r.store.dirMu.RUnlock()
	out := make([]domain.Department, 0, len(r.store.departments))
	for _, d := range r.store.departments {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Department) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *departmentRepo) Upsert(_ context.Context, dept *domain.Department) error {
	r.store.dirMu.Lock()
	defer r.store.dirMu.Unlock()
	r.store.departments[dept.ID] = *dept
	return nil
}

type userRepo struct {
	store *Store
}

// NewUserRepo returns a UserRepository backed by st.
func NewUserRepo(st *Store) port.UserRepository {
	return &userRepo{store: st}
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.store.dirMu.RLock()
	defer r.store.dirMu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) Upsert(_ context.Context, user *domain.User) error {
	r.store.dirMu.Lock()
	defer r.store.dirMu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.store.users[user.ID] = *user
	return nil
}
