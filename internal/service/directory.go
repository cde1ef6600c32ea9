package service

import (
	"context"
	"sync"
	"time"

	"doctrack/internal/domain"
	"doctrack/internal/port"
)

// Display placeholders used when a reference cannot be shown.
const (
	SystemActorName         = "System"
	NoDepartmentName        = "N/A"
	UnresolvedReferenceName = "Unknown"
)

// Directory resolves department and user references with a bounded timeout per lookup.
type Directory struct {
	departments port.DepartmentRepository
	users       port.UserRepository
	timeout     time.Duration
}

// NewDirectory creates a Directory. A non-positive timeout disables the bound.
func NewDirectory(departments port.DepartmentRepository, users port.UserRepository, timeout time.Duration) *Directory {
	return &Directory{departments: departments, users: users, timeout: timeout}
}

func (d *Directory) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

// Department loads a department for validation; failures are returned, not masked.
func (d *Directory) Department(ctx context.Context, id int64) (*domain.Department, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	dept, err := d.departments.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("directory.Department", err)
	}
	return dept, nil
}

// ListDepartments returns every department.
func (d *Directory) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	depts, err := d.departments.List(ctx)
	if err != nil {
		return nil, storeErr("directory.ListDepartments", err)
	}
	return depts, nil
}

// User loads a user; failures are returned, not masked.
func (d *Directory) User(ctx context.Context, id int64) (*domain.User, error) {
	ctx, cancel := d.bounded(ctx)
	defer cancel()
	u, err := d.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("directory.User", err)
	}
	return u, nil
}

// UserName never fails: nil is the system actor, anything unresolvable is "Unknown".
func (d *Directory) UserName(ctx context.Context, id *int64) string {
	if id == nil {
		return SystemActorName
	}
	u, err := d.User(ctx, *id)
	if err != nil || u.FullName == "" {
		return UnresolvedReferenceName
	}
	return u.FullName
}

// DepartmentName never fails: nil is "N/A", anything unresolvable is "Unknown".
func (d *Directory) DepartmentName(ctx context.Context, id *int64) string {
	if id == nil {
		return NoDepartmentName
	}
	dept, err := d.Department(ctx, *id)
	if err != nil || dept.Name == "" {
		return UnresolvedReferenceName
	}
	return dept.Name
}

// nameCache memoizes Directory lookups for the span of one timeline render.
type nameCache struct {
	dir   *Directory
	mu    sync.Mutex
	users map[int64]string
	depts map[int64]string
}

func newNameCache(dir *Directory) *nameCache {
	return &nameCache{dir: dir, users: make(map[int64]string), depts: make(map[int64]string)}
}

func (c *nameCache) user(ctx context.Context, id *int64) string {
	if id == nil {
		return SystemActorName
	}
	c.mu.Lock()
	name, ok := c.users[*id]
	c.mu.Unlock()
	if ok {
		return name
	}
	name = c.dir.UserName(ctx, id)
	c.mu.Lock()
	c.users[*id] = name
	c.mu.Unlock()
	return name
}

func (c *nameCache) department(ctx context.Context, id *int64) string {
	if id == nil {
		return NoDepartmentName
	}
	c.mu.Lock()
	name, ok := c.depts[*id]
	c.mu.Unlock()
	if ok {
		return name
	}
	name = c.dir.DepartmentName(ctx, id)
	c.mu.Lock()
	c.depts[*id] = name
	c.mu.Unlock()
	return name
}
