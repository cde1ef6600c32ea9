package port

import (
	"context"

	"doctrack/internal/domain"
)

// DepartmentRepository is the directory of departments used for routing target validation.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Upsert(ctx context.Context, dept *domain.Department) error
}

// UserRepository is the directory of users used for display names and notification addresses.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Upsert(ctx context.Context, user *domain.User) error
}
