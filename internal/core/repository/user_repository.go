package repository

import (
	"context"
	"errors"

	"github.com/martijn/userbase/internal/core/domain"
)

// ErrNotFound is wrapped by repositories when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	// Create inserts the user and sets its ID.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Update overwrites every mutable column and updated_at.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
	// List returns all users in insertion order.
	List(ctx context.Context) ([]*domain.User, error)
	Count(ctx context.Context) (int, error)
}
