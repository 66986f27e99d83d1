package repository

import (
	"context"
	"errors"

	"todo-server/internal/domain"
)

var (
	// ErrUserNotFound indicates no user row matches the query.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates a uniqueness violation on username.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
