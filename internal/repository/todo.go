package repository

import (
	"context"
	"errors"

	"todo-server/internal/domain"
)

// ErrTodoNotFound indicates no todo row matches the query.
var ErrTodoNotFound = errors.New("todo not found")

// ListOptions controls pagination and ordering for todo listings.
// Page is zero-based. SortBy must be one of the columns the repository
// accepts; anything else falls back to the id column.
type ListOptions struct {
	Page     int
	Size     int
	SortBy   string
	SortDesc bool
}

// TodoPage is one page of a user's todos plus the envelope counters.
type TodoPage struct {
	Items         []domain.Todo
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// First reports whether this is the first page of the result set.
func (p TodoPage) First() bool { return p.Page == 0 }

// Last reports whether this is the final page of the result set.
func (p TodoPage) Last() bool { return p.Page >= p.TotalPages-1 }

// TodoRepository exposes persistence operations for Todo entities.
// All queries are scoped to a single owning user.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64, opts ListOptions) (*TodoPage, error)
	ListByUserAndCompleted(ctx context.Context, userID int64, completed bool) ([]domain.Todo, error)
}
