package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// TodoInput is the caller-editable portion of a todo.
type TodoInput struct {
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
}

// TodoService coordinates owner-scoped todo operations. Every lookup is
// checked against the calling user; rows owned by someone else behave
// exactly like missing rows so existence is never leaked across tenants.
type TodoService interface {
	CreateTodo(ctx context.Context, userID int64, in TodoInput) (*domain.Todo, error)
	GetTodo(ctx context.Context, userID, id int64) (*domain.Todo, error)
	ListTodos(ctx context.Context, userID int64, opts repository.ListOptions) (*repository.TodoPage, error)
	ListTodosByCompleted(ctx context.Context, userID int64, completed bool) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, userID, id int64, in TodoInput) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, userID, id int64) error
}

type todoService struct {
	todos repository.TodoRepository
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) CreateTodo(ctx context.Context, userID int64, in TodoInput) (*domain.Todo, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("title is required")
	}

	todo := &domain.Todo{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Completed:   in.Completed,
		DueDate:     in.DueDate,
	}
	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) GetTodo(ctx context.Context, userID, id int64) (*domain.Todo, error) {
	return s.getOwned(ctx, userID, id)
}

func (s *todoService) ListTodos(ctx context.Context, userID int64, opts repository.ListOptions) (*repository.TodoPage, error) {
	return s.todos.ListByUser(ctx, userID, opts)
}

func (s *todoService) ListTodosByCompleted(ctx context.Context, userID int64, completed bool) ([]domain.Todo, error) {
	return s.todos.ListByUserAndCompleted(ctx, userID, completed)
}

func (s *todoService) UpdateTodo(ctx context.Context, userID, id int64, in TodoInput) (*domain.Todo, error) {
	todo, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, errors.New("title is required")
	}

	todo.Title = strings.TrimSpace(in.Title)
	todo.Description = in.Description
	todo.Completed = in.Completed
	todo.DueDate = in.DueDate
	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, userID, id int64) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.todos.Delete(ctx, id)
}

func (s *todoService) getOwned(ctx context.Context, userID, id int64) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, repository.ErrTodoNotFound
	}
	return todo, nil
}
