package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

const createTodosTable = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed INTEGER NOT NULL DEFAULT 0,
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_todos_user_id ON todos(user_id);
`

// sortColumns whitelists the ORDER BY targets accepted from callers.
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"completed":  "completed",
	"dueDate":    "due_date",
	"due_date":   "due_date",
	"createdAt":  "created_at",
	"created_at": "created_at",
	"updatedAt":  "updated_at",
	"updated_at": "updated_at",
}

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTodosTable); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}
	return nil
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO todos (user_id, title, description, completed, due_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.DueDate,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("todo last insert id: %w", err)
	}
	todo.ID = id
	return id, nil
}

func (r *TodoRepository) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, title, description, completed, due_date, created_at, updated_at
FROM todos
WHERE id = ?`,
		id,
	)
	return scanTodo(row)
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE todos
SET title = ?, description = ?, completed = ?, due_date = ?, updated_at = ?
WHERE id = ?`,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.DueDate,
		todo.UpdatedAt,
		todo.ID,
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID int64, opts repository.ListOptions) (*repository.TodoPage, error) {
	if opts.Page < 0 {
		opts.Page = 0
	}
	if opts.Size <= 0 {
		opts.Size = 10
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count todos: %w", err)
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
SELECT id, user_id, title, description, completed, due_date, created_at, updated_at
FROM todos
WHERE user_id = ?
ORDER BY %s %s
LIMIT ? OFFSET ?`, column, direction)

	rows, err := r.db.QueryContext(ctx, query, userID, opts.Size, opts.Page*opts.Size)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	items, err := collectTodos(rows)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(opts.Size) - 1) / int64(opts.Size))
	return &repository.TodoPage{
		Items:         items,
		Page:          opts.Page,
		Size:          opts.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (r *TodoRepository) ListByUserAndCompleted(ctx context.Context, userID int64, completed bool) ([]domain.Todo, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, title, description, completed, due_date, created_at, updated_at
FROM todos
WHERE user_id = ? AND completed = ?
ORDER BY id DESC`,
		userID,
		completed,
	)
	if err != nil {
		return nil, fmt.Errorf("list todos by completed: %w", err)
	}
	defer rows.Close()

	return collectTodos(rows)
}

func collectTodos(rows *sql.Rows) ([]domain.Todo, error) {
	var todos []domain.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func scanTodo(row interface {
	Scan(dest ...any) error
}) (*domain.Todo, error) {
	var (
		todo    domain.Todo
		dueDate sql.NullTime
	)
	if err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Description,
		&todo.Completed,
		&dueDate,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrTodoNotFound
		}
		return nil, fmt.Errorf("scan todo: %w", err)
	}
	if dueDate.Valid {
		t := dueDate.Time
		todo.DueDate = &t
	}
	return &todo, nil
}
