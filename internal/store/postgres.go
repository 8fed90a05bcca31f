package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hikaru/todo-list/backend/internal/models"
)

// DB is the subset of pgxpool.Pool the store uses, extracted so tests can
// substitute pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore handles user and todo CRUD against PostgreSQL.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB wires an arbitrary DB, used by tests.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the users and todos tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username   VARCHAR(50)  UNIQUE NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS todos (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id         UUID NOT NULL REFERENCES users(id),
			title           VARCHAR(100) NOT NULL,
			description     VARCHAR(500) NOT NULL DEFAULT '',
			completed       BOOLEAN      NOT NULL DEFAULT FALSE,
			priority        SMALLINT     NOT NULL DEFAULT 1,
			due_date        TIMESTAMPTZ,
			attachment_key  TEXT         NOT NULL DEFAULT '',
			attachment_name TEXT         NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ  DEFAULT NOW(),
			updated_at      TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate todos: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, hashedPassword,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, password, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

const todoColumns = `id, user_id, title, description, completed, priority, due_date, attachment_key, attachment_name, created_at, updated_at`

func scanTodo(row pgx.Row) (*models.Todo, error) {
	var t models.Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Completed,
		&t.Priority, &t.DueDate, &t.AttachmentKey, &t.AttachmentName,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTodo(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO todos (user_id, title, description, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+todoColumns,
		userID, req.Title, req.Description, req.Priority, req.DueDate,
	)
	t, err := scanTodo(row)
	if err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		todos = append(todos, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *PostgresStore) GetTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	t, err := scanTodo(s.db.QueryRow(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

// GetTodoOwner returns only the owner id for a todo, used by the ownership
// guard so it doesn't pull the whole row before authorization passes.
func (s *PostgresStore) GetTodoOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM todos WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return "", fmt.Errorf("get todo owner: %w", err)
	}
	return owner, nil
}

func (s *PostgresStore) UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE todos
		 SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5, updated_at = NOW()
		 WHERE id = $6
		 RETURNING `+todoColumns,
		req.Title, req.Description, req.Completed, req.Priority, req.DueDate, id,
	)
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ToggleTodo(ctx context.Context, id string) (*models.Todo, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE todos SET completed = NOT completed, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+todoColumns, id,
	)
	t, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("toggle todo: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) SetTodoAttachment(ctx context.Context, id, key, name string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE todos SET attachment_key = $1, attachment_name = $2, updated_at = NOW() WHERE id = $3`,
		key, name, id)
	if err != nil {
		return fmt.Errorf("set attachment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteTodo(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}
