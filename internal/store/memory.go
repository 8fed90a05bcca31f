package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hikaru/todo-list/backend/internal/models"
)

// MemoryUserStore is an in-memory credential store. It mirrors the Postgres
// store's contract, including uniqueness on username and email, and backs
// handler tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User // keyed by id
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]*models.User)}
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return nil, fmt.Errorf("create user: %w", ErrConflict)
		}
	}
	u := &models.User{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	out := *u
	return &out, nil
}

func (s *MemoryUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

func (s *MemoryUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	out := *u
	out.Password = "" // the id lookup never exposes the hash
	return &out, nil
}

// DeleteUser removes a user record. Only tests exercise this; no HTTP
// route deletes users.
func (s *MemoryUserStore) DeleteUser(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

// MemoryTodoStore is an in-memory todo store with the same contract as the
// Postgres store.
type MemoryTodoStore struct {
	mu    sync.RWMutex
	todos map[string]*models.Todo
}

func NewMemoryTodoStore() *MemoryTodoStore {
	return &MemoryTodoStore{todos: make(map[string]*models.Todo)}
}

func (s *MemoryTodoStore) CreateTodo(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	t := &models.Todo{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.todos[t.ID] = t
	out := *t
	return &out, nil
}

func (s *MemoryTodoStore) ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	todos := []models.Todo{}
	for _, t := range s.todos {
		if t.UserID == userID {
			todos = append(todos, *t)
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

func (s *MemoryTodoStore) GetTodoByID(ctx context.Context, id string) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	out := *t
	return &out, nil
}

func (s *MemoryTodoStore) GetTodoOwner(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.todos[id]
	if !ok {
		return "", fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return t.UserID, nil
}

func (s *MemoryTodoStore) UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	t.Title = req.Title
	t.Description = req.Description
	t.Completed = req.Completed
	t.Priority = req.Priority
	t.DueDate = req.DueDate
	t.UpdatedAt = time.Now().UTC()
	out := *t
	return &out, nil
}

func (s *MemoryTodoStore) ToggleTodo(ctx context.Context, id string) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	t.Completed = !t.Completed
	t.UpdatedAt = time.Now().UTC()
	out := *t
	return &out, nil
}

func (s *MemoryTodoStore) SetTodoAttachment(ctx context.Context, id, key, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	t.AttachmentKey = key
	t.AttachmentName = name
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryTodoStore) DeleteTodo(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.todos[id]; !ok {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	delete(s.todos, id)
	return nil
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryFileStore is an in-memory object store matching the MinIO store's
// contract.
type MemoryFileStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{objects: make(map[string]memoryObject)}
}

func (s *MemoryFileStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[key] = memoryObject{data: buf, contentType: contentType}
	return nil
}

func (s *MemoryFileStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("object %s: %w", key, ErrNotFound)
	}
	return obj.data, obj.contentType, nil
}

func (s *MemoryFileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
