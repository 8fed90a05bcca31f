package models

import (
	"fmt"
	"strings"
	"time"
)

// Todo represents a row in the PostgreSQL todos table.
type Todo struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Completed      bool       `json:"completed"`
	Priority       int        `json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	AttachmentKey  string     `json:"-"` // object store key, internal
	AttachmentName string     `json:"attachment_name,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CreateTodoRequest is the JSON body for POST /api/todos.
type CreateTodoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTodoRequest is the JSON body for PUT /api/todos/{id}.
type UpdateTodoRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    int        `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

// ValidateTodoInput checks title, description, and priority against the
// field limits enforced by the todos table. Returns one message per problem.
func ValidateTodoInput(title, description string, priority int) []string {
	var errs []string
	if strings.TrimSpace(title) == "" {
		errs = append(errs, "title is required")
	}
	if len(title) > maxTitleLen {
		errs = append(errs, fmt.Sprintf("title must be %d characters or fewer", maxTitleLen))
	}
	if len(description) > maxDescriptionLen {
		errs = append(errs, fmt.Sprintf("description must be %d characters or fewer", maxDescriptionLen))
	}
	if priority < 1 || priority > 3 {
		errs = append(errs, "priority must be 1 (low), 2 (medium), or 3 (high)")
	}
	return errs
}
