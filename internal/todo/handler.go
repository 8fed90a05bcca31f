package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikaru/todo-list/backend/internal/auth"
	"github.com/hikaru/todo-list/backend/internal/models"
	"github.com/hikaru/todo-list/backend/internal/store"
)

// maxAttachmentSize caps uploads at 10 MiB.
const maxAttachmentSize = 10 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// TodoStore defines the interface for todo persistence.
type TodoStore interface {
	CreateTodo(ctx context.Context, userID string, req models.CreateTodoRequest) (*models.Todo, error)
	ListTodosByUser(ctx context.Context, userID string) ([]models.Todo, error)
	GetTodoByID(ctx context.Context, id string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (*models.Todo, error)
	ToggleTodo(ctx context.Context, id string) (*models.Todo, error)
	SetTodoAttachment(ctx context.Context, id, key, name string) error
	DeleteTodo(ctx context.Context, id string) error
}

// FileStore defines the interface for attachment storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds todo HTTP handlers. Routes mounting these must wrap single
// todo routes with the ownership middleware; handlers assume authorization
// already passed.
type Handler struct {
	todos TodoStore
	files FileStore
}

func NewHandler(todos TodoStore, files FileStore) *Handler {
	return &Handler{todos: todos, files: files}
}

// List returns the current user's todos, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	todos, err := h.todos.ListTodosByUser(r.Context(), userID)
	if err != nil {
		log.Printf("list todos error: %v", err)
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// Create inserts a todo owned by the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req models.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Priority == 0 {
		req.Priority = 1
	}
	if errs := models.ValidateTodoInput(req.Title, req.Description, req.Priority); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"details": errs,
		})
		return
	}

	created, err := h.todos.CreateTodo(r.Context(), userID, req)
	if err != nil {
		log.Printf("create todo error: %v", err)
		http.Error(w, `{"error":"failed to create todo"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns a single todo. Ownership was already checked by middleware.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.todos.GetTodoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("get todo error: %v", err)
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update replaces the mutable fields of a todo.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Priority == 0 {
		req.Priority = 1
	}
	if errs := models.ValidateTodoInput(req.Title, req.Description, req.Priority); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"details": errs,
		})
		return
	}

	updated, err := h.todos.UpdateTodo(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("update todo error: %v", err)
		http.Error(w, `{"error":"failed to update todo"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Toggle flips the completed flag.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.todos.ToggleTodo(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("toggle todo error: %v", err)
		http.Error(w, `{"error":"failed to toggle todo"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a todo and its attachment object, if any.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.todos.GetTodoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("get todo error: %v", err)
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	if t.AttachmentKey != "" {
		if err := h.files.Remove(r.Context(), t.AttachmentKey); err != nil {
			log.Printf("attachment remove error (non-fatal): %v", err)
		}
	}

	if err := h.todos.DeleteTodo(r.Context(), id); err != nil {
		log.Printf("delete todo error: %v", err)
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// UploadAttachment stores a single multipart file against the todo,
// replacing any previous attachment.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		http.Error(w, `{"error":"invalid multipart body"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"file field is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		http.Error(w, `{"error":"failed to read file"}`, http.StatusBadRequest)
		return
	}
	if len(data) > maxAttachmentSize {
		http.Error(w, `{"error":"file too large"}`, http.StatusBadRequest)
		return
	}

	prev, err := h.todos.GetTodoByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
			return
		}
		log.Printf("get todo error: %v", err)
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s/%s", userID, id, header.Filename)
	if err := h.files.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("attachment upload error: %v", err)
		http.Error(w, `{"error":"upload failed"}`, http.StatusInternalServerError)
		return
	}

	if err := h.todos.SetTodoAttachment(r.Context(), id, key, header.Filename); err != nil {
		log.Printf("set attachment error: %v", err)
		http.Error(w, `{"error":"upload failed"}`, http.StatusInternalServerError)
		return
	}

	// Old object is orphaned otherwise when the filename changed.
	if prev.AttachmentKey != "" && prev.AttachmentKey != key {
		if err := h.files.Remove(r.Context(), prev.AttachmentKey); err != nil {
			log.Printf("old attachment remove error (non-fatal): %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "attachment uploaded",
		"attachment_name": header.Filename,
	})
}

// DownloadAttachment streams the todo's attachment.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.todos.GetTodoByID(r.Context(), id)
	if err != nil || t.AttachmentKey == "" {
		http.Error(w, `{"error":"attachment not available"}`, http.StatusNotFound)
		return
	}

	data, ct, err := h.files.Download(r.Context(), t.AttachmentKey)
	if err != nil {
		log.Printf("attachment download error: %v", err)
		http.Error(w, `{"error":"download failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", t.AttachmentName))
	w.Write(data)
}
