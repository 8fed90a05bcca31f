package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hikaru/todo-list/backend/internal/auth"
	"github.com/hikaru/todo-list/backend/internal/store"
)

// OwnerLookup resolves a todo id to its owning user id.
type OwnerLookup interface {
	GetTodoOwner(ctx context.Context, id string) (string, error)
}

// RequireTodoOwner guards /{id} todo routes. Existence is checked before
// ownership: a missing todo is 404, someone else's todo is 403. Must run
// after RequireAuth.
func RequireTodoOwner(todos OwnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")

			owner, err := todos.GetTodoOwner(r.Context(), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					http.Error(w, `{"error":"todo not found"}`, http.StatusNotFound)
					return
				}
				log.Printf("ownership lookup error: %v", err)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			if owner != auth.UserIDFromContext(r.Context()) {
				http.Error(w, `{"error":"you do not have access to this todo"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
