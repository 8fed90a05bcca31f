package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/hikaru/todo-list/backend/internal/auth"
	"github.com/hikaru/todo-list/backend/internal/store"
)

// RequireAuth validates the session cookie and injects the session identity
// into the request context. Requests without a live session are rejected
// before any handler runs.
func RequireAuth(sessions auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			sess, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					log.Printf("session lookup error: %v", err)
					http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
					return
				}
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), sess)))
		})
	}
}
