package todo_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikaru/todo-list/backend/internal/auth"
	"github.com/hikaru/todo-list/backend/internal/metrics"
	"github.com/hikaru/todo-list/backend/internal/middleware"
	"github.com/hikaru/todo-list/backend/internal/models"
	"github.com/hikaru/todo-list/backend/internal/store"
	"github.com/hikaru/todo-list/backend/internal/todo"
)

// apiEnv assembles the same route tree as cmd/server against in-memory
// stores.
type apiEnv struct {
	router *chi.Mux
	files  *store.MemoryFileStore
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	users := store.NewMemoryUserStore()
	todos := store.NewMemoryTodoStore()
	files := store.NewMemoryFileStore()
	sessions := auth.NewMemorySessionStore()
	m := metrics.New(prometheus.NewRegistry())

	authHandler := auth.NewHandler(users, sessions, m)
	todoHandler := todo.NewHandler(todos, files)

	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuth(sessions)).Get("/me", authHandler.Me)
	})
	r.Route("/api/todos", func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessions))
		r.Get("/", todoHandler.List)
		r.Post("/", todoHandler.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.RequireTodoOwner(todos))
			r.Get("/", todoHandler.Get)
			r.Put("/", todoHandler.Update)
			r.Delete("/", todoHandler.Delete)
			r.Patch("/toggle", todoHandler.Toggle)
			r.Post("/attachment", todoHandler.UploadAttachment)
			r.Get("/attachment", todoHandler.DownloadAttachment)
		})
	})
	return &apiEnv{router: r, files: files}
}

func (e *apiEnv) doJSON(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// registerUser registers a user and returns their session cookie.
func (e *apiEnv) registerUser(t *testing.T, username, email, password string) *http.Cookie {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "email": email, "password": password}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie after register")
	return nil
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) models.Todo {
	t.Helper()
	var out models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestTodoCRUD(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	created := env.doJSON(t, http.MethodPost, "/api/todos",
		map[string]any{"title": "buy milk", "description": "two liters", "priority": 2}, alice)
	require.Equal(t, http.StatusCreated, created.Code)
	td := decodeTodo(t, created)
	assert.Equal(t, "buy milk", td.Title)
	assert.Equal(t, 2, td.Priority)
	assert.False(t, td.Completed)
	require.NotEmpty(t, td.ID)

	got := env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, alice)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, td.ID, decodeTodo(t, got).ID)

	updated := env.doJSON(t, http.MethodPut, "/api/todos/"+td.ID,
		map[string]any{"title": "buy oat milk", "description": "", "completed": true, "priority": 1}, alice)
	require.Equal(t, http.StatusOK, updated.Code)
	ut := decodeTodo(t, updated)
	assert.Equal(t, "buy oat milk", ut.Title)
	assert.True(t, ut.Completed)

	toggled := env.doJSON(t, http.MethodPatch, "/api/todos/"+td.ID+"/toggle", nil, alice)
	require.Equal(t, http.StatusOK, toggled.Code)
	assert.False(t, decodeTodo(t, toggled).Completed)

	list := env.doJSON(t, http.MethodGet, "/api/todos", nil, alice)
	require.Equal(t, http.StatusOK, list.Code)
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &todos))
	require.Len(t, todos, 1)

	deleted := env.doJSON(t, http.MethodDelete, "/api/todos/"+td.ID, nil, alice)
	require.Equal(t, http.StatusOK, deleted.Code)

	got = env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, got.Code)
}

func TestTodoCreate_Validation(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	longTitle := make([]byte, 101)
	for i := range longTitle {
		longTitle[i] = 'x'
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty title", map[string]any{"title": ""}},
		{"whitespace title", map[string]any{"title": "   "}},
		{"title too long", map[string]any{"title": string(longTitle)}},
		{"bad priority", map[string]any{"title": "ok", "priority": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodPost, "/api/todos", tt.body, alice)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "validation failed")
		})
	}
}

func TestTodoCreate_DefaultPriority(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	rec := env.doJSON(t, http.MethodPost, "/api/todos", map[string]any{"title": "no priority"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decodeTodo(t, rec).Priority)
}

func TestTodoList_ScopedToOwner(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")
	bob := env.registerUser(t, "bob", "b@x.com", "secret2")

	rec := env.doJSON(t, http.MethodPost, "/api/todos", map[string]any{"title": "alice's task"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	list := env.doJSON(t, http.MethodGet, "/api/todos", nil, bob)
	require.Equal(t, http.StatusOK, list.Code)
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &todos))
	assert.Empty(t, todos)
}

// TestOwnershipScenario walks the full register/login/ownership flow.
func TestOwnershipScenario(t *testing.T) {
	env := newAPIEnv(t)

	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	login := env.doJSON(t, http.MethodPost, "/api/auth/login",
		map[string]string{"username": "alice", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	created := env.doJSON(t, http.MethodPost, "/api/todos", map[string]any{"title": "alice's secret plan"}, alice)
	require.Equal(t, http.StatusCreated, created.Code)
	td := decodeTodo(t, created)

	// Owner reads fine.
	rec := env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, alice)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A freshly registered bob is forbidden, and sees no data.
	bob := env.registerUser(t, "bob", "b@x.com", "secret2")
	rec = env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret plan")

	// Nonexistent id under alice's own session is 404.
	rec = env.doJSON(t, http.MethodGet, "/api/todos/nonexistent", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// After logout the old token is rejected before ownership is consulted.
	logout := env.doJSON(t, http.MethodPost, "/api/auth/logout", nil, alice)
	require.Equal(t, http.StatusOK, logout.Code)
	rec = env.doJSON(t, http.MethodGet, "/api/auth/me", nil, alice)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, alice)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func (e *apiEnv) uploadAttachment(t *testing.T, todoID, filename, content string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/todos/"+todoID+"/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestTodoAttachments(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	created := env.doJSON(t, http.MethodPost, "/api/todos", map[string]any{"title": "with file"}, alice)
	require.Equal(t, http.StatusCreated, created.Code)
	td := decodeTodo(t, created)

	// No attachment yet.
	rec := env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID+"/attachment", nil, alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	up := env.uploadAttachment(t, td.ID, "notes.txt", "remember the milk", alice)
	require.Equal(t, http.StatusOK, up.Code)

	down := env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID+"/attachment", nil, alice)
	require.Equal(t, http.StatusOK, down.Code)
	assert.Equal(t, "remember the milk", down.Body.String())
	assert.Contains(t, down.Header().Get("Content-Disposition"), "notes.txt")

	// Another user cannot reach the attachment.
	bob := env.registerUser(t, "bob", "b@x.com", "secret2")
	rec = env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID+"/attachment", nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	del := env.doJSON(t, http.MethodDelete, "/api/todos/"+td.ID, nil, alice)
	require.Equal(t, http.StatusOK, del.Code)
	fetched := env.doJSON(t, http.MethodGet, "/api/todos/"+td.ID, nil, alice)
	assert.Equal(t, http.StatusNotFound, fetched.Code)
}

func TestTodoAttachment_MissingFileField(t *testing.T) {
	env := newAPIEnv(t)
	alice := env.registerUser(t, "alice", "a@x.com", "secret1")

	created := env.doJSON(t, http.MethodPost, "/api/todos", map[string]any{"title": "no file"}, alice)
	require.Equal(t, http.StatusCreated, created.Code)
	td := decodeTodo(t, created)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/todos/"+td.ID+"/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(alice)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
