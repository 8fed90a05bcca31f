package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hikaru/todo-list/backend/internal/store"
)

const (
	SessionTTL    = 24 * time.Hour
	SessionCookie = "session_id"
)

// Session is the record a live token resolves to.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore is the session lifecycle contract. Get returns
// store.ErrNotFound for unknown and expired tokens alike; Delete is
// idempotent.
type SessionStore interface {
	Create(ctx context.Context, userID, username string) (string, error)
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis under session:<token> with a
// TTL, so expiry needs no sweeper.
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

// Create mints an unguessable token and stores the session record under it.
func (s *RedisSessionStore) Create(ctx context.Context, userID, username string) (string, error) {
	token := uuid.New().String()
	sess := Session{
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().UTC().Add(SessionTTL),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, "session:"+token, payload, SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	val, err := s.rdb.Get(ctx, "session:"+token).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("session: %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, "session:"+token).Err()
}
