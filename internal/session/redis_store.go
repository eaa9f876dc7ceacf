// Package session provides a Redis-backed session repository.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/apperr"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/repository"
)

// RedisStore implements repository.SessionRepository on Redis. Each session
// is stored under its token with a TTL matching its expiry, and a set per user
// indexes the user's tokens.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ repository.SessionRepository = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "session:",
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + "user:" + userID
}

// record is the JSON form of a session; models.Session hides its token from JSON.
type record struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func toRecord(s *models.Session) record {
	return record{
		ID:        s.ID,
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r record) session() *models.Session {
	return &models.Session{
		ID:        r.ID,
		UserID:    r.UserID,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fail(op string, err error) error {
	return apperr.Repository(apperr.DomainSession, op, err)
}

func (s *RedisStore) write(ctx context.Context, session *models.Session) error {
	ttl := time.Until(models.FromMillis(session.ExpiresAt))
	if ttl <= 0 {
		// Already expired: nothing to keep.
		return s.client.Del(ctx, s.key(session.Token)).Err()
	}

	data, err := json.Marshal(toRecord(session))
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(session.Token), data, ttl)
	pipe.SAdd(ctx, s.userKey(session.UserID), session.Token)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) read(ctx context.Context, token string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return rec.session(), nil
}

func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	now := models.NowMillis()
	if session.ID == "" {
		session.ID = models.NewID()
	}
	session.CreatedAt = now
	session.UpdatedAt = now

	return fail("create session", s.write(ctx, session))
}

func (s *RedisStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.read(ctx, token)
	if err != nil {
		return nil, fail("find session", err)
	}
	return session, nil
}

// FindByUserID lists the live sessions of a user and prunes index entries whose session expired
func (s *RedisStore) FindByUserID(ctx context.Context, userID string) ([]models.Session, error) {
	tokens, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fail("list sessions", err)
	}

	sessions := []models.Session{}
	var stale []interface{}
	for _, token := range tokens {
		session, err := s.read(ctx, token)
		if err != nil {
			return nil, fail("list sessions", err)
		}
		if session == nil {
			stale = append(stale, token)
			continue
		}
		sessions = append(sessions, *session)
	}

	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.userKey(userID), stale...).Err(); err != nil {
			return nil, fail("list sessions", err)
		}
	}
	return sessions, nil
}

func (s *RedisStore) UpdateExpiry(ctx context.Context, token string, expiresAt int64) error {
	session, err := s.read(ctx, token)
	if err != nil {
		return fail("update session", err)
	}
	if session == nil {
		return apperr.NotFound("session", token)
	}

	session.ExpiresAt = expiresAt
	session.UpdatedAt = models.NowMillis()
	return fail("update session", s.write(ctx, session))
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	session, err := s.read(ctx, token)
	if err != nil {
		return fail("delete session", err)
	}
	if session == nil {
		return nil
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(token))
	pipe.SRem(ctx, s.userKey(session.UserID), token)
	_, err = pipe.Exec(ctx)
	return fail("delete session", err)
}

func (s *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	tokens, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fail("delete user sessions", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.key(token))
	}
	keys = append(keys, s.userKey(userID))

	return fail("delete user sessions", s.client.Del(ctx, keys...).Err())
}

// DeleteExpired is a no-op: Redis expires session keys on its own.
func (s *RedisStore) DeleteExpired(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
