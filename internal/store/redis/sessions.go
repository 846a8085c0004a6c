// Package redis stores sessions in Redis for deployments that run more
// than one storeadmin process.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/revittco/storeadmin/internal/store"
)

// Compile-time check that SessionStore satisfies store.SessionStore.
var _ store.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session as a JSON value under prefix+id with a
// TTL matching its expiry, plus a sorted set of ids scored by expiry.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string // host:port or redis:// URL
	DB       int
	Password string
	Prefix   string
}

// New connects to Redis and pings it.
func New(ctx context.Context, o Options) (*SessionStore, error) {
	opts, err := redis.ParseURL(o.Addr)
	if err != nil {
		opts = &redis.Options{
			Addr:         o.Addr,
			DB:           o.DB,
			Password:     o.Password,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}
	s := NewWithClient(redis.NewClient(opts), o.Prefix)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(c *redis.Client, prefix string) *SessionStore {
	if prefix == "" {
		prefix = "storeadmin:session:"
	}
	return &SessionStore{client: c, prefix: prefix}
}

func (s *SessionStore) key(id string) string { return s.prefix + id }
func (s *SessionStore) indexKey() string     { return s.prefix + "index" }

// Ping checks connectivity.
func (s *SessionStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *SessionStore) Close() error { return s.client.Close() }

func (s *SessionStore) CreateSession(ctx context.Context, sess *store.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("create session: %w", store.ErrExpired)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(sess.ID), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	if !ok {
		return store.ErrAlreadyExists
	}
	return s.client.ZAdd(ctx, s.indexKey(), &redis.Z{
		Score:  float64(sess.ExpiresAt.Unix()),
		Member: sess.ID,
	}).Err()
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sess store.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// RevokeSession marks the session revoked and keeps it until it expires.
func (s *SessionStore) RevokeSession(ctx context.Context, id string) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.RevokedAt != nil {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	sess.RevokedAt = &now
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SessionStore) ListActiveSessions(ctx context.Context) ([]store.Session, error) {
	now := time.Now().UTC()
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange: %w", err)
	}

	var out []store.Session
	for _, id := range ids {
		sess, err := s.GetSession(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if sess.Active(now) {
			out = append(out, *sess)
		}
	}
	return out, nil
}

// CleanupExpiredSessions trims the expiry index; the values themselves
// expire through their TTL.
func (s *SessionStore) CleanupExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	n, err := s.client.ZRemRangeByScore(ctx, s.indexKey(),
		"-inf", "("+strconv.FormatInt(before.Unix(), 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zremrangebyscore: %w", err)
	}
	return int(n), nil
}
