package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/revittco/storeadmin/internal/store"
)

// newTestStore runs against an in-process Redis. Set
// STOREADMIN_TEST_REDIS_ADDR to use a real server instead; the returned
// miniredis is nil then.
func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	if addr := os.Getenv("STOREADMIN_TEST_REDIS_ADDR"); addr != "" {
		s, err := New(context.Background(), Options{Addr: addr, Prefix: "storeadmin-test:" + uuid.NewString() + ":"})
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s, nil
	}

	mr := miniredis.RunT(t)
	s, err := New(context.Background(), Options{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &store.Session{AccountID: "acct", Provider: "password", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateSession(ctx, sess); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate create err = %v", err)
	}

	got, err := s.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccountID != "acct" {
		t.Fatalf("session = %+v", got)
	}

	active, err := s.ListActiveSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}

	if err := s.RevokeSession(ctx, sess.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got, _ = s.GetSession(ctx, sess.ID)
	if got.Active(time.Now()) {
		t.Fatal("revoked session still active")
	}
	if err := s.RevokeSession(ctx, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second revoke err = %v, want ErrNotFound", err)
	}
	if active, _ := s.ListActiveSessions(ctx); len(active) != 0 {
		t.Fatalf("active after revoke = %d, want 0", len(active))
	}
	if _, err := s.GetSession(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionKeyLayout(t *testing.T) {
	s, mr := newTestStore(t)
	if mr == nil {
		t.Skip("layout is checked against the in-process server")
	}
	ctx := context.Background()

	expires := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	sess := &store.Session{ID: "s-1", AccountID: "acct", Provider: "google", ExpiresAt: expires}
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}

	key := "storeadmin:session:s-1"
	if !mr.Exists(key) {
		t.Fatalf("keys = %v, want %s", mr.Keys(), key)
	}
	if ttl := mr.TTL(key); ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Fatalf("ttl = %v, want about 30m", ttl)
	}
	score, err := mr.ZScore("storeadmin:session:index", "s-1")
	if err != nil {
		t.Fatalf("index score: %v", err)
	}
	if int64(score) != expires.Unix() {
		t.Fatalf("index score = %v, want %d", score, expires.Unix())
	}

	// Revoking rewrites the value but keeps its expiry.
	if err := s.RevokeSession(ctx, "s-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := mr.TTL(key); ttl <= 29*time.Minute {
		t.Fatalf("ttl after revoke = %v", ttl)
	}
}

func TestSessionExpiryAndCleanup(t *testing.T) {
	s, mr := newTestStore(t)
	if mr == nil {
		t.Skip("needs the in-process server clock")
	}
	ctx := context.Background()

	short := &store.Session{AccountID: "a", ExpiresAt: time.Now().Add(time.Minute)}
	long := &store.Session{AccountID: "b", ExpiresAt: time.Now().Add(time.Hour)}
	for _, sess := range []*store.Session{short, long} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	mr.FastForward(2 * time.Minute)
	if _, err := s.GetSession(ctx, short.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired session err = %v, want ErrNotFound", err)
	}

	n, err := s.CleanupExpiredSessions(ctx, time.Now().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleaned = %d, want 1", n)
	}
	members, err := mr.ZMembers("storeadmin:session:index")
	if err != nil {
		t.Fatalf("index members: %v", err)
	}
	if len(members) != 1 || members[0] != long.ID {
		t.Fatalf("index = %v, want [%s]", members, long.ID)
	}
}

func TestRedisErrorsAreWrapped(t *testing.T) {
	s, mr := newTestStore(t)
	if mr == nil {
		t.Skip("needs the in-process server")
	}
	mr.SetError("ERR injected failure")
	_, err := s.GetSession(context.Background(), "x")
	if err == nil || errors.Is(err, store.ErrNotFound) || errors.Is(err, redis.Nil) {
		t.Fatalf("err = %v, want a wrapped server error", err)
	}
}

func TestCreateExpiredSession(t *testing.T) {
	s := NewWithClient(nil, "")
	err := s.CreateSession(context.Background(), &store.Session{ExpiresAt: time.Now().Add(-time.Minute)})
	if !errors.Is(err, store.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}
