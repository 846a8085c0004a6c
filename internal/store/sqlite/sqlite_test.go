package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/revittco/storeadmin/internal/store"
	"github.com/revittco/storeadmin/internal/store/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(context.Background(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("new test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createAccount(t *testing.T, db *sqlite.DB, email string) *store.Account {
	t.Helper()
	a := &store.Account{Email: email, DisplayName: "Test", Provider: "password", PasswordHash: "hash"}
	if err := db.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/reopen.db"

	db, err := sqlite.New(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.CreateAccount(ctx, &store.Account{Email: "a@b.co", Provider: "password"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	db.Close()

	db, err = sqlite.New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	list, err := db.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
}

func TestAccountCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := createAccount(t, db, "Jane@Example.com")
	if a.ID == "" {
		t.Fatal("expected ID to be set")
	}

	got, err := db.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "Jane@Example.com" || got.PasswordHash != "hash" {
		t.Fatalf("account = %+v", got)
	}

	// Email lookup ignores case.
	got, err = db.GetAccountByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != a.ID {
		t.Fatal("id mismatch")
	}

	now := time.Now().UTC()
	got.DisplayName = "Jane"
	got.LastSignInAt = &now
	if err := db.UpdateAccount(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = db.GetAccount(ctx, a.ID)
	if got.DisplayName != "Jane" || got.LastSignInAt == nil {
		t.Fatalf("after update = %+v", got)
	}

	if err := db.UpdateAccountCredentials(ctx, a.ID, []byte("sealed")); err != nil {
		t.Fatalf("update credentials: %v", err)
	}
	got, _ = db.GetAccount(ctx, a.ID)
	if string(got.EncryptedCredentials) != "sealed" {
		t.Fatalf("credentials = %q", got.EncryptedCredentials)
	}

	if _, err := db.GetAccount(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := db.UpdateAccountCredentials(ctx, "missing", nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAccountDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createAccount(t, db, "dup@example.com")

	err := db.CreateAccount(context.Background(), &store.Account{Email: "DUP@example.com", Provider: "password"})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createAccount(t, db, "s@example.com")

	s := &store.Session{AccountID: a.ID, Provider: "password", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccountID != a.ID || !got.Active(time.Now()) {
		t.Fatalf("session = %+v", got)
	}

	active, err := db.ListActiveSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}

	if err := db.RevokeSession(ctx, s.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := db.RevokeSession(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second revoke err = %v, want ErrNotFound", err)
	}
	got, _ = db.GetSession(ctx, s.ID)
	if got.RevokedAt == nil || got.Active(time.Now()) {
		t.Fatalf("revoked session still active: %+v", got)
	}

	if _, err := db.GetSession(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createAccount(t, db, "c@example.com")
	now := time.Now().UTC()

	old := &store.Session{AccountID: a.ID, Provider: "password", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	fresh := &store.Session{AccountID: a.ID, Provider: "password", ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*store.Session{old, fresh} {
		if err := db.CreateSession(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := db.CleanupExpiredSessions(ctx, now)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleaned = %d, want 1", n)
	}
	if _, err := db.GetSession(ctx, fresh.ID); err != nil {
		t.Fatalf("fresh session removed: %v", err)
	}
}

func TestCommandRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Minute)

	recs := []store.CommandRecord{
		{Resource: "products", Op: "create", Status: "succeeded", EntityID: 21, PayloadRedacted: json.RawMessage(`{"title":"Lamp"}`)},
		{Resource: "products", Op: "delete", Status: "failed", EntityID: 3, ErrorMessage: "request failed with status code 500"},
		{Resource: "carts", Op: "update", Status: "succeeded", EntityID: 1},
	}
	for i := range recs {
		recs[i].Timestamp = base.Add(time.Duration(i) * time.Second)
		if err := db.InsertCommandRecord(ctx, &recs[i]); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	products := "products"
	got, total, err := db.QueryCommandRecords(ctx, store.CommandFilter{Resource: &products})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", total, len(got))
	}
	if got[0].Op != "delete" {
		t.Fatalf("expected newest first, got %s", got[0].Op)
	}
	if string(got[1].PayloadRedacted) != `{"title":"Lamp"}` {
		t.Fatalf("payload = %s", got[1].PayloadRedacted)
	}

	page, total, err := db.QueryCommandRecords(ctx, store.CommandFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("query page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].Op != "delete" {
		t.Fatalf("page = %+v, total = %d", page, total)
	}

	counts, err := db.CountCommandRecords(ctx, "")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["succeeded"] != 2 || counts["failed"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestTxRollback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := db.Tx(ctx, func(tx store.Store) error {
		if err := tx.CreateAccount(ctx, &store.Account{Email: "tx@example.com", Provider: "password"}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := db.GetAccountByEmail(ctx, "tx@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rolled back account visible: %v", err)
	}
}
