package store

import (
	"context"
	"time"
)

// Store is the composite interface for all data access.
type Store interface {
	AccountStore
	SessionStore
	CommandStore
	Tx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}

// AccountStore manages sign-in accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	UpdateAccountCredentials(ctx context.Context, id string, data []byte) error
}

// SessionStore manages signed-in sessions. Implemented by SQLite and Redis.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	RevokeSession(ctx context.Context, id string) error
	ListActiveSessions(ctx context.Context) ([]Session, error)
	CleanupExpiredSessions(ctx context.Context, before time.Time) (int, error)
}

// CommandStore persists the command audit trail.
type CommandStore interface {
	InsertCommandRecord(ctx context.Context, r *CommandRecord) error
	QueryCommandRecords(ctx context.Context, f CommandFilter) ([]CommandRecord, int, error)
	CountCommandRecords(ctx context.Context, resource string) (map[string]int, error)
}
