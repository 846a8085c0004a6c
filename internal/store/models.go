package store

import (
	"encoding/json"
	"time"
)

// Account is a person who can sign in to the dashboard.
type Account struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	DisplayName          string     `json:"display_name"`
	Provider             string     `json:"provider"` // "password" or "google"
	PasswordHash         string     `json:"-"`
	EncryptedCredentials []byte     `json:"-"`
	LastSignInAt         *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Session is one sign-in of an account.
type Session struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id"`
	Provider  string     `json:"provider"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the session is usable at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// CommandRecord is one finished create, update, delete or refresh.
type CommandRecord struct {
	ID              string          `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Token           string          `json:"token"`
	Resource        string          `json:"resource"`
	Op              string          `json:"op"`
	EntityID        int             `json:"entity_id,omitempty"`
	Actor           string          `json:"actor,omitempty"`
	PayloadRedacted json.RawMessage `json:"payload_redacted,omitempty"`
	Status          string          `json:"status"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	LatencyMs       int             `json:"latency_ms"`
}

// CommandFilter specifies query parameters for listing command records.
type CommandFilter struct {
	Resource *string    `json:"resource,omitempty"`
	Op       *string    `json:"op,omitempty"`
	Status   *string    `json:"status,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}
