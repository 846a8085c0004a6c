package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/revittco/storeadmin/internal/cache"
	"github.com/revittco/storeadmin/internal/catalog"
	"github.com/revittco/storeadmin/internal/secrets"
	"github.com/revittco/storeadmin/internal/store"
)

const minPasswordLen = 6

// Principal is the restored auth state: who is signed in and with which
// session.
type Principal struct {
	Token   string        `json:"token,omitempty"`
	Account store.Account `json:"account"`
	Session store.Session `json:"session"`
}

// Config holds everything the Service needs.
type Config struct {
	Accounts   store.AccountStore
	Sessions   store.SessionStore
	SigningKey []byte
	SessionTTL time.Duration

	// Optional.
	Secrets  *secrets.Manager
	Google   *GoogleOptions
	CacheTTL time.Duration
	Logger   *slog.Logger

	// SharedSessions marks a session store that other processes write to.
	// Restore then reads the store on every call instead of caching, so a
	// sign-out anywhere takes effect immediately.
	SharedSessions bool
}

// Service signs accounts up, in and out, and restores sessions from tokens.
type Service struct {
	accounts store.AccountStore
	sessions store.SessionStore
	signer   *signer
	ttl      time.Duration
	secrets  *secrets.Manager
	google   *googleFlow
	cache    *cache.Cache[*Principal]
	cacheTTL time.Duration
	shared   bool
	bus      *bus
	logger   *slog.Logger
	now      func() time.Time
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Accounts == nil || cfg.Sessions == nil {
		return nil, errors.New("identity: account and session stores are required")
	}
	sg, err := newSigner(cfg.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Service{
		accounts: cfg.Accounts,
		sessions: cfg.Sessions,
		signer:   sg,
		ttl:      cfg.SessionTTL,
		secrets:  cfg.Secrets,
		cache:    cache.New[*Principal](1000, cfg.CacheTTL),
		cacheTTL: cfg.CacheTTL,
		shared:   cfg.SharedSessions,
		bus:      newBus(),
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if cfg.Google != nil {
		s.google = newGoogleFlow(*cfg.Google)
	}
	return s, nil
}

// Subscribe returns a channel of auth-state changes.
func (s *Service) Subscribe() <-chan Event { return s.bus.subscribe() }

// Unsubscribe closes a channel returned by Subscribe.
func (s *Service) Unsubscribe(ch <-chan Event) { s.bus.unsubscribe(ch) }

// CacheStats reports session cache statistics.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// SignUp creates a password account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, confirm string) (*Principal, error) {
	email = strings.TrimSpace(email)
	if !catalog.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acct := &store.Account{
		Email:        email,
		DisplayName:  email,
		Provider:     "password",
		PasswordHash: string(hash),
	}
	if err := s.accounts.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return s.startSession(ctx, acct, EventSignedUp)
}

// SignIn checks a password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	acct, err := s.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if acct.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, acct, EventSignedIn)
}

// SignOut revokes the session behind token. Signing out an ended session
// is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.signer.parse(token)
	if err != nil {
		return err
	}
	s.cache.Invalidate(claims.SessionID)

	if err := s.sessions.RevokeSession(ctx, claims.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("signed out", "account_id", claims.Subject, "session_id", claims.SessionID)
	s.bus.publish(Event{Kind: EventSignedOut, AccountID: claims.Subject, Email: claims.Email, At: s.now().UTC()})
	return nil
}

// Restore returns the principal for token when its session is still active.
func (s *Service) Restore(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.signer.parse(token)
	if err != nil {
		return nil, err
	}

	var p *Principal
	if s.shared {
		p, _, err = s.loadPrincipal(ctx, claims)
	} else {
		p, err = s.cache.GetOrLoad(claims.SessionID, func() (*Principal, time.Duration, error) {
			return s.loadPrincipal(ctx, claims)
		})
	}
	if err != nil {
		return nil, err
	}
	if !p.Session.Active(s.now()) {
		s.cache.Invalidate(claims.SessionID)
		return nil, ErrSessionEnded
	}
	out := *p
	out.Token = token
	return &out, nil
}

func (s *Service) loadPrincipal(ctx context.Context, c *Claims) (*Principal, time.Duration, error) {
	sess, err := s.sessions.GetSession(ctx, c.SessionID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrExpired) {
		return nil, 0, ErrSessionEnded
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get session: %w", err)
	}
	if !sess.Active(s.now()) || sess.AccountID != c.Subject {
		return nil, 0, ErrSessionEnded
	}
	acct, err := s.accounts.GetAccount(ctx, sess.AccountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, ErrSessionEnded
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get account: %w", err)
	}

	// Never cache past the session's own expiry.
	ttl := time.Duration(0)
	if left := sess.ExpiresAt.Sub(s.now()); left < s.cacheTTL {
		ttl = left
	}
	return &Principal{Account: *acct, Session: *sess}, ttl, nil
}

func (s *Service) startSession(ctx context.Context, acct *store.Account, kind EventKind) (*Principal, error) {
	now := s.now().UTC()
	sess := &store.Session{
		ID:        uuid.NewString(),
		AccountID: acct.ID,
		Provider:  acct.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	acct.LastSignInAt = &now
	if err := s.accounts.UpdateAccount(ctx, acct); err != nil {
		s.logger.Warn("record sign-in time", "account_id", acct.ID, "error", err)
	}

	token, err := s.signer.issue(acct.ID, acct.Email, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info(string(kind), "account_id", acct.ID, "provider", acct.Provider, "session_id", sess.ID)
	s.bus.publish(Event{Kind: kind, AccountID: acct.ID, Email: acct.Email, Provider: acct.Provider, At: now})
	return &Principal{Token: token, Account: *acct, Session: *sess}, nil
}
