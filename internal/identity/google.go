package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/revittco/storeadmin/internal/store"
)

// GoogleRefreshTokenKey names the per-account secret holding Google's
// refresh token.
const GoogleRefreshTokenKey = "google_refresh_token"

// GoogleOptions configures the Google authorization-code flow.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	HTTPClient   *http.Client
}

type googleFlow struct {
	opts   GoogleOptions
	states *stateStore
	client *http.Client
}

func newGoogleFlow(o GoogleOptions) *googleFlow {
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &googleFlow{opts: o, states: newStateStore(10 * time.Minute), client: client}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleAuthURL starts a Google sign-in and returns the URL to send the
// browser to.
func (s *Service) GoogleAuthURL(_ context.Context) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}
	g := s.google

	verifier, err := newCodeVerifier()
	if err != nil {
		return "", fmt.Errorf("generate pkce verifier: %w", err)
	}
	state, err := g.states.create(verifier)
	if err != nil {
		return "", fmt.Errorf("create oauth state: %w", err)
	}

	u, err := parseOAuthURL(g.opts.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorize url: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", g.opts.ClientID)
	q.Set("redirect_uri", g.opts.RedirectURL)
	q.Set("state", state)
	q.Set("access_type", "offline")
	if len(g.opts.Scopes) > 0 {
		q.Set("scope", strings.Join(g.opts.Scopes, " "))
	}
	q.Set("code_challenge", codeChallenge(verifier))
	q.Set("code_challenge_method", "S256")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CompleteGoogle finishes a Google sign-in: it checks state, exchanges the
// code, reads the profile and opens a session. The profile email must be
// verified. The account is created on first sign-in; an existing account
// that signs in with a password is refused with ErrAccountNotLinked.
func (s *Service) CompleteGoogle(ctx context.Context, state, code string) (*Principal, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	g := s.google

	verifier, ok := g.states.consume(state)
	if !ok {
		return nil, ErrInvalidState
	}
	tr, err := g.exchangeCode(ctx, code, verifier)
	if err != nil {
		return nil, err
	}
	user, err := g.userInfo(ctx, tr.AccessToken)
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, errors.New("google profile has no email")
	}
	if !user.EmailVerified {
		return nil, ErrEmailUnverified
	}

	kind := EventSignedIn
	acct, err := s.accounts.GetAccountByEmail(ctx, user.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		acct = &store.Account{Email: user.Email, DisplayName: user.Name, Provider: "google"}
		if acct.DisplayName == "" {
			acct.DisplayName = user.Email
		}
		if err := s.accounts.CreateAccount(ctx, acct); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
		kind = EventSignedUp
	case err != nil:
		return nil, fmt.Errorf("get account: %w", err)
	case acct.Provider != "google":
		// Password accounts are never merged into a Google login.
		s.logger.Warn("google sign-in refused for password account", "account_id", acct.ID)
		return nil, ErrAccountNotLinked
	}

	if tr.RefreshToken != "" && s.secrets != nil {
		if err := s.secrets.Put(ctx, acct.ID, GoogleRefreshTokenKey, []byte(tr.RefreshToken)); err != nil {
			s.logger.Warn("store google refresh token", "account_id", acct.ID, "error", err)
		}
	}
	return s.startSession(ctx, acct, kind)
}

func (g *googleFlow) exchangeCode(ctx context.Context, code, verifier string) (*tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {g.opts.RedirectURL},
		"client_id":     {g.opts.ClientID},
		"code_verifier": {verifier},
	}
	if g.opts.ClientSecret != "" {
		form.Set("client_secret", g.opts.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tr tokenResponse
	if err := g.doJSON(req, "token", &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	return &tr, nil
}

func (g *googleFlow) userInfo(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	var u googleUser
	if err := g.doJSON(req, "userinfo", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (g *googleFlow) doJSON(req *http.Request, what string, out any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", what, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s endpoint returned %d: %s", what, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", what, err)
	}
	return nil
}

func parseOAuthURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url must include host")
	}
	return u, nil
}
