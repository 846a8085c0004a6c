package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default remote collections.
const (
	DefaultProductsURL  = "https://fakestoreapi.com/products"
	DefaultCartsURL     = "https://fakestoreapi.com/carts"
	DefaultUsersURL     = "https://jsonplaceholder.typicode.com/users"
	DefaultUsersListURL = "https://fakestoreapi.com/users"
)

// FileConfig represents the top-level storeadmin.yaml structure.
type FileConfig struct {
	Resources ResourcesConfig `yaml:"resources"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Identity  IdentityConfig  `yaml:"identity"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ResourcesConfig locates the three remote collections.
type ResourcesConfig struct {
	Products ResourceConfig `yaml:"products"`
	Carts    ResourceConfig `yaml:"carts"`
	Users    ResourceConfig `yaml:"users"`
}

// ResourceConfig is one remote collection. Commands go to BaseURL; the
// collection is read from ListURL when set.
type ResourceConfig struct {
	BaseURL string `yaml:"base_url"`
	ListURL string `yaml:"list_url,omitempty"`
}

// DispatchConfig controls command ordering and request limits.
type DispatchConfig struct {
	Mode               string `yaml:"mode"` // "serial" (default) or "concurrent"
	RequestTimeoutSec  int    `yaml:"request_timeout_sec"`
	RejectDuplicateIDs bool   `yaml:"reject_duplicate_ids"`
	LoadOnStart        *bool  `yaml:"load_on_start,omitempty"`
}

// RequestTimeout returns the HTTP client timeout.
func (d DispatchConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutSec) * time.Second
}

// ShouldLoadOnStart reports whether serve refreshes every collection at
// startup. Defaults to true.
func (d DispatchConfig) ShouldLoadOnStart() bool {
	return d.LoadOnStart == nil || *d.LoadOnStart
}

// IdentityConfig configures sign-in.
type IdentityConfig struct {
	Enabled        bool         `yaml:"enabled"`
	RequireSession bool         `yaml:"require_session"`
	SessionBackend string       `yaml:"session_backend"` // "sqlite" (default) or "redis"
	SessionTTLMin  int          `yaml:"session_ttl_min"`
	Redis          RedisConfig  `yaml:"redis"`
	Google         GoogleConfig `yaml:"google"`
}

// SessionTTL returns how long a session stays valid.
func (i IdentityConfig) SessionTTL() time.Duration {
	return time.Duration(i.SessionTTLMin) * time.Minute
}

// RedisConfig is used when sessions live in Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password,omitempty"`
	Prefix   string `yaml:"prefix"`
}

// GoogleConfig enables Google sign-in when ClientID is set. The client
// secret is read from the environment, never from the file.
type GoogleConfig struct {
	ClientID    string   `yaml:"client_id"`
	RedirectURL string   `yaml:"redirect_url,omitempty"`
	AuthURL     string   `yaml:"auth_url,omitempty"`
	TokenURL    string   `yaml:"token_url,omitempty"`
	UserInfoURL string   `yaml:"userinfo_url,omitempty"`
	Scopes      []string `yaml:"scopes,omitempty"`
}

// Enabled reports whether Google sign-in is configured.
func (g GoogleConfig) Enabled() bool { return g.ClientID != "" }

// TelemetryConfig selects the trace exporter.
type TelemetryConfig struct {
	Traces       string `yaml:"traces"` // "none" (default), "stdout" or "otlp"
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns a config with every default filled in.
func Default() *FileConfig {
	cfg := &FileConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadFile reads, parses, and validates a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path if it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*FileConfig, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return LoadFile(path)
}

// Parse parses and validates YAML config data. Missing fields take their
// defaults.
func Parse(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *FileConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyDefaults(cfg *FileConfig) {
	r := &cfg.Resources
	if r.Products.BaseURL == "" {
		r.Products.BaseURL = DefaultProductsURL
	}
	if r.Carts.BaseURL == "" {
		r.Carts.BaseURL = DefaultCartsURL
	}
	if r.Users.BaseURL == "" {
		r.Users.BaseURL = DefaultUsersURL
		if r.Users.ListURL == "" {
			r.Users.ListURL = DefaultUsersListURL
		}
	}

	if cfg.Dispatch.Mode == "" {
		cfg.Dispatch.Mode = "serial"
	}
	if cfg.Dispatch.RequestTimeoutSec == 0 {
		cfg.Dispatch.RequestTimeoutSec = 30
	}

	id := &cfg.Identity
	if id.SessionBackend == "" {
		id.SessionBackend = "sqlite"
	}
	if id.SessionTTLMin == 0 {
		id.SessionTTLMin = 12 * 60
	}
	if id.Redis.Addr == "" {
		id.Redis.Addr = "127.0.0.1:6379"
	}
	if id.Redis.Prefix == "" {
		id.Redis.Prefix = "storeadmin:session:"
	}
	g := &id.Google
	if g.AuthURL == "" {
		g.AuthURL = "https://accounts.google.com/o/oauth2/v2/auth"
	}
	if g.TokenURL == "" {
		g.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if g.UserInfoURL == "" {
		g.UserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	}
	if len(g.Scopes) == 0 {
		g.Scopes = []string{"openid", "email", "profile"}
	}

	if cfg.Telemetry.Traces == "" {
		cfg.Telemetry.Traces = "none"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storeadmin"
	}
}
