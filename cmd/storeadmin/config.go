package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process settings loaded from environment variables. Domain
// settings live in the YAML file named by ConfigFile.
type Config struct {
	HTTPAddr           string     // "127.0.0.1:8080"
	DBDSN              string     // sqlite file path
	AgeKeyPath         string     // path to age identity file
	ConfigFile         string     // path to storeadmin.yaml
	LogLevel           slog.Level // slog level
	ExternalURL        string     // external URL for OAuth callbacks
	JWTSecret          string     // session token signing key
	GoogleClientSecret string
}

// defaultDataPath returns ~/.storeadmin/<filename>, falling back to
// a CWD-relative path if the home directory can't be resolved.
func defaultDataPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	return filepath.Join(home, ".storeadmin", filename)
}

func loadConfig() (*Config, error) {
	// A .env file pre-populates the environment; real variables win.
	envFile := envOr("STOREADMIN_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := &Config{
		HTTPAddr:           envOr("STOREADMIN_HTTP_ADDR", "127.0.0.1:8080"),
		DBDSN:              envOr("STOREADMIN_DB_DSN", defaultDataPath("storeadmin.db")),
		AgeKeyPath:         envOr("STOREADMIN_AGE_KEY", ""),
		ConfigFile:         envOr("STOREADMIN_CONFIG", defaultDataPath("storeadmin.yaml")),
		LogLevel:           parseLogLevel(envOr("STOREADMIN_LOG_LEVEL", "info")),
		ExternalURL:        envOr("STOREADMIN_EXTERNAL_URL", ""),
		JWTSecret:          envOr("STOREADMIN_JWT_SECRET", ""),
		GoogleClientSecret: envOr("STOREADMIN_GOOGLE_CLIENT_SECRET", ""),
	}
	if cfg.AgeKeyPath == "" {
		cfg.AgeKeyPath = cfg.DBDSN + ".age"
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// signingKey returns the configured JWT secret, or the one persisted next to
// the database, generating it on first use.
func signingKey(cfg *Config) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	path := cfg.DBDSN + ".jwt"
	data, err := os.ReadFile(path)
	if err == nil {
		return []byte(strings.TrimSpace(string(data))), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	key := hex.EncodeToString(b)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write signing key: %w", err)
	}
	return []byte(key), nil
}
