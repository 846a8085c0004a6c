package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Resources.Products.BaseURL != DefaultProductsURL {
		t.Fatalf("products url = %q", cfg.Resources.Products.BaseURL)
	}
	if cfg.Resources.Users.BaseURL != DefaultUsersURL || cfg.Resources.Users.ListURL != DefaultUsersListURL {
		t.Fatalf("users = %+v", cfg.Resources.Users)
	}
	if cfg.Dispatch.Mode != "serial" {
		t.Fatalf("mode = %q, want serial", cfg.Dispatch.Mode)
	}
	if cfg.Dispatch.RequestTimeout().Seconds() != 30 {
		t.Fatalf("timeout = %s", cfg.Dispatch.RequestTimeout())
	}
	if !cfg.Dispatch.ShouldLoadOnStart() {
		t.Fatal("expected load_on_start to default to true")
	}
	if cfg.Identity.SessionBackend != "sqlite" || cfg.Telemetry.Traces != "none" {
		t.Fatalf("identity = %+v, telemetry = %+v", cfg.Identity, cfg.Telemetry)
	}
}

func TestParseOverrides(t *testing.T) {
	data := `
resources:
  users:
    base_url: http://127.0.0.1:9000/users
dispatch:
  mode: concurrent
  request_timeout_sec: 5
  reject_duplicate_ids: true
  load_on_start: false
identity:
  enabled: true
  session_backend: redis
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Resources.Users.ListURL != "" {
		t.Fatalf("custom users base should not inherit the default list url, got %q", cfg.Resources.Users.ListURL)
	}
	if cfg.Dispatch.Mode != "concurrent" || cfg.Dispatch.RequestTimeoutSec != 5 || !cfg.Dispatch.RejectDuplicateIDs {
		t.Fatalf("dispatch = %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.ShouldLoadOnStart() {
		t.Fatal("expected load_on_start false")
	}
	if cfg.Identity.SessionBackend != "redis" {
		t.Fatalf("backend = %q", cfg.Identity.SessionBackend)
	}
}

func TestParseValidation(t *testing.T) {
	data := `
resources:
  products:
    base_url: ftp://example.com/products
  carts:
    list_url: not a url
dispatch:
  mode: parallel
identity:
  require_session: true
  session_backend: memcached
telemetry:
  traces: jaeger
`
	_, err := Parse([]byte(data))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	want := []string{
		"resources.products.base_url",
		"resources.carts.list_url",
		"dispatch.mode",
		"identity.session_backend",
		"identity.require_session",
		"telemetry.traces",
	}
	joined := strings.Join(verr.Errors, "\n")
	for _, w := range want {
		if !strings.Contains(joined, w) {
			t.Fatalf("missing %q in errors:\n%s", w, joined)
		}
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("dispatch: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault missing: %v", err)
	}
	if cfg.Resources.Carts.BaseURL != DefaultCartsURL {
		t.Fatalf("carts url = %q", cfg.Resources.Carts.BaseURL)
	}

	path := filepath.Join(dir, "storeadmin.yaml")
	out, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadOrDefault(path); err != nil {
		t.Fatalf("defaults should round-trip through the file: %v", err)
	}
}
