package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError holds all validation failures for a config file.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Errors, "; "))
}

// validate checks the parsed config for correctness.
func validate(cfg *FileConfig) error {
	var errs []string

	resources := []struct {
		name string
		rc   ResourceConfig
	}{
		{"products", cfg.Resources.Products},
		{"carts", cfg.Resources.Carts},
		{"users", cfg.Resources.Users},
	}
	for _, r := range resources {
		if err := validateURL(r.rc.BaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("resources.%s.base_url: %v", r.name, err))
		}
		if r.rc.ListURL != "" {
			if err := validateURL(r.rc.ListURL); err != nil {
				errs = append(errs, fmt.Sprintf("resources.%s.list_url: %v", r.name, err))
			}
		}
	}

	if err := validateMode(cfg.Dispatch.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("dispatch.mode: %v", err))
	}
	if cfg.Dispatch.RequestTimeoutSec < 0 {
		errs = append(errs, "dispatch.request_timeout_sec: must not be negative")
	}

	if err := validateSessionBackend(cfg.Identity.SessionBackend); err != nil {
		errs = append(errs, fmt.Sprintf("identity.session_backend: %v", err))
	}
	if cfg.Identity.SessionTTLMin < 0 {
		errs = append(errs, "identity.session_ttl_min: must not be negative")
	}
	if cfg.Identity.RequireSession && !cfg.Identity.Enabled {
		errs = append(errs, "identity.require_session: requires identity.enabled")
	}
	if g := cfg.Identity.Google; g.Enabled() {
		endpoints := [][2]string{
			{"auth_url", g.AuthURL},
			{"token_url", g.TokenURL},
			{"userinfo_url", g.UserInfoURL},
		}
		for _, ep := range endpoints {
			if err := validateURL(ep[1]); err != nil {
				errs = append(errs, fmt.Sprintf("identity.google.%s: %v", ep[0], err))
			}
		}
	}

	if err := validateTraces(cfg.Telemetry.Traces); err != nil {
		errs = append(errs, fmt.Sprintf("telemetry.traces: %v", err))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q (scheme must be http or https)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q (missing host)", raw)
	}
	return nil
}

func validateMode(m string) error {
	switch m {
	case "serial", "concurrent":
		return nil
	default:
		return fmt.Errorf("invalid mode %q (must be serial or concurrent)", m)
	}
}

func validateSessionBackend(b string) error {
	switch b {
	case "sqlite", "redis":
		return nil
	default:
		return fmt.Errorf("invalid backend %q (must be sqlite or redis)", b)
	}
}

func validateTraces(t string) error {
	switch t {
	case "none", "stdout", "otlp":
		return nil
	default:
		return fmt.Errorf("invalid exporter %q (must be none, stdout, or otlp)", t)
	}
}
