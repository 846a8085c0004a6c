package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/revittco/storeadmin/internal/api"
	"github.com/revittco/storeadmin/internal/audit"
	"github.com/revittco/storeadmin/internal/config"
	"github.com/revittco/storeadmin/internal/dashboard"
	"github.com/revittco/storeadmin/internal/identity"
	"github.com/revittco/storeadmin/internal/secrets"
	"github.com/revittco/storeadmin/internal/store"
	"github.com/revittco/storeadmin/internal/store/redis"
	"github.com/revittco/storeadmin/internal/store/sqlite"
	"github.com/revittco/storeadmin/internal/telemetry"
)

const sessionCleanupInterval = 10 * time.Minute

func cmdServe(args []string) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mode := applyFlags(cfg, args)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	fileCfg, err := config.LoadOrDefault(cfg.ConfigFile)
	if err != nil {
		return err
	}
	if mode != "" {
		fileCfg.Dispatch.Mode = mode
	}
	logger.Info("loaded config", "file", cfg.ConfigFile, "dispatch_mode", fileCfg.Dispatch.Mode)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:     fileCfg.Telemetry.Traces,
		OTLPEndpoint: fileCfg.Telemetry.OTLPEndpoint,
		ServiceName:  fileCfg.Telemetry.ServiceName,
		Version:      version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			slog.Warn("flush traces", "error", err)
		}
	}()

	db, err := sqlite.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	dash, err := dashboard.New(fileCfg,
		dashboard.WithLogger(logger),
		dashboard.WithRecorder(audit.NewLogger(db,
			audit.WithActor(identity.Actor),
			audit.WithLogger(logger),
		)),
	)
	if err != nil {
		return err
	}

	var (
		svc      *identity.Service
		sessions store.SessionStore
	)
	if fileCfg.Identity.Enabled {
		var closeSessions func() error
		svc, sessions, closeSessions, err = buildIdentity(ctx, cfg, fileCfg, db)
		if err != nil {
			return err
		}
		defer func() { _ = closeSessions() }()
	}

	router := api.NewRouter(api.RouterDeps{
		Dashboard:      dash,
		Version:        version,
		Identity:       svc,
		Commands:       db,
		Store:          db,
		RequireSession: fileCfg.Identity.RequireSession,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHTTP(ctx, cfg.HTTPAddr, router)
	})

	if fileCfg.Dispatch.ShouldLoadOnStart() {
		g.Go(func() error {
			// Load failures stay in their stores; the server keeps running.
			_ = dash.Load(ctx)
			return nil
		})
	}

	if sessions != nil {
		g.Go(func() error {
			cleanupSessions(ctx, sessions)
			return nil
		})
	}

	return g.Wait()
}

// applyFlags parses --addr=X and --mode=X flags from the args list. It
// returns the dispatch mode override, if any.
func applyFlags(cfg *Config, args []string) string {
	var mode string
	for _, arg := range args {
		if len(arg) > 7 && arg[:7] == "--addr=" {
			cfg.HTTPAddr = arg[7:]
		}
		if len(arg) > 7 && arg[:7] == "--mode=" {
			mode = arg[7:]
		}
	}
	return mode
}

func runHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// No WriteTimeout: SSE streams stay open.
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr, "url", httpURLFromAddr(addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down http server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		return err
	}
}

// buildIdentity wires the identity service to its session backend, the age
// encryptor and the optional Google flow.
func buildIdentity(
	ctx context.Context, cfg *Config, fileCfg *config.FileConfig, db *sqlite.DB,
) (*identity.Service, store.SessionStore, func() error, error) {
	idc := fileCfg.Identity

	var sessions store.SessionStore = db
	closeFn := func() error { return nil }
	if idc.SessionBackend == "redis" {
		rs, err := redis.New(ctx, redis.Options{
			Addr:     idc.Redis.Addr,
			DB:       idc.Redis.DB,
			Password: idc.Redis.Password,
			Prefix:   idc.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect session redis: %w", err)
		}
		sessions = rs
		closeFn = rs.Close
		slog.Info("sessions stored in redis", "addr", idc.Redis.Addr)
	}

	enc, err := secrets.EnsureKeyFile(cfg.AgeKeyPath)
	if err != nil {
		slog.Warn("failed to load age key, falling back to ephemeral",
			"path", cfg.AgeKeyPath, "error", err)
		if enc, err = secrets.NewEphemeralEncryptor(); err != nil {
			_ = closeFn()
			return nil, nil, nil, err
		}
	}

	key, err := signingKey(cfg)
	if err != nil {
		_ = closeFn()
		return nil, nil, nil, err
	}

	icfg := identity.Config{
		Accounts:   db,
		Sessions:   sessions,
		SigningKey: key,
		SessionTTL: idc.SessionTTL(),
		Secrets:    secrets.NewManager(db, enc),
		Logger:     slog.Default(),

		SharedSessions: idc.SessionBackend == "redis",
	}
	if g := idc.Google; g.Enabled() {
		icfg.Google = &identity.GoogleOptions{
			ClientID:     g.ClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  googleRedirectURL(g.RedirectURL, cfg.ExternalURL, cfg.HTTPAddr),
			AuthURL:      g.AuthURL,
			TokenURL:     g.TokenURL,
			UserInfoURL:  g.UserInfoURL,
			Scopes:       g.Scopes,
		}
	}

	svc, err := identity.NewService(icfg)
	if err != nil {
		_ = closeFn()
		return nil, nil, nil, err
	}
	return svc, sessions, closeFn, nil
}

func cleanupSessions(ctx context.Context, sessions store.SessionStore) {
	t := time.NewTicker(sessionCleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.CleanupExpiredSessions(ctx, time.Now().UTC())
			if err != nil {
				slog.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
