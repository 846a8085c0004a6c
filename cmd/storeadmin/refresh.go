package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/revittco/storeadmin/internal/audit"
	"github.com/revittco/storeadmin/internal/config"
	"github.com/revittco/storeadmin/internal/dashboard"
	"github.com/revittco/storeadmin/internal/resource"
	"github.com/revittco/storeadmin/internal/store/sqlite"
)

// cmdRefresh fetches one collection and prints its state as JSON.
func cmdRefresh(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: storeadmin refresh <%s|%s|%s>", dashboard.Products, dashboard.Carts, dashboard.Users)
	}
	name := args[0]

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	fileCfg, err := config.LoadOrDefault(cfg.ConfigFile)
	if err != nil {
		return err
	}

	db, err := sqlite.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	dash, err := dashboard.New(fileCfg,
		dashboard.WithLogger(logger),
		dashboard.WithRecorder(audit.NewLogger(db, audit.WithLogger(logger))),
	)
	if err != nil {
		return err
	}

	phase, err := dash.Refresh(ctx, name)
	if phase != resource.PhaseSucceeded {
		if err == nil {
			err = fmt.Errorf("refresh ended %s", phase)
		}
		return fmt.Errorf("refresh %s: %w", name, err)
	}

	var state any
	switch name {
	case dashboard.Products:
		state = dash.Products.Store().Snapshot()
	case dashboard.Carts:
		state = dash.Carts.Store().Snapshot()
	case dashboard.Users:
		state = dash.Users.Store().Snapshot()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}
