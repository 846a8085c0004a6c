package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/revittco/storeadmin/internal/dashboard"
	"github.com/revittco/storeadmin/internal/store/sqlite"
)

func cmdStatus() error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlite.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	accounts, err := db.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	sessions, err := db.ListActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	fmt.Printf("storeadmin status (db: %s)\n", cfg.DBDSN)
	fmt.Printf("  Accounts:        %d\n", len(accounts))
	fmt.Printf("  Active sessions: %d (sqlite backend)\n", len(sessions))
	fmt.Println("  Commands:")
	for _, name := range dashboard.Names {
		counts, err := db.CountCommandRecords(ctx, name)
		if err != nil {
			return fmt.Errorf("count %s commands: %w", name, err)
		}
		fmt.Printf("    %-9s %s\n", name, formatCounts(counts))
	}

	return nil
}

// formatCounts renders status counts as "failed=1 succeeded=4".
func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", k, counts[k])
	}
	return out
}
