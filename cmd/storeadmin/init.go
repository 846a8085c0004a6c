package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/revittco/storeadmin/internal/config"
	"github.com/revittco/storeadmin/internal/secrets"
	"github.com/revittco/storeadmin/internal/store/sqlite"
)

func cmdInit() error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlite.New(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	_ = db.Close()
	fmt.Printf("Database created: %s\n", cfg.DBDSN)

	enc, err := secrets.EnsureKeyFile(cfg.AgeKeyPath)
	if err != nil {
		return err
	}
	fmt.Printf("Age key: %s (recipient %s)\n", cfg.AgeKeyPath, enc.Recipient())

	if _, err := os.Stat(cfg.ConfigFile); os.IsNotExist(err) {
		data, err := config.Marshal(config.Default())
		if err != nil {
			return err
		}
		header := "# storeadmin configuration\n# Remote collections, dispatch ordering, sign-in and tracing.\n\n"
		if err := os.MkdirAll(filepath.Dir(cfg.ConfigFile), 0o700); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err := os.WriteFile(cfg.ConfigFile, append([]byte(header), data...), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Config file created: %s\n", cfg.ConfigFile)
	} else {
		fmt.Printf("Config file already exists: %s\n", cfg.ConfigFile)
	}

	return nil
}
