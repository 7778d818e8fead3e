// Package main seeds the catalog database with the default categories.
//
// Usage:
//
//	DATA_PATH=~/AWBooks go run ./cmd/seed
//	go run ./cmd/seed -data-path /var/lib/awbooks
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/awbooks/awbooks-server/internal/config"
	"github.com/awbooks/awbooks-server/internal/logger"
	"github.com/awbooks/awbooks-server/internal/service"
	"github.com/awbooks/awbooks-server/internal/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		log.WithError(err).Fatal("Failed to create data directory", "path", cfg.Data.BasePath)
	}

	dbPath := cfg.Data.DatabasePath()
	dbLog := log.WithField("path", dbPath)
	dbLog.Info("Opening database")

	st, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		dbLog.WithError(err).Fatal("Failed to open store")
	}
	defer st.Close()

	ctx := context.Background()

	created, err := service.SeedCategories(ctx, st, service.DefaultCategories)
	if err != nil {
		dbLog.WithError(err).Fatal("Failed to seed categories")
	}
	dbLog.Info("Categories seeded", "created", created, "already_present", len(service.DefaultCategories)-created)

	cats, err := st.ListCategories(ctx)
	if err != nil {
		dbLog.WithError(err).Fatal("Failed to list categories")
	}
	for _, c := range cats {
		fmt.Printf("  %-12s /tech/%s\n", c.Name, c.Slug)
	}
}
