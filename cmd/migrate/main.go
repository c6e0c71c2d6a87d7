// Command migrate runs schema operations for the forum store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"kasinoforum/internal/config"
	"kasinoforum/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|backfill>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// opened directly so Connect's implicit migration does not run first
	db, err := gorm.Open(postgres.Open(database.DSN(cfg)), database.GormConfig())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Prepare(db, cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	switch cmd {
	case "up":
		return migrate(ctx, db)
	case "backfill":
		return backfill(ctx, db)
	default:
		return usage()
	}
}

func migrate(ctx context.Context, db *gorm.DB) error {
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("schema migrated")
	return nil
}

func backfill(ctx context.Context, db *gorm.DB) error {
	result, err := database.Upgrade(ctx, db)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	log.Printf("backfill done: posts_created=%d pointers_repaired=%d column_dropped=%t", result.PostsCreated, result.PointersRepaired, result.ColumnDropped)
	return nil
}
