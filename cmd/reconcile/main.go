// ABOUTME: Maintenance utility that rebuilds postman give/take counters from interactions
// ABOUTME: Provides dry-run and backup capabilities for safe repair
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/relationcraft/postman/config"
	"github.com/relationcraft/postman/db"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: ~/.config/postman/config.toml)")
	envFile := flag.String("env-file", ".env", "Dotenv file with POSTMAN_* overrides")
	dbPath := flag.String("db-path", "", "Database path (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Show drifted counters without fixing them")
	backup := flag.Bool("backup", true, "Create a backup before fixing counters")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	if err := reconcile(context.Background(), cfg, *dryRun, *backup); err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}
}

func reconcile(ctx context.Context, cfg *config.Config, dryRun, backup bool) error {
	dbPath := cfg.DatabasePath
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if backup && !dryRun {
		info, err := db.Backup(ctx, database, cfg.BackupDir, time.Now())
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		log.Printf("Backup created: %s", info.Path)
	}

	drift, err := db.ReconcileCounters(ctx, database, dryRun)
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		log.Println("All counters match their interactions")
		return nil
	}

	verb := "Fixed"
	if dryRun {
		verb = "[DRY RUN] Would fix"
	}
	for _, d := range drift {
		log.Printf("%s %s (%s): give %d -> %d, take %d -> %d",
			verb, d.Name, d.PostmanID.String()[:8], d.StoredGive, d.ActualGive, d.StoredTake, d.ActualTake)
	}
	log.Printf("%d postmen with drifted counters", len(drift))
	return nil
}
