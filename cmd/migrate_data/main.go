package main

import (
	"context"
	"log"

	"ralph-xpert/internal/config"
	"ralph-xpert/internal/store"

	"gorm.io/gorm"
)

// Copies the JSON data files in DATA_DIR into the SQL database selected by
// STORAGE_DRIVER (sqlite or postgres). Records keep their ids, so running it
// twice only inserts what is new.
func main() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	// 1. Source: JSON files
	src, err := store.NewJSONStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open JSON data dir: %v", err)
	}
	log.Printf("Reading JSON data from %s", src.Dir())

	// 2. Destination: SQL database
	var db *gorm.DB
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err = store.OpenSQLite(cfg.DBPath)
		log.Printf("Destination: SQLite at %s", cfg.DBPath)
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Fatal("DATABASE_URL is required for the postgres driver")
		}
		db, err = store.OpenPostgres(cfg.DatabaseURL)
		log.Println("Destination: PostgreSQL")
	default:
		log.Fatalf("STORAGE_DRIVER must be %q or %q, got %q", config.DriverSQLite, config.DriverPostgres, cfg.StorageDriver)
	}
	if err != nil {
		log.Fatalf("Failed to connect to destination: %v", err)
	}

	dst, err := store.NewSQLStore(db, nil)
	if err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	defer dst.Close()

	contacts, err := src.ListContacts(ctx)
	if err != nil {
		log.Fatalf("Error reading contacts: %v", err)
	}
	messages, err := src.ListMessages(ctx)
	if err != nil {
		log.Fatalf("Error reading messages: %v", err)
	}
	admins, err := src.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Error reading admins: %v", err)
	}
	log.Printf("Found %d contacts, %d messages, %d admin accounts", len(contacts), len(messages), len(admins))

	inserted, err := dst.Import(ctx, contacts, messages, admins)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Migration completed! %d new rows inserted", inserted)
}
