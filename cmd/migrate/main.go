package main

import (
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Standalone migration runner for environments where the server's
// auto-migrate is disabled.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <up|down> [migrations-path] [database-url]")
	}

	command := os.Args[1]
	migrationsPath := "./migrations"
	databaseURL := "sqlite3://./data/clientpulse.db"
	if len(os.Args) > 2 {
		migrationsPath = os.Args[2]
	}
	if len(os.Args) > 3 {
		databaseURL = os.Args[3]
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("An error occurred while migrating up: %v", err)
		}
		log.Println("Migrations applied successfully.")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("An error occurred while migrating down: %v", err)
		}
		log.Println("Migrations rolled back successfully.")
	default:
		log.Fatalf("Unknown command: %s. Use `up` or `down`.", command)
	}
}
