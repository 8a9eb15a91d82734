package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/config"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/postgres"
)

var errHelp = errors.New("help provided")

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up      - apply all pending migrations")
	fmt.Println("  migrate down    - roll back the latest migration")
	fmt.Println("  migrate status  - print the migration status")
}

func main() {
	logger := log.New(os.Stdout, "MIGRATE : ", log.LstdFlags|log.Lmicroseconds)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(os.Args[1], func(down bool) error {
		return postgres.Migrate(ctx, db, down)
	}, func() error {
		return postgres.MigrationStatus(ctx, db)
	}); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Printf("error: %s", err)
		}
		db.Close()
		os.Exit(1)
	}
	logger.Printf("%s: done", os.Args[1])
}

func run(command string, migrate func(down bool) error, status func() error) error {
	switch command {
	case "up":
		return migrate(false)
	case "down":
		return migrate(true)
	case "status":
		return status()
	default:
		printUsage()
		return errHelp
	}
}
