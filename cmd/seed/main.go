// Command seed loads departments and users from an Excel workbook into the postgres directory.
// Usage: go run ./cmd/seed directory.xlsx
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"doctrack/internal/config"
	"doctrack/internal/repository/postgres"
	"doctrack/internal/seed"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: seed <workbook.xlsx>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Driver != "postgres" {
		return fmt.Errorf("seed writes to postgres, store driver is %q", cfg.Store.Driver)
	}

	dir, err := seed.ReadFile(os.Args[1])
	if err != nil {
		return err
	}
	log.Printf("workbook: %d departments, %d users", len(dir.Departments), len(dir.Users))

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := seed.Apply(context.Background(), dir, postgres.NewDepartmentRepo(db), postgres.NewUserRepo(db)); err != nil {
		return err
	}
	log.Println("directory seeded")
	return nil
}
