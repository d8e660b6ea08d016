package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations applies every *.up.sql file in dir in lexical order.
// Statements that already ran are detected by the "already exists" error and
// skipped, so the runner is safe to call on every startup.
func RunMigrations(pool *pgxpool.Pool, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to glob migration files: %w", err)
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := pool.Exec(context.Background(), string(content)); err != nil {
			if strings.Contains(err.Error(), "already exists") {
				log.Printf("Migration %s already applied, skipping: %v", file, err)
				continue
			}
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
		applied++
	}

	log.Printf("Migrations done: %d applied, %d total", applied, len(files))
	return nil
}
