package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one versioned schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationsRunner applies the embedded .up.sql files in version order
type MigrationsRunner struct {
	db         *sql.DB
	migrations []Migration
	logger     *log.Logger
}

// NewMigrationsRunner creates a runner with all embedded migrations loaded
func NewMigrationsRunner(db *sql.DB) (*MigrationsRunner, error) {
	runner := &MigrationsRunner{
		db:     db,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}

	migrations, err := loadMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	runner.migrations = migrations

	return runner, nil
}

// DisableLogging silences the runner, used by tests
func (r *MigrationsRunner) DisableLogging() {
	r.logger.SetOutput(io.Discard)
}

// EnableLogging restores logging to stderr
func (r *MigrationsRunner) EnableLogging() {
	r.logger.SetOutput(os.Stderr)
}

// loadMigrations parses 000001_name.up.sql files from the embedded sql directory
func loadMigrations() ([]Migration, error) {
	entries, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(filename, ".up.sql") {
			continue
		}

		prefix, rest, ok := strings.Cut(filename, "_")
		if !ok {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(prefix, "%d", &version); err != nil {
			log.Printf("⚠ Skipping invalid migration file: %s", filename)
			continue
		}

		content, err := migrationFiles.ReadFile("sql/" + filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(rest, ".up.sql"),
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func (r *MigrationsRunner) createMigrationsTable(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )
    `
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *MigrationsRunner) getAppliedMigrations(ctx context.Context) (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// Run applies every pending migration, each in its own transaction
func (r *MigrationsRunner) Run(ctx context.Context) error {
	if err := r.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending := 0
	for _, m := range r.migrations {
		if !applied[m.Version] {
			pending++
		}
	}
	if pending == 0 {
		r.logger.Println("No pending migrations")
		return nil
	}

	r.logger.Printf("Found %d pending migration(s)", pending)

	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return err
		}
		r.logger.Printf("✓ Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}

func (r *MigrationsRunner) apply(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)",
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
