package database

import (
	"context"
	"strings"
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("Expected loadMigrations to succeed: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("Expected at least one migration to be loaded")
	}

	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].Version >= migrations[i].Version {
			t.Errorf("Expected migrations to be sorted by version, but %d >= %d",
				migrations[i-1].Version, migrations[i].Version)
		}
	}

	for _, m := range migrations {
		if m.Version == 0 {
			t.Error("Expected migration version to be non-zero")
		}
		if m.Name == "" {
			t.Error("Expected migration name to be non-empty")
		}
		if strings.HasSuffix(m.Name, ".sql") {
			t.Errorf("Expected suffix to be stripped from name, got %s", m.Name)
		}
		if m.SQL == "" {
			t.Error("Expected migration SQL to be non-empty")
		}
	}

	if migrations[0].Name != "create_readings" {
		t.Errorf("Expected first migration to be create_readings, got %s", migrations[0].Name)
	}
	if !strings.Contains(migrations[0].SQL, "CREATE TABLE") {
		t.Error("Expected first migration to create a table")
	}
}

func TestLoadMigrations_SkipsDownFiles(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("Expected loadMigrations to succeed: %v", err)
	}

	for _, m := range migrations {
		if strings.Contains(m.SQL, "DROP TABLE") {
			t.Errorf("Expected only up migrations, got %d (%s)", m.Version, m.Name)
		}
	}
}

func TestNewMigrationsRunner(t *testing.T) {
	runner, err := NewMigrationsRunner(nil)
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}

	if runner.logger == nil {
		t.Error("Expected logger to be initialized")
	}

	if len(runner.migrations) == 0 {
		t.Error("Expected migrations to be loaded")
	}

	runner.DisableLogging()
	runner.EnableLogging()
}

func TestRunMigrations(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	if err := dropAllTables(db); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	runner, err := NewMigrationsRunner(db)
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}
	runner.DisableLogging()

	ctx := context.Background()
	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Expected Run to succeed: %v", err)
	}

	applied, err := runner.getAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("Expected getAppliedMigrations to succeed: %v", err)
	}
	if len(applied) != len(runner.migrations) {
		t.Errorf("Expected %d applied migrations, got %d", len(runner.migrations), len(applied))
	}

	var exists bool
	err = db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = 'public'
            AND table_name = 'readings'
        )
    `).Scan(&exists)
	if err != nil {
		t.Fatalf("Failed to check table existence: %v", err)
	}
	if !exists {
		t.Error("Expected readings table to exist")
	}

	// A second run has nothing to do
	if err := runner.Run(ctx); err != nil {
		t.Errorf("Expected second Run to succeed: %v", err)
	}
}

func TestRunMigrations_InvalidSQL(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	if err := dropAllTables(db); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	runner, err := NewMigrationsRunner(db)
	if err != nil {
		t.Fatalf("Expected NewMigrationsRunner to succeed: %v", err)
	}
	runner.DisableLogging()
	runner.migrations = []Migration{{Version: 1, Name: "broken", SQL: "CREATE TABLE ("}}

	err = runner.Run(context.Background())
	if err == nil {
		t.Fatal("Expected Run to fail on invalid SQL")
	}
	if !strings.Contains(err.Error(), "failed to apply migration") {
		t.Errorf("Expected 'failed to apply migration' in error, got %v", err)
	}
}
