package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// DBConfig holds the PostgreSQL connection settings
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ConnString renders the lib/pq keyword/value connection string
func (c DBConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// DatabaseManager is the PostgreSQL implementation of Store
type DatabaseManager struct {
	healthChecker *HealthChecker
	limit         int
}

// NewDatabaseManager connects to PostgreSQL and starts health checking
func NewDatabaseManager(cfg DBConfig, limit int) (*DatabaseManager, error) {
	connect := func() (*sql.DB, error) {
		return connectDatabase(cfg.ConnString())
	}

	db, err := connect()
	if err != nil {
		return nil, err
	}

	return newDatabaseManager(db, limit, connect), nil
}

func newDatabaseManager(db *sql.DB, limit int, connect func() (*sql.DB, error)) *DatabaseManager {
	if limit <= 0 {
		limit = DefaultRetentionLimit
	}

	dm := &DatabaseManager{
		healthChecker: NewHealthChecker(db, 30*time.Second, connect),
		limit:         limit,
	}
	dm.healthChecker.Start()

	return dm
}

// GetDB returns the current database connection
func (dm *DatabaseManager) GetDB() *sql.DB {
	return dm.healthChecker.DB()
}

// IsConnectionHealthy returns the current health status
func (dm *DatabaseManager) IsConnectionHealthy() bool {
	return dm.healthChecker.IsHealthy()
}

// Close stops health checking and closes the connection
func (dm *DatabaseManager) Close() error {
	dm.healthChecker.Stop()
	if db := dm.GetDB(); db != nil {
		return db.Close()
	}
	return nil
}

// Init runs the schema migrations
func (dm *DatabaseManager) Init(ctx context.Context) error {
	log.Println("Running database migrations...")

	runner, err := NewMigrationsRunner(dm.GetDB())
	if err != nil {
		return fmt.Errorf("failed to create migration runner: %w", err)
	}

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("✓ Database initialization completed successfully")
	return nil
}

// Append implements Store. Insert and trim share one transaction so the table never
// holds more than limit rows once the call returns.
func (dm *DatabaseManager) Append(ctx context.Context, r models.Reading) error {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return err
	}

	tx, err := dm.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
        INSERT INTO readings (id, server_time, server_date, millis, temperature, humidity, dew_point)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	if _, err := tx.ExecContext(ctx, insertQuery,
		r.ID,
		r.ServerTime,
		r.ServerDate,
		r.Millis,
		r.Temperature,
		r.Humidity,
		r.DewPoint,
	); err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	trimQuery := `
        DELETE FROM readings
        WHERE seq <= (SELECT seq FROM readings ORDER BY seq DESC OFFSET $1 LIMIT 1)
    `
	if _, err := tx.ExecContext(ctx, trimQuery, dm.limit); err != nil {
		return fmt.Errorf("failed to trim readings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reading: %w", err)
	}
	return nil
}

// Recent implements Store
func (dm *DatabaseManager) Recent(ctx context.Context, limit int) ([]models.Reading, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	var limitArg interface{}
	if limit > 0 {
		limitArg = limit
	}

	query := `
        SELECT id, server_time, server_date, millis, temperature, humidity, dew_point
        FROM readings
        ORDER BY seq DESC
        LIMIT $1
    `

	rows, err := dm.GetDB().QueryContext(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings := []models.Reading{}
	for rows.Next() {
		var r models.Reading
		var millis sql.NullInt64

		if err := rows.Scan(
			&r.ID,
			&r.ServerTime,
			&r.ServerDate,
			&millis,
			&r.Temperature,
			&r.Humidity,
			&r.DewPoint,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan reading: %v", ErrCorruptStore, err)
		}
		if millis.Valid {
			r.Millis = &millis.Int64
		}

		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest first from the query, oldest first for callers
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	return readings, nil
}

// All implements Store
func (dm *DatabaseManager) All(ctx context.Context) ([]models.Reading, error) {
	return dm.Recent(ctx, dm.limit)
}

// connectDatabase opens and pings a PostgreSQL connection
func connectDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	return db, nil
}
