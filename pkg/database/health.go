package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrUnhealthy is returned when the connection is known to be down
var ErrUnhealthy = errors.New("database connection is not healthy")

// HealthChecker owns the database handle, pings it periodically and reconnects when it fails
type HealthChecker struct {
	db            *sql.DB
	connect       func() (*sql.DB, error)
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	mu            sync.RWMutex
	isHealthy     bool
}

// NewHealthChecker creates a health checker. connect may be nil, in which case a failed
// connection is only reported, never replaced.
func NewHealthChecker(db *sql.DB, checkInterval time.Duration, connect func() (*sql.DB, error)) *HealthChecker {
	return &HealthChecker{
		db:            db,
		connect:       connect,
		checkInterval: checkInterval,
		stopChan:      make(chan struct{}),
		isHealthy:     true,
	}
}

// DB returns the current database handle
func (hc *HealthChecker) DB() *sql.DB {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.db
}

// Start begins monitoring the connection in the background
func (hc *HealthChecker) Start() {
	ticker := time.NewTicker(hc.checkInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-hc.stopChan:
				return
			case <-ticker.C:
				hc.checkConnection()
			}
		}
	}()
}

// Stop ends monitoring. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		close(hc.stopChan)
	})
}

func (hc *HealthChecker) checkConnection() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := hc.DB().PingContext(ctx)

	hc.mu.Lock()
	defer hc.mu.Unlock()

	if err == nil {
		if !hc.isHealthy {
			log.Println("✓ Database connection restored")
		}
		hc.isHealthy = true
		return
	}

	log.Printf("❌ Database connection health check failed: %v", err)
	hc.isHealthy = false

	if err := hc.reconnect(); err != nil {
		log.Printf("❌ Failed to reconnect to database: %v", err)
	}
}

// reconnect replaces the handle; the caller holds mu
func (hc *HealthChecker) reconnect() error {
	if hc.connect == nil {
		return errors.New("no connect function configured")
	}

	newDB, err := hc.connect()
	if err != nil {
		return err
	}

	if hc.db != nil {
		hc.db.Close()
	}
	hc.db = newDB
	hc.isHealthy = true

	log.Println("✓ Database connection re-established")
	return nil
}

// IsHealthy returns the last known health status
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.isHealthy
}

// EnsureConnection verifies the connection before a statement is executed
func (hc *HealthChecker) EnsureConnection(ctx context.Context) error {
	if !hc.IsHealthy() {
		return ErrUnhealthy
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := hc.DB().PingContext(pingCtx); err != nil {
		hc.mu.Lock()
		hc.isHealthy = false
		hc.mu.Unlock()
		return fmt.Errorf("database connection check failed: %w", err)
	}

	return nil
}
