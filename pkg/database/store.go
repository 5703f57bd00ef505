package database

import (
	"context"
	"errors"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// DefaultRetentionLimit is the number of readings kept when no limit is configured
const DefaultRetentionLimit = 100

// ErrCorruptStore is returned when persisted readings exist but cannot be decoded.
// Callers must not continue with an empty or partial history.
var ErrCorruptStore = errors.New("reading store is corrupt")

// Store is a durable, FIFO-capped sequence of readings
type Store interface {
	// Append persists one reading, then drops the oldest entries beyond the retention limit.
	// The reading is durable once Append returns nil.
	Append(ctx context.Context, reading models.Reading) error

	// Recent returns up to limit most recent readings, oldest first. limit <= 0 returns all.
	Recent(ctx context.Context, limit int) ([]models.Reading, error)

	// All returns every retained reading in insertion order
	All(ctx context.Context) ([]models.Reading, error)

	// Close releases any resources held by the store
	Close() error
}

// tail returns a copy of the last n readings (all when n <= 0 or n >= len)
func tail(readings []models.Reading, n int) []models.Reading {
	if n <= 0 || n > len(readings) {
		n = len(readings)
	}
	out := make([]models.Reading, n)
	copy(out, readings[len(readings)-n:])
	return out
}
