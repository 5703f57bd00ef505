package puller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtfisher/esp-collector/pkg/models"
)

var (
	// ErrSensorReading is returned when the sensor reports both temperature and humidity as exactly 0
	ErrSensorReading = errors.New("sensor returned zero temperature and humidity")

	// ErrTickInFlight is returned when a tick is requested while another is still running
	ErrTickInFlight = errors.New("sampler tick already in flight")
)

// Puller fetches one reading from a sensor
type Puller interface {
	// Pull fetches the current reading. The returned reading is not yet stamped.
	Pull(ctx context.Context) (*models.Reading, error)
}

// PullerFunc adapts a function to the Puller interface
type PullerFunc func(ctx context.Context) (*models.Reading, error)

// Pull calls f(ctx)
func (f PullerFunc) Pull(ctx context.Context) (*models.Reading, error) {
	return f(ctx)
}

// FetchError is a transient failure to obtain a reading from the sensor
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
