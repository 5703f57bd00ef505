package export

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gtfisher/esp-collector/pkg/metrics"
	"github.com/gtfisher/esp-collector/pkg/models"
)

// Dispatcher runs recorder and sink deliveries on their own goroutines with bounded retries
type Dispatcher struct {
	registry        *Registry
	connectivity    Connectivity
	metrics         *metrics.Metrics
	retries         uint64
	timeout         time.Duration
	initialInterval time.Duration
	wg              sync.WaitGroup
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithRetries sets how many times a failed delivery is retried
func WithRetries(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.retries = uint64(n)
		}
	}
}

// WithDeliveryTimeout bounds a single delivery including its retries
func WithDeliveryTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithInitialInterval sets the first retry delay
func WithInitialInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.initialInterval = interval
	}
}

// WithConnectivity gates hourly rows on a connectivity check
func WithConnectivity(c Connectivity) DispatcherOption {
	return func(d *Dispatcher) {
		d.connectivity = c
	}
}

// WithMetrics records delivery outcomes
func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher for the registry's recorders and sinks
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:        registry,
		retries:         3,
		timeout:         30 * time.Second,
		initialInterval: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Record hands r to every recorder and returns immediately
func (d *Dispatcher) Record(r models.Reading) {
	for _, rec := range d.registry.Recorders() {
		rec := rec
		d.deliver(rec.Name(), func(ctx context.Context) error {
			return rec.Record(ctx, r)
		})
	}
}

// ExportHourly hands the row for r to every sink when the connectivity check passes.
// The check runs on the delivery goroutine.
func (d *Dispatcher) ExportHourly(r models.Reading) {
	sinks := d.registry.Sinks()
	if len(sinks) == 0 {
		return
	}

	row := RowFromReading(r)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if d.connectivity != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			online := d.connectivity.IsOnline(ctx)
			cancel()

			if !online {
				log.Printf("⚠ Offline, skipping hourly export for %s %s", row.Date, row.Time)
				return
			}
		}

		for _, s := range sinks {
			s := s
			d.deliver(s.Name(), func(ctx context.Context) error {
				return s.Append(ctx, row)
			})
		}
	}()
}

func (d *Dispatcher) deliver(name string, op func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = d.initialInterval
		bo.MaxElapsedTime = d.timeout

		attempt := 0
		err := backoff.Retry(func() error {
			attempt++
			return op(ctx)
		}, backoff.WithContext(backoff.WithMaxRetries(bo, d.retries), ctx))

		d.metrics.ExportDone(name, err)
		if err != nil {
			log.Printf("❌ Export to %s failed after %d attempt(s): %v", name, attempt, err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish or timeout elapses.
// It reports whether everything finished.
func (d *Dispatcher) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
