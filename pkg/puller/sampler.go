package puller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gtfisher/esp-collector/pkg/live"
	"github.com/gtfisher/esp-collector/pkg/metrics"
	"github.com/gtfisher/esp-collector/pkg/models"
)

// Appender persists accepted readings
type Appender interface {
	Append(ctx context.Context, r models.Reading) error
}

// Exporter hands committed readings to secondary destinations without blocking
type Exporter interface {
	Record(r models.Reading)
	ExportHourly(r models.Reading)
}

// Sampler polls a Puller at a fixed interval and is the only writer of the store and live state
type Sampler struct {
	puller   Puller
	store    Appender
	state    *live.State
	exporter Exporter
	metrics  *metrics.Metrics
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time

	tickMu   sync.Mutex
	lastHour string

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopChan chan struct{}
	done     chan struct{}
	cancel   context.CancelFunc
}

// SamplerOption configures a Sampler
type SamplerOption func(*Sampler)

// WithExporter sets the destination for committed readings
func WithExporter(e Exporter) SamplerOption {
	return func(s *Sampler) {
		s.exporter = e
	}
}

// WithMetrics records tick outcomes
func WithMetrics(m *metrics.Metrics) SamplerOption {
	return func(s *Sampler) {
		s.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SamplerOption {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithFetchTimeout bounds a single fetch
func WithFetchTimeout(timeout time.Duration) SamplerOption {
	return func(s *Sampler) {
		s.timeout = timeout
	}
}

// NewSampler creates a sampler. It does nothing until Start or Tick is called.
func NewSampler(p Puller, store Appender, state *live.State, interval time.Duration, opts ...SamplerOption) *Sampler {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	s := &Sampler{
		puller:   p,
		store:    store,
		state:    state,
		interval: interval,
		timeout:  interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}

	return s
}

// Start begins periodic sampling with an immediate first tick.
// Calling Start twice, or after Stop, does nothing.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.run(ctx)
	log.Printf("✓ Sampler started (every %s)", s.interval)
}

// Stop halts sampling and waits for an in-flight tick to finish. Safe to call more than once.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if started {
		<-s.done
	}
	log.Println("✓ Sampler stopped")
}

// run executes the sampling loop
func (s *Sampler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sample immediately on start
	s.Tick(ctx)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one sampling cycle. It returns ErrTickInFlight when another tick is running.
func (s *Sampler) Tick(ctx context.Context) (*models.Reading, error) {
	if !s.tickMu.TryLock() {
		return nil, ErrTickInFlight
	}
	defer s.tickMu.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.ObserveTick(time.Since(start))
	}()

	reading, err := s.fetch(ctx)
	if err != nil {
		s.metrics.FetchError()
		log.Printf("❌ Error fetching reading: %v", err)
		return nil, err
	}

	now := s.now()
	reading.Stamp(now)

	if reading.IsSensorError() {
		s.metrics.SensorError()
		log.Printf("⚠ Sensor error reading at %s: temp=%s hum=%s",
			reading.ServerTime, reading.Temperature, reading.Humidity)
		return nil, ErrSensorReading
	}

	// A fetched reading is committed even when Stop cancels ctx meanwhile
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.Append(storeCtx, *reading); err != nil {
		s.metrics.StoreError()
		log.Printf("❌ Error storing reading %s: %v", reading.ServerTime, err)
		return nil, fmt.Errorf("failed to store reading: %w", err)
	}

	s.state.Accept(*reading)
	s.metrics.ReadingAccepted(*reading)

	if s.exporter != nil {
		s.exporter.Record(*reading)

		if hour := hourKey(now); hour != s.lastHour {
			s.lastHour = hour
			log.Printf("Exporting hourly row for %s", hour)
			s.exporter.ExportHourly(*reading)
		}
	}

	log.Printf("✓ Reading: %s", reading)
	return reading, nil
}

func (s *Sampler) fetch(ctx context.Context) (*models.Reading, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reading, err := s.puller.Pull(fetchCtx)
	if err != nil {
		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			err = &FetchError{Source: "sensor", Err: err}
		}
		return nil, err
	}
	if reading == nil {
		return nil, &FetchError{Source: "sensor", Err: errors.New("empty reading")}
	}
	return reading, nil
}

// hourKey identifies a local calendar hour
func hourKey(t time.Time) string {
	return t.Local().Format("2006-01-02T15")
}
