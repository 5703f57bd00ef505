package export

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	name       string
	recordFunc func(ctx context.Context, r models.Reading) error
	mu         sync.Mutex
	calls      int
	received   []models.Reading
}

func (m *MockRecorder) Name() string { return m.name }

func (m *MockRecorder) Record(ctx context.Context, r models.Reading) error {
	m.mu.Lock()
	m.calls++
	m.received = append(m.received, r)
	m.mu.Unlock()

	if m.recordFunc != nil {
		return m.recordFunc(ctx, r)
	}
	return nil
}

func (m *MockRecorder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSink implements Sink for testing
type MockSink struct {
	name       string
	appendFunc func(ctx context.Context, row Row) error
	mu         sync.Mutex
	rows       []Row
}

func (m *MockSink) Name() string { return m.name }

func (m *MockSink) Append(ctx context.Context, row Row) error {
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()

	if m.appendFunc != nil {
		return m.appendFunc(ctx, row)
	}
	return nil
}

func (m *MockSink) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// MockConnectivity implements Connectivity for testing
type MockConnectivity struct {
	online bool
	calls  atomic.Int32
}

func (m *MockConnectivity) IsOnline(ctx context.Context) bool {
	m.calls.Add(1)
	return m.online
}

func testReading() models.Reading {
	r := models.Reading{
		Temperature: models.Float(21.5),
		Humidity:    models.Float(40),
		DewPoint:    models.Float(7.4),
	}
	r.Stamp(time.Date(2025, 2, 3, 14, 5, 6, 0, time.UTC))
	return r
}

func newTestDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	opts = append([]DispatcherOption{
		WithInitialInterval(time.Millisecond),
		WithDeliveryTimeout(2 * time.Second),
	}, opts...)
	return NewDispatcher(registry, opts...)
}

func TestDispatcher_RecordDeliversToAll(t *testing.T) {
	registry := NewRegistry()
	first := &MockRecorder{name: "first"}
	second := &MockRecorder{name: "second"}
	registry.Register(first)
	registry.Register(second)

	d := newTestDispatcher(registry)
	r := testReading()
	d.Record(r)

	if !d.Wait(time.Second) {
		t.Fatal("Expected deliveries to finish")
	}

	for _, rec := range []*MockRecorder{first, second} {
		if rec.callCount() != 1 {
			t.Errorf("Expected %s to be called once, got %d", rec.name, rec.callCount())
		}
		if rec.received[0].ID != r.ID {
			t.Errorf("Expected %s to receive the reading", rec.name)
		}
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	registry := NewRegistry()
	var attempts atomic.Int32
	flaky := &MockRecorder{
		name: "flaky",
		recordFunc: func(ctx context.Context, r models.Reading) error {
			if attempts.Add(1) < 3 {
				return errors.New("temporary")
			}
			return nil
		},
	}
	registry.Register(flaky)

	d := newTestDispatcher(registry, WithRetries(3))
	d.Record(testReading())

	if !d.Wait(time.Second) {
		t.Fatal("Expected deliveries to finish")
	}
	if flaky.callCount() != 3 {
		t.Errorf("Expected 3 attempts, got %d", flaky.callCount())
	}
}

func TestDispatcher_GivesUpAfterRetries(t *testing.T) {
	registry := NewRegistry()
	broken := &MockRecorder{
		name: "broken",
		recordFunc: func(ctx context.Context, r models.Reading) error {
			return errors.New("always fails")
		},
	}
	registry.Register(broken)

	d := newTestDispatcher(registry, WithRetries(2))
	d.Record(testReading())

	if !d.Wait(time.Second) {
		t.Fatal("Expected deliveries to finish")
	}
	if broken.callCount() != 3 {
		t.Errorf("Expected 1 attempt plus 2 retries, got %d", broken.callCount())
	}
}

func TestDispatcher_RecordDoesNotBlock(t *testing.T) {
	registry := NewRegistry()
	release := make(chan struct{})
	registry.Register(&MockRecorder{
		name: "slow",
		recordFunc: func(ctx context.Context, r models.Reading) error {
			<-release
			return nil
		},
	})

	d := newTestDispatcher(registry)

	start := time.Now()
	d.Record(testReading())
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected Record to return immediately, took %v", elapsed)
	}

	if d.Wait(50 * time.Millisecond) {
		t.Error("Expected Wait to time out while a delivery is blocked")
	}

	close(release)
	if !d.Wait(time.Second) {
		t.Error("Expected Wait to succeed after release")
	}
}

func TestDispatcher_ExportHourly(t *testing.T) {
	testCases := []struct {
		name         string
		connectivity *MockConnectivity
		expectedRows int
	}{
		{name: "Online", connectivity: &MockConnectivity{online: true}, expectedRows: 1},
		{name: "Offline", connectivity: &MockConnectivity{online: false}, expectedRows: 0},
		{name: "No check", connectivity: nil, expectedRows: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			registry := NewRegistry()
			sink := &MockSink{name: "sheet"}
			registry.RegisterSink(sink)

			var opts []DispatcherOption
			if tc.connectivity != nil {
				opts = append(opts, WithConnectivity(tc.connectivity))
			}
			d := newTestDispatcher(registry, opts...)

			d.ExportHourly(testReading())
			if !d.Wait(time.Second) {
				t.Fatal("Expected deliveries to finish")
			}

			if sink.rowCount() != tc.expectedRows {
				t.Errorf("Expected %d rows, got %d", tc.expectedRows, sink.rowCount())
			}
			if tc.connectivity != nil && tc.connectivity.calls.Load() != 1 {
				t.Errorf("Expected 1 connectivity check, got %d", tc.connectivity.calls.Load())
			}
		})
	}
}

func TestDispatcher_ExportHourlyWithoutSinks(t *testing.T) {
	conn := &MockConnectivity{online: true}
	d := newTestDispatcher(NewRegistry(), WithConnectivity(conn))

	d.ExportHourly(testReading())
	d.Wait(time.Second)

	if conn.calls.Load() != 0 {
		t.Errorf("Expected no connectivity check without sinks, got %d", conn.calls.Load())
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	registry.Register(nil)
	registry.RegisterSink(nil)
	registry.Register(&MockRecorder{name: "b"})
	registry.Register(&MockRecorder{name: "a"})
	replacement := &MockRecorder{name: "b"}
	registry.Register(replacement)

	recorders := registry.Recorders()
	if len(recorders) != 2 {
		t.Fatalf("Expected 2 recorders, got %d", len(recorders))
	}
	if recorders[0].Name() != "a" || recorders[1].Name() != "b" {
		t.Errorf("Expected recorders ordered by name, got %s, %s", recorders[0].Name(), recorders[1].Name())
	}

	got, ok := registry.Get("b")
	if !ok || got != replacement {
		t.Error("Expected later registration to replace the earlier one")
	}
	if _, ok := registry.Get("missing"); ok {
		t.Error("Expected not to find unregistered recorder")
	}

	registry.RegisterSink(&MockSink{name: "sheet"})
	if len(registry.Sinks()) != 1 {
		t.Errorf("Expected 1 sink, got %d", len(registry.Sinks()))
	}
}

func TestRowFromReading(t *testing.T) {
	r := testReading()
	row := RowFromReading(r)

	local := time.Date(2025, 2, 3, 14, 5, 6, 0, time.UTC).Local()
	if row.Date != local.Format(models.DateLayout) {
		t.Errorf("Expected date=%s, got %s", local.Format(models.DateLayout), row.Date)
	}
	if row.Time != local.Format(time.TimeOnly) {
		t.Errorf("Expected time=%s, got %s", local.Format(time.TimeOnly), row.Time)
	}

	values := row.Values()
	if len(values) != 5 {
		t.Fatalf("Expected 5 values, got %d", len(values))
	}
	if values[2] != 21.5 {
		t.Errorf("Expected temperature=21.5, got %v", values[2])
	}

	r.Humidity = models.Measurement{}
	if v := RowFromReading(r).Values()[3]; v != "" {
		t.Errorf("Expected empty cell for missing humidity, got %v", v)
	}
}
