// Package live holds the in-memory view of recent readings: a bounded buffer mirroring the
// store's tail plus the lowest-temperature and highest-humidity trackers.
package live

import (
	"sync"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// State is shared between the sampler (single writer) and the HTTP handlers (readers)
type State struct {
	mu       sync.RWMutex
	buffer   *Buffer
	lowTemp  tracker
	highHumi tracker
}

// NewState creates an empty state retaining at most limit readings
func NewState(limit int) *State {
	return &State{
		buffer:   NewBuffer(limit),
		lowTemp:  newLowTracker(),
		highHumi: newHighTracker(),
	}
}

// Seed rebuilds the buffer and extrema from readings loaded at startup, oldest first.
// Sensor-error readings in legacy data are skipped.
func (s *State) Seed(readings []models.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = NewBuffer(s.buffer.Cap())
	s.lowTemp = newLowTracker()
	s.highHumi = newHighTracker()

	for _, r := range readings {
		if r.IsSensorError() {
			continue
		}
		s.accept(r)
	}
}

// Accept records a reading that has already been committed to the store
func (s *State) Accept(r models.Reading) {
	if r.IsSensorError() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accept(r)
}

func (s *State) accept(r models.Reading) {
	s.buffer.Push(r)
	s.lowTemp.observe(r.Temperature, r.ServerTime)
	s.highHumi.observe(r.Humidity, r.ServerTime)
}

// Latest returns the newest reading and false when nothing has been accepted
func (s *State) Latest() (models.Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Latest()
}

// Recent returns up to n of the newest readings, oldest first
func (s *State) Recent(n int) []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Recent(n)
}

// Len returns the number of buffered readings
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Len()
}

// LowestTemperature returns the lowest temperature seen and when
func (s *State) LowestTemperature() Extremum {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lowTemp.current
}

// HighestHumidity returns the highest humidity seen and when
func (s *State) HighestHumidity() Extremum {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highHumi.current
}

// Snapshot returns a consistent copy of the current view
func (s *State) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap models.Snapshot
	if latest, ok := s.buffer.Latest(); ok {
		snap.Latest = &latest
	}

	snap.LowestTemperature = s.lowTemp.current.Value
	if s.lowTemp.current.Value.Valid {
		at := s.lowTemp.current.At
		snap.LowTempTime = &at
	}

	snap.HighestHumidity = s.highHumi.current.Value
	if s.highHumi.current.Value.Valid {
		at := s.highHumi.current.At
		snap.HighHumidityTime = &at
	}

	return snap
}
