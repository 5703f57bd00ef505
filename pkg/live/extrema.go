package live

import "github.com/gtfisher/esp-collector/pkg/models"

// Extremum is a tracked value and the server time of the reading that set it
type Extremum struct {
	Value models.Measurement
	At    string
}

// tracker keeps a running extremum. better reports whether candidate strictly beats current.
type tracker struct {
	current Extremum
	better  func(candidate, current float64) bool
}

func newLowTracker() tracker {
	return tracker{better: func(c, cur float64) bool { return c < cur }}
}

func newHighTracker() tracker {
	return tracker{better: func(c, cur float64) bool { return c > cur }}
}

// observe updates the extremum; missing values never change it
func (t *tracker) observe(v models.Measurement, at string) bool {
	value, ok := v.Get()
	if !ok {
		return false
	}
	if t.current.Value.Valid && !t.better(value, t.current.Value.Float64) {
		return false
	}
	t.current = Extremum{Value: v, At: at}
	return true
}
