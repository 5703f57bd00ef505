package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/relvacode/iso8601"
)

// TimeLayout is the canonical representation of a reading timestamp (UTC, millisecond precision)
const TimeLayout = "2006-01-02T15:04:05.000Z"

// DateLayout is the local calendar date attached to every accepted reading
const DateLayout = "2006-01-02"

// Reading represents a single observation from the sensor
type Reading struct {
	ID          uuid.UUID   `json:"id"`
	ServerTime  string      `json:"serverTime"`
	ServerDate  string      `json:"serverDate,omitempty"`
	Millis      *int64      `json:"millis,omitempty"`
	Temperature Measurement `json:"temperature"`
	Humidity    Measurement `json:"humidity"`
	DewPoint    Measurement `json:"dewPoint"`
}

// Stamp assigns a fresh ID and the server capture time to the reading
func (r *Reading) Stamp(now time.Time) {
	r.ID = uuid.New()
	r.ServerTime = FormatTime(now)
	r.ServerDate = now.Local().Format(DateLayout)
}

// IsSensorError reports whether the sensor returned its zero/zero failure pattern
func (r Reading) IsSensorError() bool {
	return r.Temperature.Valid && r.Humidity.Valid &&
		r.Temperature.Float64 == 0 && r.Humidity.Float64 == 0
}

// CapturedAt parses the stored server time. ok is false when the field is empty or malformed.
func (r Reading) CapturedAt() (time.Time, bool) {
	if r.ServerTime == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(r.ServerTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String returns a compact log representation of the reading
func (r Reading) String() string {
	millis := "-"
	if r.Millis != nil {
		millis = fmt.Sprintf("%d", *r.Millis)
	}
	return fmt.Sprintf("%s millis=%s temp=%s hum=%s dp=%s",
		r.ServerTime, millis, r.Temperature, r.Humidity, r.DewPoint)
}

// ParseTime parses an ISO-8601 timestamp
func ParseTime(value string) (time.Time, error) {
	return iso8601.ParseString(value)
}

// FormatTime renders t in the canonical reading layout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
