package models

import "time"

// Snapshot is the current view served to the presentation layer
type Snapshot struct {
	Latest            *Reading    `json:"latest"`
	LowestTemperature Measurement `json:"lowestTemperature"`
	LowTempTime       *string     `json:"lowTempTime"`
	HighestHumidity   Measurement `json:"highestHumidity"`
	HighHumidityTime  *string     `json:"highHumidityTime"`
}

// QueryParams holds the history query parameters.
// Zero values mean "not provided".
type QueryParams struct {
	Start  *time.Time
	End    *time.Time
	Bucket int64 // seconds
	Limit  int
}

// Bucketed reports whether the query aggregates into time buckets
func (p QueryParams) Bucketed() bool {
	return p.Bucket > 0
}

// Point is one row of a history query, either a raw reading or a bucket average
type Point struct {
	Time        *string     `json:"time"`
	Temperature Measurement `json:"temperature"`
	Humidity    Measurement `json:"humidity"`
	Count       int         `json:"count,omitempty"`
}
