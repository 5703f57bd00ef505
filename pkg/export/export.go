// Package export delivers accepted readings to secondary destinations: the daily CSV log,
// MQTT, InfluxDB, WebSocket clients and the hourly spreadsheet row.
// Every delivery runs off the sampling path and its failures are only logged.
package export

import (
	"context"
	"strconv"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// Recorder receives every accepted reading
type Recorder interface {
	// Name identifies the recorder in logs and metrics
	Name() string

	Record(ctx context.Context, r models.Reading) error
}

// Sink receives the hourly summary row
type Sink interface {
	Name() string
	Append(ctx context.Context, row Row) error
}

// Connectivity reports whether the internet is reachable
type Connectivity interface {
	IsOnline(ctx context.Context) bool
}

// RecorderFunc adapts a function to the Recorder interface
type RecorderFunc struct {
	Label string
	Fn    func(ctx context.Context, r models.Reading) error
}

func (f RecorderFunc) Name() string { return f.Label }

func (f RecorderFunc) Record(ctx context.Context, r models.Reading) error {
	return f.Fn(ctx, r)
}

// Row is the spreadsheet row [date, time, temperature, humidity, dewPoint]
type Row struct {
	Date        string
	Time        string
	Temperature models.Measurement
	Humidity    models.Measurement
	DewPoint    models.Measurement
}

// RowFromReading builds the hourly row using the local capture time
func RowFromReading(r models.Reading) Row {
	row := Row{
		Date:        r.ServerDate,
		Time:        r.ServerTime,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		DewPoint:    r.DewPoint,
	}

	if at, ok := r.CapturedAt(); ok {
		local := at.Local()
		row.Date = local.Format(models.DateLayout)
		row.Time = local.Format(time.TimeOnly)
	}
	return row
}

// Values returns the row as spreadsheet cells; missing measurements become empty cells
func (r Row) Values() []interface{} {
	return []interface{}{r.Date, r.Time, cell(r.Temperature), cell(r.Humidity), cell(r.DewPoint)}
}

func cell(m models.Measurement) interface{} {
	if v, ok := m.Get(); ok {
		return v
	}
	return ""
}

func formatMeasurement(m models.Measurement) string {
	if v, ok := m.Get(); ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
