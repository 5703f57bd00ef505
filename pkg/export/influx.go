package export

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/gtfisher/esp-collector/pkg/models"
)

const influxMeasurement = "environment"

// InfluxConfig holds the InfluxDB v2 connection settings
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
	Sensor string
}

// InfluxRecorder writes every reading as a point
type InfluxRecorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	sensor   string
}

// NewInfluxRecorder creates a recorder using the blocking write API
func NewInfluxRecorder(cfg InfluxConfig) (*InfluxRecorder, error) {
	if cfg.URL == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	return &InfluxRecorder{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		sensor:   cfg.Sensor,
	}, nil
}

func (i *InfluxRecorder) Name() string { return "influx" }

// Record writes r; readings without any measurement are skipped
func (i *InfluxRecorder) Record(ctx context.Context, r models.Reading) error {
	point := readingPoint(r, i.sensor)
	if point == nil {
		return nil
	}

	if err := i.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influx write failed: %w", err)
	}
	return nil
}

// Close releases the client
func (i *InfluxRecorder) Close() {
	i.client.Close()
}

// readingPoint converts r to a point, or nil when it carries no measurement
func readingPoint(r models.Reading, sensor string) *write.Point {
	fields := map[string]interface{}{}
	if v, ok := r.Temperature.Get(); ok {
		fields["temperature"] = v
	}
	if v, ok := r.Humidity.Get(); ok {
		fields["humidity"] = v
	}
	if v, ok := r.DewPoint.Get(); ok {
		fields["dew_point"] = v
	}
	if len(fields) == 0 {
		return nil
	}
	if r.Millis != nil {
		fields["millis"] = *r.Millis
	}

	tags := map[string]string{}
	if sensor != "" {
		tags["sensor"] = sensor
	}

	t, ok := r.CapturedAt()
	if !ok {
		t = time.Now()
	}

	return influxdb2.NewPoint(influxMeasurement, tags, fields, t)
}
