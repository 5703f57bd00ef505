package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// CSVHeader is the first line of every daily file
var CSVHeader = []string{"serverDate", "serverTime", "millis", "temperature", "humidity", "dewPoint"}

// CSVRecorder appends every reading to a per-day CSV file named YYYY-MM-DD.csv
type CSVRecorder struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewCSVRecorder creates a recorder writing into dir
func NewCSVRecorder(dir string) *CSVRecorder {
	return &CSVRecorder{dir: dir, now: time.Now}
}

func (c *CSVRecorder) Name() string { return "csv" }

// Path returns the file for the given local date
func (c *CSVRecorder) Path(date time.Time) string {
	return filepath.Join(c.dir, date.Local().Format(models.DateLayout)+".csv")
}

// TodayPath returns the file for the current local date
func (c *CSVRecorder) TodayPath() string {
	return c.Path(c.now())
}

// Record appends one quoted row, writing the header first when the file is new
func (c *CSVRecorder) Record(ctx context.Context, r models.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := c.TodayPath()
	if at, ok := r.CapturedAt(); ok {
		path = c.Path(at)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat csv file: %w", err)
	}

	var b strings.Builder
	if info.Size() == 0 {
		b.WriteString(strings.Join(CSVHeader, ",") + "\n")
	}
	b.WriteString(quoteRow(csvFields(r)) + "\n")

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

// ReadDay returns the rows of the file for date as header-keyed maps.
// A missing file yields os.ErrNotExist.
func (c *CSVRecorder) ReadDay(date time.Time) ([]map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.Path(date))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	rows := []map[string]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func csvFields(r models.Reading) []string {
	millis := ""
	if r.Millis != nil {
		millis = strconv.FormatInt(*r.Millis, 10)
	}
	return []string{
		r.ServerDate,
		r.ServerTime,
		millis,
		formatMeasurement(r.Temperature),
		formatMeasurement(r.Humidity),
		formatMeasurement(r.DewPoint),
	}
}

// quoteRow quotes every field, doubling embedded quotes
func quoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
