package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// ErrNoReadings is returned by GetLatest before the first reading was accepted
var ErrNoReadings = errors.New("no readings yet")

// GetLatest retrieves the latest reading and the tracked extrema
func (c *Client) GetLatest(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.getJSON(ctx, "/api/v1/latest", &snap); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrNoReadings
		}
		return nil, err
	}
	return &snap, nil
}

// GetRecent retrieves up to limit readings from the live buffer, oldest first
func (c *Client) GetRecent(ctx context.Context, limit int) ([]models.Reading, error) {
	path := "/api/v1/readings"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var readings []models.Reading
	if err := c.getJSON(ctx, path, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// HistoryOptions contains options for querying the reading history
type HistoryOptions struct {
	Start  time.Time
	End    time.Time
	Bucket time.Duration
	Limit  int
}

// GetHistory retrieves raw or bucketed history points
func (c *Client) GetHistory(ctx context.Context, opts HistoryOptions) ([]models.Point, error) {
	params := url.Values{}

	if !opts.Start.IsZero() {
		params.Set("start", opts.Start.UTC().Format(time.RFC3339))
	}
	if !opts.End.IsZero() {
		params.Set("end", opts.End.UTC().Format(time.RFC3339))
	}
	if secs := int64(opts.Bucket / time.Second); secs > 0 {
		params.Set("bucket", strconv.FormatInt(secs, 10))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/v1/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var points []models.Point
	if err := c.getJSON(ctx, path, &points); err != nil {
		return nil, err
	}
	return points, nil
}
