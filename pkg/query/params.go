package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// ParseParams reads start, end, bucket and limit from a query string.
// Malformed values are treated as absent.
func ParseParams(values url.Values) models.QueryParams {
	var params models.QueryParams

	if t, ok := parseTimeParam(values.Get("start")); ok {
		params.Start = &t
	}
	if t, ok := parseTimeParam(values.Get("end")); ok {
		params.End = &t
	}

	if n, err := strconv.ParseInt(strings.TrimSpace(values.Get("bucket")), 10, 64); err == nil && n > 0 {
		params.Bucket = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get("limit"))); err == nil && n > 0 {
		params.Limit = n
	}

	return params
}

// parseTimeParam accepts ISO-8601 timestamps, plain dates and unix seconds
func parseTimeParam(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	// Digits only are unix seconds, never a bare year
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if t, err := models.ParseTime(value); err == nil {
		return t, true
	}
	if t, err := time.Parse(models.DateLayout, value); err == nil {
		return t, true
	}
	return time.Time{}, false
}
