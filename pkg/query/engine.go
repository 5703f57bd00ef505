// Package query answers history requests over the reading store, either as raw points or as
// time-bucketed averages.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gtfisher/esp-collector/pkg/models"
)

// Source is the read side of the reading store
type Source interface {
	All(ctx context.Context) ([]models.Reading, error)
}

// Engine runs history queries against a Source
type Engine struct {
	source Source
}

// NewEngine creates a query engine
func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

// entry is a reading with its parsed capture time
type entry struct {
	reading models.Reading
	at      time.Time
	ok      bool
}

type bucket struct {
	key       int64
	tempSum   float64
	tempCount int
	humiSum   float64
	humiCount int
	count     int
}

// Run executes the query. Only a store read failure returns an error.
func (e *Engine) Run(ctx context.Context, params models.QueryParams) ([]models.Point, error) {
	readings, err := e.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	entries := make([]entry, 0, len(readings))
	for _, r := range readings {
		at, ok := r.CapturedAt()
		if !inRange(at, ok, params) {
			continue
		}
		entries = append(entries, entry{reading: r, at: at, ok: ok})
	}

	// Unparseable times sort first; ties keep insertion order
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].ok || !entries[j].ok {
			return !entries[i].ok && entries[j].ok
		}
		return entries[i].at.Before(entries[j].at)
	})

	if params.Limit > 0 && len(entries) > params.Limit {
		entries = entries[len(entries)-params.Limit:]
	}

	if !params.Bucketed() {
		return rawPoints(entries), nil
	}
	return bucketPoints(entries, params.Bucket), nil
}

func inRange(at time.Time, ok bool, params models.QueryParams) bool {
	if params.Start == nil && params.End == nil {
		return true
	}
	if !ok {
		return false
	}
	if params.Start != nil && at.Before(*params.Start) {
		return false
	}
	if params.End != nil && at.After(*params.End) {
		return false
	}
	return true
}

func rawPoints(entries []entry) []models.Point {
	points := make([]models.Point, 0, len(entries))
	for _, en := range entries {
		p := models.Point{
			Temperature: en.reading.Temperature,
			Humidity:    en.reading.Humidity,
		}
		if en.ok {
			ts := models.FormatTime(en.at)
			p.Time = &ts
		}
		points = append(points, p)
	}
	return points
}

func bucketPoints(entries []entry, width int64) []models.Point {
	var buckets []*bucket
	byKey := make(map[int64]*bucket)

	for _, en := range entries {
		if !en.ok {
			continue
		}

		key := bucketKey(en.at.Unix(), width)
		b, found := byKey[key]
		if !found {
			b = &bucket{key: key}
			byKey[key] = b
			buckets = append(buckets, b)
		}

		if v, ok := en.reading.Temperature.Get(); ok {
			b.tempSum += v
			b.tempCount++
		}
		if v, ok := en.reading.Humidity.Get(); ok {
			b.humiSum += v
			b.humiCount++
		}
		b.count++
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].key < buckets[j].key
	})

	points := make([]models.Point, 0, len(buckets))
	for _, b := range buckets {
		ts := models.FormatTime(time.Unix(b.key, 0))
		p := models.Point{Time: &ts, Count: b.count}
		if b.tempCount > 0 {
			p.Temperature = models.Float(b.tempSum / float64(b.tempCount))
		}
		if b.humiCount > 0 {
			p.Humidity = models.Float(b.humiSum / float64(b.humiCount))
		}
		points = append(points, p)
	}
	return points
}

// bucketKey floors epoch seconds to a multiple of width, also for times before 1970
func bucketKey(epoch, width int64) int64 {
	key := epoch / width * width
	if epoch%width < 0 {
		key -= width
	}
	return key
}
