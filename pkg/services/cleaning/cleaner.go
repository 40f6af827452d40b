package cleaning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ErrMalformedTimestamp aborts cleaning; a bad event_time is never skipped.
var ErrMalformedTimestamp = errors.New("malformed event_time")

var timeLayouts = []string{
	"2006-01-02 15:04:05 UTC",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

type Cleaner interface {
	Clean(ctx context.Context, raw []domain.RawEvent) ([]domain.Event, domain.CleaningStats, error)
}

type cleaner struct{}

func NewCleaner() Cleaner {
	return &cleaner{}
}

// Clean parses and filters raw events. Rows with a non-positive or missing
// price are dropped, a missing brand becomes domain.UnknownBrand. Input
// order is preserved.
func (c *cleaner) Clean(
	ctx context.Context,
	raw []domain.RawEvent,
) ([]domain.Event, domain.CleaningStats, error) {
	logger := zerolog.Ctx(ctx)
	stats := domain.CleaningStats{InputRows: len(raw)}

	events := make([]domain.Event, 0, len(raw))
	for i, r := range raw {
		ts, err := ParseEventTime(r.EventTime)
		if err != nil {
			// row numbers are 1-based and skip the header
			return nil, stats, fmt.Errorf("row %d: %w", i+2, err)
		}

		price, ok := parsePrice(r.Price)
		if !ok || price <= 0 {
			stats.DroppedRows++
			continue
		}

		brand := strings.TrimSpace(r.Brand)
		if brand == "" {
			brand = domain.UnknownBrand
		}

		ts = ts.UTC()
		events = append(events, domain.Event{
			EventTime:    ts,
			EventType:    domain.EventType(strings.TrimSpace(r.EventType)),
			ProductID:    r.ProductID,
			CategoryCode: r.CategoryCode,
			Brand:        brand,
			Price:        price,
			UserID:       r.UserID,
			UserSession:  r.UserSession,
			EventDate:    ts.Format("2006-01-02"),
			EventMonth:   ts.Format("2006-01"),
		})
	}

	stats.OutputRows = len(events)
	logger.Info().
		Int("input_rows", stats.InputRows).
		Int("output_rows", stats.OutputRows).
		Int("dropped_rows", stats.DroppedRows).
		Msg("events cleaned")

	return events, stats, nil
}

// ParseEventTime accepts the event log's "2006-01-02 15:04:05 UTC" layout as
// well as RFC 3339 and zone-less timestamps, which are read as UTC. Any other
// zone abbreviation is rejected since its offset is unknown.
func ParseEventTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
}

func parsePrice(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(price) {
		return 0, false
	}
	return price, true
}
