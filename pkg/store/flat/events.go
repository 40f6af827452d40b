package flat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

const eventTimeLayout = "2006-01-02 15:04:05 UTC"

var rawEventColumns = []string{
	"event_time", "event_type", "product_id", "category_code",
	"brand", "price", "user_id", "user_session",
}

var cleanedEventColumns = append(append([]string{}, rawEventColumns...), "event_date", "event_month")

// ReadRawEvents reads the raw event log. Columns are matched by header name
// so extra columns and any column order are accepted.
func ReadRawEvents(r io.Reader) ([]domain.RawEvent, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty input, expected header %v", ErrMissingColumn, rawEventColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(header, rawEventColumns)
	if err != nil {
		return nil, err
	}

	var events []domain.RawEvent
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		events = append(events, domain.RawEvent{
			EventTime:    record[idx["event_time"]],
			EventType:    record[idx["event_type"]],
			ProductID:    record[idx["product_id"]],
			CategoryCode: record[idx["category_code"]],
			Brand:        record[idx["brand"]],
			Price:        record[idx["price"]],
			UserID:       record[idx["user_id"]],
			UserSession:  record[idx["user_session"]],
		})
	}
	return events, nil
}

func WriteCleanedEvents(w io.Writer, events []domain.Event) error {
	return writeTable(w, cleanedEventColumns, len(events), func(i int) []string {
		e := events[i]
		return []string{
			e.EventTime.UTC().Format(eventTimeLayout),
			string(e.EventType),
			e.ProductID,
			e.CategoryCode,
			e.Brand,
			formatFloat(e.Price),
			e.UserID,
			e.UserSession,
			e.EventDate,
			e.EventMonth,
		}
	})
}

func columnIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func writeTable(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
