package flat

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	CleanedEventsFile  = "cleaned_events.csv"
	SessionFunnelFile  = "session_funnel.csv"
	MonthlyMetricsFile = "monthly_metrics.csv"
	BrandRevenueFile   = "brand_revenue.csv"
	SummaryMetricsFile = "summary_metrics.csv"
)

type Settings struct {
	// ProcessedDir receives cleaned events, the session funnel and monthly metrics.
	ProcessedDir string
	// OutputsDir receives brand revenue and summary metrics.
	OutputsDir string
}

// Writer overwrites CSV snapshots on every call. A crash mid-write can
// leave a partial file; re-running the pipeline rewrites it.
type Writer struct {
	settings Settings
}

func NewWriter(settings Settings) (*Writer, error) {
	if settings.ProcessedDir == "" || settings.OutputsDir == "" {
		return nil, fmt.Errorf("processed and outputs directories are required")
	}
	return &Writer{settings: settings}, nil
}

func (w *Writer) WriteCleanedEvents(ctx context.Context, events []domain.Event) error {
	return w.write(ctx, w.settings.ProcessedDir, CleanedEventsFile, func(out io.Writer) error {
		return WriteCleanedEvents(out, events)
	})
}

func (w *Writer) WriteSessionFunnel(ctx context.Context, sessions []domain.SessionSummary) error {
	return w.write(ctx, w.settings.ProcessedDir, SessionFunnelFile, func(out io.Writer) error {
		return WriteSessionFunnel(out, sessions)
	})
}

func (w *Writer) WriteMetrics(ctx context.Context, tables domain.MetricsTables) error {
	err := w.write(ctx, w.settings.OutputsDir, BrandRevenueFile, func(out io.Writer) error {
		return WriteBrandRevenue(out, tables.BrandRevenue)
	})
	if err != nil {
		return err
	}

	err = w.write(ctx, w.settings.OutputsDir, SummaryMetricsFile, func(out io.Writer) error {
		return WriteSummaryMetrics(out, tables.Summary)
	})
	if err != nil {
		return err
	}

	return w.write(ctx, w.settings.ProcessedDir, MonthlyMetricsFile, func(out io.Writer) error {
		return WriteMonthlyMetrics(out, tables.MonthlyMetrics)
	})
}

func (w *Writer) write(ctx context.Context, dir, name string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("snapshot written")
	return nil
}

func ReadCategorySummaryFile(path string) ([]domain.CategorySummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCategorySummary(f)
}

func ReadCohortTableFile(path string) (domain.CohortTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.CohortTable{}, err
	}
	defer f.Close()
	return ReadCohortTable(f)
}
