package insights

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

const maxRecordedLatency = time.Hour

// StageLatency computes per-stage duration percentiles over the given runs.
// Skipped stages are ignored. Stages keep the order in which they first
// appear.
func StageLatency(reports []*domain.RunReport) []domain.StageLatency {
	var order []domain.StageName
	histograms := make(map[domain.StageName]*hdrhistogram.Histogram)

	for _, r := range reports {
		for _, s := range r.Stages {
			if s.Status == domain.RunStatusSkipped || s.Status == domain.RunStatusPending {
				continue
			}
			h, ok := histograms[s.Name]
			if !ok {
				h = hdrhistogram.New(1, maxRecordedLatency.Microseconds(), 3)
				histograms[s.Name] = h
				order = append(order, s.Name)
			}
			_ = h.RecordValue(clampMicros(s.Duration))
		}
	}

	out := make([]domain.StageLatency, 0, len(order))
	for _, name := range order {
		h := histograms[name]
		out = append(out, domain.StageLatency{
			Stage: name,
			Runs:  int(h.TotalCount()),
			P50:   time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
			P95:   time.Duration(h.ValueAtQuantile(95)) * time.Microsecond,
			Max:   time.Duration(h.Max()) * time.Microsecond,
		})
	}
	return out
}

func clampMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < 1 {
		return 1
	}
	if us > maxRecordedLatency.Microseconds() {
		return maxRecordedLatency.Microseconds()
	}
	return us
}
