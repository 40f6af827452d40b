package metrics

import (
	"context"
	"maps"
	"slices"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

type Builder interface {
	Build(ctx context.Context, events []domain.Event) domain.MetricsTables
}

type builder struct{}

func NewBuilder() Builder {
	return &builder{}
}

func (b *builder) Build(ctx context.Context, events []domain.Event) domain.MetricsTables {
	tables := domain.MetricsTables{
		Summary:        Summary(events),
		BrandRevenue:   BrandRevenue(events),
		MonthlyMetrics: Monthly(events),
	}

	msg := zerolog.Ctx(ctx).Info().
		Float64("total_revenue", tables.Summary.TotalRevenue).
		Int("purchases", tables.Summary.Purchases).
		Int("brands", len(tables.BrandRevenue)).
		Int("months", len(tables.MonthlyMetrics))
	if tables.Summary.HasAverageOrderValue() {
		msg = msg.Float64("average_order_value", *tables.Summary.AverageOrderValue)
	}
	msg.Msg("metrics built")

	return tables
}

// Summary sums purchase prices and averages them. The average is left nil
// when there are no purchases.
func Summary(events []domain.Event) domain.SummaryMetrics {
	var summary domain.SummaryMetrics
	for _, e := range events {
		if !e.IsPurchase() {
			continue
		}
		summary.TotalRevenue += e.Price
		summary.Purchases++
	}
	if summary.Purchases > 0 {
		aov := summary.TotalRevenue / float64(summary.Purchases)
		summary.AverageOrderValue = &aov
	}
	return summary
}

// BrandRevenue sums purchase prices per brand, ordered by brand.
func BrandRevenue(events []domain.Event) []domain.BrandRevenue {
	totals := make(map[string]float64)
	for _, e := range events {
		if e.IsPurchase() {
			totals[e.Brand] += e.Price
		}
	}

	rows := make([]domain.BrandRevenue, 0, len(totals))
	for _, brand := range slices.Sorted(maps.Keys(totals)) {
		rows = append(rows, domain.BrandRevenue{Brand: brand, TotalRevenue: totals[brand]})
	}
	return rows
}

// Monthly groups all events by month. TotalEvents counts every event type
// while TotalRevenue only includes purchases.
func Monthly(events []domain.Event) []domain.MonthlyMetrics {
	months := make(map[string]*domain.MonthlyMetrics)
	for _, e := range events {
		m, ok := months[e.EventMonth]
		if !ok {
			m = &domain.MonthlyMetrics{EventMonth: e.EventMonth}
			months[e.EventMonth] = m
		}
		m.TotalEvents++
		if e.IsPurchase() {
			m.TotalRevenue += e.Price
		}
	}

	rows := make([]domain.MonthlyMetrics, 0, len(months))
	for _, month := range slices.Sorted(maps.Keys(months)) {
		rows = append(rows, *months[month])
	}
	return rows
}
