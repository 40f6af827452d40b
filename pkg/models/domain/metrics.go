package domain

// MonthlyMetrics counts every event of the month but sums revenue over
// purchase events only.
type MonthlyMetrics struct {
	EventMonth   string
	TotalEvents  int
	TotalRevenue float64
}

type BrandRevenue struct {
	Brand        string
	TotalRevenue float64
}

// SummaryMetrics covers all purchase events. AverageOrderValue is nil when
// there were no purchases.
type SummaryMetrics struct {
	TotalRevenue      float64
	AverageOrderValue *float64
	Purchases         int
}

func (s SummaryMetrics) HasAverageOrderValue() bool {
	return s.AverageOrderValue != nil
}

// MetricsTables bundles everything the metrics stage produces.
type MetricsTables struct {
	Summary        SummaryMetrics
	BrandRevenue   []BrandRevenue
	MonthlyMetrics []MonthlyMetrics
}
