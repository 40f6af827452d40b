package api

type KPIs struct {
	TotalSessions  int      `json:"total_sessions"`
	TotalRevenue   float64  `json:"total_revenue"`
	ConversionRate *float64 `json:"conversion_rate"`
}

type Funnel struct {
	Sessions         int      `json:"sessions"`
	ViewSessions     int      `json:"view_sessions"`
	CartSessions     int      `json:"cart_sessions"`
	PurchaseSessions int      `json:"purchase_sessions"`
	SequentialRate   *float64 `json:"sequential_rate"`
}

type MonthlyMetrics struct {
	EventMonth   string  `json:"event_month"`
	TotalEvents  int     `json:"total_events"`
	TotalRevenue float64 `json:"total_revenue"`
}

type BrandRevenue struct {
	Brand        string  `json:"brand"`
	TotalRevenue float64 `json:"total_revenue"`
}

type Summary struct {
	TotalRevenue      float64  `json:"total_revenue"`
	AverageOrderValue *float64 `json:"average_order_value"`
}

type Category struct {
	CategoryCode   string  `json:"category_code"`
	ConversionRate float64 `json:"conversion_rate"`
}

type Retention struct {
	Buyers             int         `json:"buyers"`
	RepeatBuyers       int         `json:"repeat_buyers"`
	RepeatPurchaseRate float64     `json:"repeat_purchase_rate"`
	Cohorts            CohortTable `json:"cohorts"`
}

type CohortTable struct {
	Periods []string    `json:"periods"`
	Rows    []CohortRow `json:"rows"`
}

type CohortRow struct {
	Cohort string     `json:"cohort"`
	Rates  []*float64 `json:"rates"`
}

type ExperimentGroup struct {
	Conversions int     `json:"conversions"`
	Total       int     `json:"total"`
	Rate        float64 `json:"rate"`
}

type Experiment struct {
	GroupA      ExperimentGroup `json:"group_a"`
	GroupB      ExperimentGroup `json:"group_b"`
	ZStatistic  *float64        `json:"z_statistic"`
	PValue      *float64        `json:"p_value"`
	Significant bool            `json:"significant"`
	Outcome     string          `json:"outcome"`
	Seed        uint64          `json:"seed"`
}

type Stage struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	DurationMs int64   `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

type Run struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	StartedAt  string  `json:"started_at"`
	FinishedAt string  `json:"finished_at"`
	Stages     []Stage `json:"stages"`
}

type StageLatency struct {
	Stage string `json:"stage"`
	Runs  int    `json:"runs"`
	P50Ms int64  `json:"p50_ms"`
	P95Ms int64  `json:"p95_ms"`
	MaxMs int64  `json:"max_ms"`
}

type Error struct {
	Error string `json:"error"`
}
