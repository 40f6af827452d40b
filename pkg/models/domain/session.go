package domain

// SessionSummary holds the funnel stages reached by one session.
// Flags are independent: a purchase without a cart event is representable.
type SessionSummary struct {
	UserSession   string
	UserID        string
	HasView       bool
	HasCart       bool
	HasPurchase   bool
	ViewCount     int
	CartCount     int
	PurchaseCount int
}

// CategorySummary is produced outside the pipeline.
type CategorySummary struct {
	CategoryCode   string
	ConversionRate float64
}

// CohortTable is a retention-rate matrix produced outside the pipeline.
type CohortTable struct {
	Periods []string
	Rows    []CohortRow
}

type CohortRow struct {
	Cohort string
	Rates  []*float64
}
