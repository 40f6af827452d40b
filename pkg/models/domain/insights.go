package domain

// ExecutiveKPIs are headline numbers over the whole snapshot.
// ConversionRate is nil when there are no sessions.
type ExecutiveKPIs struct {
	TotalSessions  int
	TotalRevenue   float64
	ConversionRate *float64
}

type FunnelCounts struct {
	Sessions         int
	ViewSessions     int
	CartSessions     int
	PurchaseSessions int
	// SequentialRate is the share of sessions that reached all three stages.
	SequentialRate *float64
}

type RetentionStats struct {
	Buyers             int
	RepeatBuyers       int
	RepeatPurchaseRate float64
}
