package domain

type ExperimentGroup string

const (
	GroupA ExperimentGroup = "A"
	GroupB ExperimentGroup = "B"
)

type ExperimentOutcome string

const (
	OutcomeSignificant      ExperimentOutcome = "significant"
	OutcomeNotSignificant   ExperimentOutcome = "not_significant"
	OutcomeInsufficientData ExperimentOutcome = "insufficient_data"
)

type GroupStats struct {
	Group       ExperimentGroup
	Conversions int
	Total       int
	// Rate is a percentage rounded to two decimals, 0 for an empty group.
	Rate float64
}

// ExperimentResult leaves ZStatistic and PValue nil when the outcome is
// OutcomeInsufficientData.
type ExperimentResult struct {
	GroupA      GroupStats
	GroupB      GroupStats
	ZStatistic  *float64
	PValue      *float64
	Alpha       float64
	Significant bool
	Outcome     ExperimentOutcome
	Seed        uint64
}
