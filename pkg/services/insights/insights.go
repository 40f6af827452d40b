package insights

import (
	"cmp"
	"slices"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/services/stats"
)

// ExecutiveKPIs derives headline numbers from the session funnel and the
// monthly metrics table. Revenue is summed over months.
func ExecutiveKPIs(sessions []domain.SessionSummary, monthly []domain.MonthlyMetrics) domain.ExecutiveKPIs {
	kpis := domain.ExecutiveKPIs{TotalSessions: len(sessions)}

	var revenue float64
	for _, m := range monthly {
		revenue += m.TotalRevenue
	}
	kpis.TotalRevenue = stats.Round(revenue, 2)

	purchasing := 0
	for _, s := range sessions {
		if s.HasPurchase {
			purchasing++
		}
	}
	if rate, ok := stats.Percent(purchasing, len(sessions)); ok {
		kpis.ConversionRate = &rate
	}
	return kpis
}

func Funnel(sessions []domain.SessionSummary) domain.FunnelCounts {
	counts := domain.FunnelCounts{Sessions: len(sessions)}
	sequential := 0
	for _, s := range sessions {
		if s.HasView {
			counts.ViewSessions++
		}
		if s.HasCart {
			counts.CartSessions++
		}
		if s.HasPurchase {
			counts.PurchaseSessions++
		}
		if s.HasView && s.HasCart && s.HasPurchase {
			sequential++
		}
	}
	if rate, ok := stats.Percent(sequential, len(sessions)); ok {
		counts.SequentialRate = &rate
	}
	return counts
}

// TopCategories returns the n categories with the highest conversion rate.
// A non-positive n returns every category.
func TopCategories(categories []domain.CategorySummary, n int) []domain.CategorySummary {
	out := make([]domain.CategorySummary, len(categories))
	for i, c := range categories {
		out[i] = domain.CategorySummary{
			CategoryCode:   c.CategoryCode,
			ConversionRate: stats.Round(c.ConversionRate, 2),
		}
	}

	slices.SortStableFunc(out, func(a, b domain.CategorySummary) int {
		if c := cmp.Compare(b.ConversionRate, a.ConversionRate); c != 0 {
			return c
		}
		return cmp.Compare(a.CategoryCode, b.CategoryCode)
	})

	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Retention counts buyers by their number of purchasing sessions.
func Retention(sessions []domain.SessionSummary) domain.RetentionStats {
	perUser := make(map[string]int)
	for _, s := range sessions {
		if s.HasPurchase {
			perUser[s.UserID]++
		}
	}

	result := domain.RetentionStats{Buyers: len(perUser)}
	for _, n := range perUser {
		if n > 1 {
			result.RepeatBuyers++
		}
	}
	result.RepeatPurchaseRate, _ = stats.Percent(result.RepeatBuyers, result.Buyers)
	return result
}

// RoundCohort returns a copy of the table with every rate rounded to two
// decimals. Missing cells stay nil.
func RoundCohort(table domain.CohortTable) domain.CohortTable {
	out := domain.CohortTable{
		Periods: slices.Clone(table.Periods),
		Rows:    make([]domain.CohortRow, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		rates := make([]*float64, len(row.Rates))
		for i, r := range row.Rates {
			if r == nil {
				continue
			}
			v := stats.Round(*r, 2)
			rates[i] = &v
		}
		out.Rows = append(out.Rows, domain.CohortRow{Cohort: row.Cohort, Rates: rates})
	}
	return out
}
