package adapters

import (
	"github.com/de-tools/clickstream-atlas/pkg/models/api"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

func MapDomainKPIsToAPI(k domain.ExecutiveKPIs) api.KPIs {
	return api.KPIs{
		TotalSessions:  k.TotalSessions,
		TotalRevenue:   k.TotalRevenue,
		ConversionRate: k.ConversionRate,
	}
}

func MapDomainFunnelToAPI(f domain.FunnelCounts) api.Funnel {
	return api.Funnel{
		Sessions:         f.Sessions,
		ViewSessions:     f.ViewSessions,
		CartSessions:     f.CartSessions,
		PurchaseSessions: f.PurchaseSessions,
		SequentialRate:   f.SequentialRate,
	}
}

func MapDomainMonthlyToAPI(rows []domain.MonthlyMetrics) []api.MonthlyMetrics {
	out := make([]api.MonthlyMetrics, 0, len(rows))
	for _, m := range rows {
		out = append(out, api.MonthlyMetrics{
			EventMonth:   m.EventMonth,
			TotalEvents:  m.TotalEvents,
			TotalRevenue: m.TotalRevenue,
		})
	}
	return out
}

func MapDomainBrandsToAPI(rows []domain.BrandRevenue) []api.BrandRevenue {
	out := make([]api.BrandRevenue, 0, len(rows))
	for _, b := range rows {
		out = append(out, api.BrandRevenue{Brand: b.Brand, TotalRevenue: b.TotalRevenue})
	}
	return out
}

func MapDomainSummaryToAPI(s domain.SummaryMetrics) api.Summary {
	return api.Summary{
		TotalRevenue:      s.TotalRevenue,
		AverageOrderValue: s.AverageOrderValue,
	}
}

func MapDomainCategoriesToAPI(rows []domain.CategorySummary) []api.Category {
	out := make([]api.Category, 0, len(rows))
	for _, c := range rows {
		out = append(out, api.Category{CategoryCode: c.CategoryCode, ConversionRate: c.ConversionRate})
	}
	return out
}

func MapDomainRetentionToAPI(r domain.RetentionStats, cohorts domain.CohortTable) api.Retention {
	table := api.CohortTable{
		Periods: cohorts.Periods,
		Rows:    make([]api.CohortRow, 0, len(cohorts.Rows)),
	}
	if table.Periods == nil {
		table.Periods = []string{}
	}
	for _, row := range cohorts.Rows {
		table.Rows = append(table.Rows, api.CohortRow{Cohort: row.Cohort, Rates: row.Rates})
	}
	return api.Retention{
		Buyers:             r.Buyers,
		RepeatBuyers:       r.RepeatBuyers,
		RepeatPurchaseRate: r.RepeatPurchaseRate,
		Cohorts:            table,
	}
}

func MapDomainExperimentToAPI(r domain.ExperimentResult) api.Experiment {
	return api.Experiment{
		GroupA:      api.ExperimentGroup{Conversions: r.GroupA.Conversions, Total: r.GroupA.Total, Rate: r.GroupA.Rate},
		GroupB:      api.ExperimentGroup{Conversions: r.GroupB.Conversions, Total: r.GroupB.Total, Rate: r.GroupB.Rate},
		ZStatistic:  r.ZStatistic,
		PValue:      r.PValue,
		Significant: r.Significant,
		Outcome:     string(r.Outcome),
		Seed:        r.Seed,
	}
}
