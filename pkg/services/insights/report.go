package insights

import (
	"strconv"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

const noData = "no data"

// Input groups the snapshot tables a report is built from. Categories and
// Cohorts are optional.
type Input struct {
	Sessions   []domain.SessionSummary
	Monthly    []domain.MonthlyMetrics
	Brands     []domain.BrandRevenue
	Summary    domain.SummaryMetrics
	Categories []domain.CategorySummary
	Cohorts    *domain.CohortTable
	TopN       int
}

func BuildReport(in Input, now time.Time) *domain.Report {
	kpis := ExecutiveKPIs(in.Sessions, in.Monthly)
	funnel := Funnel(in.Sessions)
	retention := Retention(in.Sessions)

	report := &domain.Report{
		Title:       "Clickstream Analytics",
		GeneratedAt: now,
	}

	report.Sections = append(report.Sections, domain.ReportSection{
		Title: "Executive KPIs",
		Summary: map[string]interface{}{
			"Total Sessions": kpis.TotalSessions,
			"Total Revenue":  kpis.TotalRevenue,
		},
		Details: []domain.ReportDetail{
			{Name: "Conversion Rate", Value: optional(kpis.ConversionRate), Unit: "%", Description: "Sessions with a purchase"},
			{Name: "Average Order Value", Value: optional(in.Summary.AverageOrderValue), Description: "Revenue per purchase"},
			{Name: "Purchases", Value: in.Summary.Purchases},
		},
	})

	report.Sections = append(report.Sections, domain.ReportSection{
		Title:   "Funnel",
		Summary: map[string]interface{}{"Sessions": funnel.Sessions},
		Details: []domain.ReportDetail{
			{Name: "View", Value: funnel.ViewSessions, Unit: "sessions"},
			{Name: "Cart", Value: funnel.CartSessions, Unit: "sessions"},
			{Name: "Purchase", Value: funnel.PurchaseSessions, Unit: "sessions"},
			{Name: "Sequential Conversion", Value: optional(funnel.SequentialRate), Unit: "%", Description: "View, cart and purchase in one session"},
		},
	})

	if len(in.Categories) > 0 {
		section := domain.ReportSection{Title: "Top Categories"}
		for _, c := range TopCategories(in.Categories, in.TopN) {
			section.Details = append(section.Details, domain.ReportDetail{
				Name: c.CategoryCode, Value: c.ConversionRate, Unit: "%",
			})
		}
		report.Sections = append(report.Sections, section)
	}

	retentionSection := domain.ReportSection{
		Title: "Retention",
		Summary: map[string]interface{}{
			"Buyers":        retention.Buyers,
			"Repeat Buyers": retention.RepeatBuyers,
		},
		Details: []domain.ReportDetail{
			{Name: "Repeat Purchase Rate", Value: retention.RepeatPurchaseRate, Unit: "%"},
		},
	}
	if in.Cohorts != nil {
		retentionSection.Summary["Cohorts"] = len(in.Cohorts.Rows)
	}
	report.Sections = append(report.Sections, retentionSection)

	brands := domain.ReportSection{Title: "Brand Revenue"}
	for _, b := range in.Brands {
		brands.Details = append(brands.Details, domain.ReportDetail{Name: b.Brand, Value: b.TotalRevenue})
	}
	report.Sections = append(report.Sections, brands)

	monthly := domain.ReportSection{Title: "Monthly Metrics"}
	for _, m := range in.Monthly {
		monthly.Details = append(monthly.Details, domain.ReportDetail{
			Name:        m.EventMonth,
			Value:       m.TotalRevenue,
			Description: pluralEvents(m.TotalEvents),
		})
	}
	report.Sections = append(report.Sections, monthly)

	return report
}

func optional(v *float64) interface{} {
	if v == nil {
		return noData
	}
	return *v
}

func pluralEvents(n int) string {
	if n == 1 {
		return "1 event"
	}
	return strconv.Itoa(n) + " events"
}
