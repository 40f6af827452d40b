package flat

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
)

func WriteSessionFunnel(w io.Writer, sessions []domain.SessionSummary) error {
	header := []string{
		"user_session", "user_id", "has_view", "has_cart", "has_purchase",
		"view_count", "cart_count", "purchase_count",
	}
	return writeTable(w, header, len(sessions), func(i int) []string {
		s := sessions[i]
		return []string{
			s.UserSession,
			s.UserID,
			strconv.FormatBool(s.HasView),
			strconv.FormatBool(s.HasCart),
			strconv.FormatBool(s.HasPurchase),
			strconv.Itoa(s.ViewCount),
			strconv.Itoa(s.CartCount),
			strconv.Itoa(s.PurchaseCount),
		}
	})
}

func WriteBrandRevenue(w io.Writer, rows []domain.BrandRevenue) error {
	return writeTable(w, []string{"brand", "total_revenue"}, len(rows), func(i int) []string {
		return []string{rows[i].Brand, formatFloat(rows[i].TotalRevenue)}
	})
}

// WriteSummaryMetrics leaves average_order_value empty when there is no data.
func WriteSummaryMetrics(w io.Writer, summary domain.SummaryMetrics) error {
	return writeTable(w, []string{"total_revenue", "average_order_value"}, 1, func(int) []string {
		aov := ""
		if summary.AverageOrderValue != nil {
			aov = formatFloat(*summary.AverageOrderValue)
		}
		return []string{formatFloat(summary.TotalRevenue), aov}
	})
}

func WriteMonthlyMetrics(w io.Writer, rows []domain.MonthlyMetrics) error {
	header := []string{"event_month", "total_events", "total_revenue"}
	return writeTable(w, header, len(rows), func(i int) []string {
		m := rows[i]
		return []string{m.EventMonth, strconv.Itoa(m.TotalEvents), formatFloat(m.TotalRevenue)}
	})
}

// ReadCategorySummary reads the externally produced category table.
func ReadCategorySummary(r io.Reader) ([]domain.CategorySummary, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read category summary: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: category_code, conversion_rate", ErrMissingColumn)
	}

	idx, err := columnIndex(records[0], []string{"category_code", "conversion_rate"})
	if err != nil {
		return nil, err
	}

	categories := make([]domain.CategorySummary, 0, len(records)-1)
	for i, record := range records[1:] {
		rate, err := strconv.ParseFloat(strings.TrimSpace(record[idx["conversion_rate"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: conversion_rate: %w", i+2, err)
		}
		categories = append(categories, domain.CategorySummary{
			CategoryCode:   record[idx["category_code"]],
			ConversionRate: rate,
		})
	}
	return categories, nil
}

// ReadCohortTable reads a retention matrix whose first column is the cohort
// label and whose remaining headers are period labels. Empty cells stay nil.
func ReadCohortTable(r io.Reader) (domain.CohortTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.CohortTable{}, nil
	}
	if err != nil {
		return domain.CohortTable{}, fmt.Errorf("read cohort header: %w", err)
	}

	table := domain.CohortTable{Periods: append([]string{}, header[1:]...)}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.CohortTable{}, fmt.Errorf("read cohort table: %w", err)
		}
		line++

		row := domain.CohortRow{Cohort: record[0], Rates: make([]*float64, len(table.Periods))}
		for i := 1; i < len(record) && i <= len(table.Periods); i++ {
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return domain.CohortTable{}, fmt.Errorf("row %d column %q: %w", line, header[i], err)
			}
			row.Rates[i-1] = &v
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
