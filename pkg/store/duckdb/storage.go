package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const CleanedEventsSchema = `
	CREATE TABLE IF NOT EXISTS cleaned_events (
		event_time TIMESTAMP NOT NULL,
		event_type VARCHAR NOT NULL,
		product_id VARCHAR,
		category_code VARCHAR,
		brand VARCHAR NOT NULL,
		price DOUBLE NOT NULL,
		user_id VARCHAR,
		user_session VARCHAR,
		event_date VARCHAR NOT NULL,
		event_month VARCHAR NOT NULL
	);
`
const SessionFunnelSchema = `
	CREATE TABLE IF NOT EXISTS session_funnel (
		user_session VARCHAR NOT NULL,
		user_id VARCHAR,
		has_view BOOLEAN NOT NULL,
		has_cart BOOLEAN NOT NULL,
		has_purchase BOOLEAN NOT NULL,
		view_count INTEGER NOT NULL,
		cart_count INTEGER NOT NULL,
		purchase_count INTEGER NOT NULL
	);
`
const BrandRevenueSchema = `
	CREATE TABLE IF NOT EXISTS brand_revenue (
		brand VARCHAR NOT NULL,
		total_revenue DOUBLE NOT NULL
	);
`
const SummaryMetricsSchema = `
	CREATE TABLE IF NOT EXISTS summary_metrics (
		total_revenue DOUBLE NOT NULL,
		average_order_value DOUBLE NULL,
		purchases INTEGER NOT NULL
	);
`
const MonthlyMetricsSchema = `
	CREATE TABLE IF NOT EXISTS monthly_metrics (
		event_month VARCHAR NOT NULL,
		total_events BIGINT NOT NULL,
		total_revenue DOUBLE NOT NULL
	);
`
const PipelineRunsSchema = `
	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id VARCHAR NOT NULL PRIMARY KEY,
		status VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		failed_stage VARCHAR NULL,
		error VARCHAR NULL,
		stages VARCHAR NOT NULL
	);
`

var bootQueries = []string{
	CleanedEventsSchema,
	SessionFunnelSchema,
	BrandRevenueSchema,
	SummaryMetricsSchema,
	MonthlyMetricsSchema,
	PipelineRunsSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
