package snapshot

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb"
	goduckdb "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog"
)

// Store keeps the latest snapshot of every derived table. Each write
// replaces the table contents inside a single transaction.
type Store interface {
	WriteCleanedEvents(ctx context.Context, events []domain.Event) error
	WriteSessionFunnel(ctx context.Context, sessions []domain.SessionSummary) error
	WriteMetrics(ctx context.Context, tables domain.MetricsTables) error

	SessionFunnel(ctx context.Context) ([]domain.SessionSummary, error)
	BrandRevenue(ctx context.Context) ([]domain.BrandRevenue, error)
	MonthlyMetrics(ctx context.Context) ([]domain.MonthlyMetrics, error)
	SummaryMetrics(ctx context.Context) (domain.SummaryMetrics, error)
}

type snapshotStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &snapshotStore{db: db}, nil
}

// WriteCleanedEvents bulk-loads the events with an appender bound to the
// transaction's connection, so the clear and the load commit together.
func (s *snapshotStore) WriteCleanedEvents(ctx context.Context, events []domain.Event) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cleaned_events"); err != nil {
		return fmt.Errorf("clear cleaned_events: %w", err)
	}
	if len(events) > 0 {
		err = conn.Raw(func(driverConn any) error {
			return appendCleanedEvents(driverConn, events)
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("table", "cleaned_events").Int("rows", len(events)).Msg("snapshot replaced")
	return nil
}

func appendCleanedEvents(driverConn any, events []domain.Event) (err error) {
	dc, ok := driverConn.(driver.Conn)
	if !ok {
		return fmt.Errorf("unexpected driver connection %T", driverConn)
	}
	appender, err := goduckdb.NewAppenderFromConn(dc, "", "cleaned_events")
	if err != nil {
		return fmt.Errorf("create appender for cleaned_events: %w", err)
	}
	defer func() {
		if cerr := appender.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("flush cleaned_events: %w", cerr)
		}
	}()

	for _, e := range events {
		err := appender.AppendRow(
			e.EventTime, string(e.EventType), e.ProductID, e.CategoryCode, e.Brand,
			e.Price, e.UserID, e.UserSession, e.EventDate, e.EventMonth,
		)
		if err != nil {
			return fmt.Errorf("append to cleaned_events: %w", err)
		}
	}
	return nil
}

func (s *snapshotStore) WriteSessionFunnel(ctx context.Context, sessions []domain.SessionSummary) error {
	query := `
		INSERT INTO session_funnel (
			user_session, user_id, has_view, has_cart, has_purchase,
			view_count, cart_count, purchase_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return replace(ctx, tx, "session_funnel", query, len(sessions), func(i int) []interface{} {
			r := sessions[i]
			return []interface{}{
				r.UserSession, r.UserID, r.HasView, r.HasCart, r.HasPurchase,
				r.ViewCount, r.CartCount, r.PurchaseCount,
			}
		})
	})
}

func (s *snapshotStore) WriteMetrics(ctx context.Context, tables domain.MetricsTables) error {
	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		err := replace(ctx, tx, "brand_revenue",
			`INSERT INTO brand_revenue (brand, total_revenue) VALUES (?, ?)`,
			len(tables.BrandRevenue), func(i int) []interface{} {
				return []interface{}{tables.BrandRevenue[i].Brand, tables.BrandRevenue[i].TotalRevenue}
			})
		if err != nil {
			return err
		}

		err = replace(ctx, tx, "monthly_metrics",
			`INSERT INTO monthly_metrics (event_month, total_events, total_revenue) VALUES (?, ?, ?)`,
			len(tables.MonthlyMetrics), func(i int) []interface{} {
				m := tables.MonthlyMetrics[i]
				return []interface{}{m.EventMonth, m.TotalEvents, m.TotalRevenue}
			})
		if err != nil {
			return err
		}

		return replace(ctx, tx, "summary_metrics",
			`INSERT INTO summary_metrics (total_revenue, average_order_value, purchases) VALUES (?, ?, ?)`,
			1, func(int) []interface{} {
				var aov interface{}
				if tables.Summary.AverageOrderValue != nil {
					aov = *tables.Summary.AverageOrderValue
				}
				return []interface{}{tables.Summary.TotalRevenue, aov, tables.Summary.Purchases}
			})
	})
}

func (s *snapshotStore) SessionFunnel(ctx context.Context) ([]domain.SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_session, user_id, has_view, has_cart, has_purchase,
			view_count, cart_count, purchase_count
		FROM session_funnel
		ORDER BY user_session
	`)
	if err != nil {
		return nil, fmt.Errorf("query session funnel: %w", err)
	}
	defer closeRows(ctx, rows)

	sessions := make([]domain.SessionSummary, 0)
	for rows.Next() {
		var (
			r      domain.SessionSummary
			userID sql.NullString
		)
		if err := rows.Scan(
			&r.UserSession, &userID, &r.HasView, &r.HasCart, &r.HasPurchase,
			&r.ViewCount, &r.CartCount, &r.PurchaseCount,
		); err != nil {
			return nil, err
		}
		r.UserID = userID.String
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

func (s *snapshotStore) BrandRevenue(ctx context.Context) ([]domain.BrandRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT brand, total_revenue FROM brand_revenue ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("query brand revenue: %w", err)
	}
	defer closeRows(ctx, rows)

	brands := make([]domain.BrandRevenue, 0)
	for rows.Next() {
		var r domain.BrandRevenue
		if err := rows.Scan(&r.Brand, &r.TotalRevenue); err != nil {
			return nil, err
		}
		brands = append(brands, r)
	}
	return brands, rows.Err()
}

func (s *snapshotStore) MonthlyMetrics(ctx context.Context) ([]domain.MonthlyMetrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_month, total_events, total_revenue
		FROM monthly_metrics
		ORDER BY event_month
	`)
	if err != nil {
		return nil, fmt.Errorf("query monthly metrics: %w", err)
	}
	defer closeRows(ctx, rows)

	months := make([]domain.MonthlyMetrics, 0)
	for rows.Next() {
		var m domain.MonthlyMetrics
		if err := rows.Scan(&m.EventMonth, &m.TotalEvents, &m.TotalRevenue); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// SummaryMetrics returns an empty summary when no run has been stored yet.
func (s *snapshotStore) SummaryMetrics(ctx context.Context) (domain.SummaryMetrics, error) {
	var (
		summary domain.SummaryMetrics
		aov     sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT total_revenue, average_order_value, purchases FROM summary_metrics LIMIT 1`,
	).Scan(&summary.TotalRevenue, &aov, &summary.Purchases)
	if err == sql.ErrNoRows {
		return domain.SummaryMetrics{}, nil
	}
	if err != nil {
		return domain.SummaryMetrics{}, fmt.Errorf("query summary metrics: %w", err)
	}
	if aov.Valid {
		summary.AverageOrderValue = &aov.Float64
	}
	return summary, nil
}

func replace(
	ctx context.Context,
	tx *sql.Tx,
	table string,
	insert string,
	n int,
	row func(i int) []interface{},
) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	zerolog.Ctx(ctx).Debug().Str("table", table).Int("rows", n).Msg("snapshot replaced")
	return nil
}

func closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close rows")
	}
}
