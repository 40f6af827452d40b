package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	store Store
}

func setupFixture(t *testing.T) *fixture {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	store, err := NewStore(db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return &fixture{
		db:    db,
		store: store,
	}
}

func TestNewStore(t *testing.T) {
	t.Run("nil db", func(t *testing.T) {
		store, err := NewStore(nil)
		assert.Error(t, err)
		assert.Nil(t, store)
	})
}

func TestStore_SessionFunnel(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	sessions := []domain.SessionSummary{
		{UserSession: "s1", UserID: "u1", HasView: true, HasCart: true, HasPurchase: true, ViewCount: 1, CartCount: 1, PurchaseCount: 1},
		{UserSession: "s2", UserID: "u2", HasView: true, ViewCount: 3},
	}
	require.NoError(t, f.store.WriteSessionFunnel(ctx, sessions))

	got, err := f.store.SessionFunnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, sessions, got)

	t.Run("rewrite replaces the snapshot", func(t *testing.T) {
		require.NoError(t, f.store.WriteSessionFunnel(ctx, sessions[1:]))
		got, err := f.store.SessionFunnel(ctx)
		require.NoError(t, err)
		assert.Equal(t, sessions[1:], got)
	})

	t.Run("empty snapshot", func(t *testing.T) {
		require.NoError(t, f.store.WriteSessionFunnel(ctx, nil))
		got, err := f.store.SessionFunnel(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStore_Metrics(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	t.Run("no snapshot yet", func(t *testing.T) {
		summary, err := f.store.SummaryMetrics(ctx)
		require.NoError(t, err)
		assert.False(t, summary.HasAverageOrderValue())
	})

	aov := 15.0
	tables := domain.MetricsTables{
		Summary:        domain.SummaryMetrics{TotalRevenue: 30, AverageOrderValue: &aov, Purchases: 2},
		BrandRevenue:   []domain.BrandRevenue{{Brand: "apple", TotalRevenue: 10}, {Brand: "samsung", TotalRevenue: 20}},
		MonthlyMetrics: []domain.MonthlyMetrics{{EventMonth: "2019-10", TotalEvents: 6, TotalRevenue: 30}},
	}
	require.NoError(t, f.store.WriteMetrics(ctx, tables))

	summary, err := f.store.SummaryMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, tables.Summary, summary)

	brands, err := f.store.BrandRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, tables.BrandRevenue, brands)

	months, err := f.store.MonthlyMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, tables.MonthlyMetrics, months)

	t.Run("no purchases keeps aov empty", func(t *testing.T) {
		require.NoError(t, f.store.WriteMetrics(ctx, domain.MetricsTables{}))
		summary, err := f.store.SummaryMetrics(ctx)
		require.NoError(t, err)
		assert.Nil(t, summary.AverageOrderValue)
		assert.Equal(t, 0.0, summary.TotalRevenue)

		brands, err := f.store.BrandRevenue(ctx)
		require.NoError(t, err)
		assert.Empty(t, brands)
	})
}

func TestStore_CleanedEvents(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	events := make([]domain.Event, 0, 2500)
	for i := 0; i < 2500; i++ {
		events = append(events, domain.Event{
			EventTime:    time.Date(2019, 10, 1, 0, 0, i, 0, time.UTC),
			EventType:    domain.EventTypePurchase,
			ProductID:    "p1",
			CategoryCode: "electronics.smartphone",
			Brand:        "apple",
			Price:        10,
			UserID:       "u1",
			UserSession:  "s1",
			EventDate:    "2019-10-01",
			EventMonth:   "2019-10",
		})
	}
	require.NoError(t, f.store.WriteCleanedEvents(ctx, events))
	require.NoError(t, f.store.WriteCleanedEvents(ctx, events))

	var (
		count   int
		revenue float64
		last    time.Time
	)
	require.NoError(t, f.db.QueryRow(
		"SELECT COUNT(*), SUM(price), MAX(event_time) FROM cleaned_events",
	).Scan(&count, &revenue, &last))
	assert.Equal(t, 2500, count)
	assert.Equal(t, 25000.0, revenue)
	assert.True(t, events[2499].EventTime.Equal(last))

	t.Run("empty snapshot", func(t *testing.T) {
		require.NoError(t, f.store.WriteCleanedEvents(ctx, nil))
		require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM cleaned_events").Scan(&count))
		assert.Equal(t, 0, count)
	})
}

func TestStore_WriteFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM session_funnel").WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectPrepare("INSERT INTO session_funnel").
			ExpectExec().
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		store, err := NewStore(db)
		require.NoError(t, err)

		err = store.WriteSessionFunnel(ctx, []domain.SessionSummary{{UserSession: "s1"}})
		assert.ErrorContains(t, err, "insert into session_funnel")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

		store, err := NewStore(db)
		require.NoError(t, err)

		err = store.WriteMetrics(ctx, domain.MetricsTables{})
		assert.ErrorContains(t, err, "begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-duckdb connection rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM cleaned_events").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		store, err := NewStore(db)
		require.NoError(t, err)

		err = store.WriteCleanedEvents(ctx, []domain.Event{{UserSession: "s1"}})
		assert.ErrorContains(t, err, "create appender for cleaned_events")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM cleaned_events").WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		store, err := NewStore(db)
		require.NoError(t, err)

		err = store.WriteCleanedEvents(ctx, nil)
		assert.ErrorContains(t, err, "clear cleaned_events")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
