package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/api"
	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/services/analytics"
	"github.com/de-tools/clickstream-atlas/pkg/services/metrics"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/runs"
	"github.com/de-tools/clickstream-atlas/pkg/store/duckdb/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(month, session, user string, eventType domain.EventType, brand string, price float64) domain.Event {
	return domain.Event{
		EventType:   eventType,
		Brand:       brand,
		Price:       price,
		UserID:      user,
		UserSession: session,
		EventMonth:  month,
	}
}

func seedSnapshot(t *testing.T) analytics.Service {
	ctx := context.Background()
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	snapshots, err := snapshot.NewStore(db)
	require.NoError(t, err)
	runStore, err := runs.NewStore(db)
	require.NoError(t, err)

	events := []domain.Event{
		event("2020-01", "S1", "u1", domain.EventTypeView, "acme", 10),
		event("2020-01", "S1", "u1", domain.EventTypeCart, "acme", 10),
		event("2020-01", "S1", "u1", domain.EventTypePurchase, "acme", 10),
		event("2020-01", "S2", "u2", domain.EventTypeView, domain.UnknownBrand, 5),
		event("2020-02", "S3", "u3", domain.EventTypeView, "globex", 20),
		event("2020-02", "S3", "u3", domain.EventTypePurchase, "globex", 20),
	}
	require.NoError(t, snapshots.WriteSessionFunnel(ctx, []domain.SessionSummary{
		{UserSession: "S1", UserID: "u1", HasView: true, HasCart: true, HasPurchase: true, ViewCount: 1, CartCount: 1, PurchaseCount: 1},
		{UserSession: "S2", UserID: "u2", HasView: true, ViewCount: 1},
		{UserSession: "S3", UserID: "u3", HasView: true, HasPurchase: true, ViewCount: 1, PurchaseCount: 1},
	}))
	require.NoError(t, snapshots.WriteMetrics(ctx, metrics.NewBuilder().Build(ctx, events)))

	svc, err := analytics.NewService(snapshots, runStore, analytics.Settings{Alpha: 0.05, TopCategories: 10})
	require.NoError(t, err)
	return svc
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var out T
		err := json.Unmarshal(data, &out)
		return out, err
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))

	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Analytics:   seedSnapshot(t),
			DefaultSeed: 42,
			Logger:      logger,
		},
	}
	router := ConfigureRouter(config)
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "KPIs",
			path:           "/api/v1/kpis",
			expectedStatus: http.StatusOK,
			expected:       api.KPIs{TotalSessions: 3, TotalRevenue: 30, ConversionRate: ptr(66.67)},
			parseResponse:  unmarshalResponse[api.KPIs](),
		},
		{
			name:           "Funnel",
			path:           "/api/v1/funnel",
			expectedStatus: http.StatusOK,
			expected: api.Funnel{
				Sessions: 3, ViewSessions: 3, CartSessions: 1, PurchaseSessions: 2,
				SequentialRate: ptr(33.33),
			},
			parseResponse: unmarshalResponse[api.Funnel](),
		},
		{
			name:           "Monthly",
			path:           "/api/v1/monthly",
			expectedStatus: http.StatusOK,
			expected: []api.MonthlyMetrics{
				{EventMonth: "2020-01", TotalEvents: 4, TotalRevenue: 10},
				{EventMonth: "2020-02", TotalEvents: 2, TotalRevenue: 20},
			},
			parseResponse: unmarshalResponse[[]api.MonthlyMetrics](),
		},
		{
			name:           "Brands",
			path:           "/api/v1/brands",
			expectedStatus: http.StatusOK,
			expected: []api.BrandRevenue{
				{Brand: "acme", TotalRevenue: 10},
				{Brand: "globex", TotalRevenue: 20},
			},
			parseResponse: unmarshalResponse[[]api.BrandRevenue](),
		},
		{
			name:           "Summary",
			path:           "/api/v1/summary",
			expectedStatus: http.StatusOK,
			expected:       api.Summary{TotalRevenue: 30, AverageOrderValue: ptr(15)},
			parseResponse:  unmarshalResponse[api.Summary](),
		},
		{
			name:           "TopCategories_NoExternalTable",
			path:           "/api/v1/categories/top?limit=5",
			expectedStatus: http.StatusOK,
			expected:       []api.Category{},
			parseResponse:  unmarshalResponse[[]api.Category](),
		},
		{
			name:           "TopCategories_InvalidLimit",
			path:           "/api/v1/categories/top?limit=x",
			expectedStatus: http.StatusBadRequest,
			expected:       api.Error{Error: "limit must be a non-negative integer"},
			parseResponse:  unmarshalResponse[api.Error](),
		},
		{
			name:           "Retention",
			path:           "/api/v1/retention",
			expectedStatus: http.StatusOK,
			expected: api.Retention{
				Buyers:  2,
				Cohorts: api.CohortTable{Periods: []string{}, Rows: []api.CohortRow{}},
			},
			parseResponse: unmarshalResponse[api.Retention](),
		},
		{
			name:           "Runs_Empty",
			path:           "/api/v1/runs",
			expectedStatus: http.StatusOK,
			expected:       []api.Run{},
			parseResponse:  unmarshalResponse[[]api.Run](),
		},
		{
			name:           "RunLatency_Empty",
			path:           "/api/v1/runs/latency",
			expectedStatus: http.StatusOK,
			expected:       []api.StageLatency{},
			parseResponse:  unmarshalResponse[[]api.StageLatency](),
		},
		{
			name:           "UnknownRoute",
			path:           "/api/v1/workspaces",
			expectedStatus: http.StatusNotFound,
			expected:       "404 page not found\n",
			parseResponse: func(data []byte) (interface{}, error) {
				return string(data), nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}

	t.Run("Experiment_IsReproducible", func(t *testing.T) {
		fetch := func() api.Experiment {
			resp, err := http.Get(testServer.URL + "/api/v1/experiment?seed=7")
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var out api.Experiment
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			return out
		}

		first, second := fetch(), fetch()
		assert.Equal(t, first, second)
		assert.Equal(t, uint64(7), first.Seed)
		assert.Equal(t, 3, first.GroupA.Total+first.GroupB.Total)
	})
}

func TestNewWebAPI(t *testing.T) {
	web := NewWebAPI(Config{Addr: "localhost:0"})
	assert.Equal(t, defaultShutdownTimeout, web.shutdownTimeout)
	assert.Equal(t, "localhost:0", web.server.Addr)
	assert.NotNil(t, web.router)
}
