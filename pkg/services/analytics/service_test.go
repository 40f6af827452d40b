package analytics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/models/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSnapshots struct {
	mock.Mock
}

func (m *mockSnapshots) WriteCleanedEvents(ctx context.Context, events []domain.Event) error {
	return m.Called(ctx, events).Error(0)
}

func (m *mockSnapshots) WriteSessionFunnel(ctx context.Context, sessions []domain.SessionSummary) error {
	return m.Called(ctx, sessions).Error(0)
}

func (m *mockSnapshots) WriteMetrics(ctx context.Context, tables domain.MetricsTables) error {
	return m.Called(ctx, tables).Error(0)
}

func (m *mockSnapshots) SessionFunnel(ctx context.Context) ([]domain.SessionSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SessionSummary), args.Error(1)
}

func (m *mockSnapshots) BrandRevenue(ctx context.Context) ([]domain.BrandRevenue, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BrandRevenue), args.Error(1)
}

func (m *mockSnapshots) MonthlyMetrics(ctx context.Context) ([]domain.MonthlyMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.MonthlyMetrics), args.Error(1)
}

func (m *mockSnapshots) SummaryMetrics(ctx context.Context) (domain.SummaryMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SummaryMetrics), args.Error(1)
}

type mockRuns struct {
	mock.Mock
}

func (m *mockRuns) RecordRun(ctx context.Context, run store.PipelineRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRuns) ListRuns(ctx context.Context, limit int) ([]store.PipelineRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]store.PipelineRun), args.Error(1)
}

var sessions = []domain.SessionSummary{
	{UserSession: "S1", UserID: "u1", HasView: true, HasCart: true, HasPurchase: true},
	{UserSession: "S2", UserID: "u2", HasView: true},
	{UserSession: "S3", UserID: "u1", HasView: true, HasPurchase: true},
}

var monthly = []domain.MonthlyMetrics{
	{EventMonth: "2020-01", TotalEvents: 4, TotalRevenue: 10},
	{EventMonth: "2020-02", TotalEvents: 2, TotalRevenue: 20},
}

type fixture struct {
	snapshots *mockSnapshots
	runs      *mockRuns
	service   Service
}

func setupFixture(t *testing.T, settings Settings) *fixture {
	snapshots := new(mockSnapshots)
	runStore := new(mockRuns)
	svc, err := NewService(snapshots, runStore, settings)
	require.NoError(t, err)

	t.Cleanup(func() {
		snapshots.AssertExpectations(t)
		runStore.AssertExpectations(t)
	})

	return &fixture{snapshots: snapshots, runs: runStore, service: svc}
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewService(t *testing.T) {
	_, err := NewService(nil, new(mockRuns), Settings{})
	assert.Error(t, err)
	_, err = NewService(new(mockSnapshots), nil, Settings{})
	assert.Error(t, err)
}

func TestService_KPIsAndFunnel(t *testing.T) {
	f := setupFixture(t, Settings{})
	ctx := context.Background()
	f.snapshots.On("SessionFunnel", ctx).Return(sessions, nil)
	f.snapshots.On("MonthlyMetrics", ctx).Return(monthly, nil)

	kpis, err := f.service.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, kpis.TotalSessions)
	assert.Equal(t, 30.0, kpis.TotalRevenue)
	assert.Equal(t, 66.67, *kpis.ConversionRate)

	funnel, err := f.service.Funnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, funnel.PurchaseSessions)
}

func TestService_StoreError(t *testing.T) {
	f := setupFixture(t, Settings{})
	ctx := context.Background()
	f.snapshots.On("SessionFunnel", ctx).Return([]domain.SessionSummary(nil), errors.New("db closed"))

	_, err := f.service.KPIs(ctx)
	assert.ErrorContains(t, err, "db closed")
	_, _, err = f.service.Retention(ctx)
	assert.Error(t, err)
	_, err = f.service.Experiment(ctx, 1)
	assert.Error(t, err)
}

func TestService_TopCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("limit falls back to settings", func(t *testing.T) {
		path := writeFile(t, "category_summary.csv", "category_code,conversion_rate\na,1\nb,3.333\nc,2\n")
		f := setupFixture(t, Settings{CategorySummaryPath: path, TopCategories: 2})

		top, err := f.service.TopCategories(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.CategorySummary{
			{CategoryCode: "b", ConversionRate: 3.33},
			{CategoryCode: "c", ConversionRate: 2},
		}, top)

		top, err = f.service.TopCategories(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, top, 1)
	})

	t.Run("missing file is empty", func(t *testing.T) {
		f := setupFixture(t, Settings{CategorySummaryPath: filepath.Join(t.TempDir(), "absent.csv")})
		top, err := f.service.TopCategories(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, top)
	})
}

func TestService_Retention(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "cohort_table.csv", "cohort,0,1\n2020-01,100,12.3456\n2020-02,100,\n")
	f := setupFixture(t, Settings{CohortTablePath: path})
	f.snapshots.On("SessionFunnel", ctx).Return(sessions, nil)

	stats, cohorts, err := f.service.Retention(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Buyers)
	assert.Equal(t, 1, stats.RepeatBuyers)
	assert.Equal(t, 100.0, stats.RepeatPurchaseRate)
	assert.Equal(t, []string{"0", "1"}, cohorts.Periods)
	assert.Equal(t, 12.35, *cohorts.Rows[0].Rates[1])
	assert.Nil(t, cohorts.Rows[1].Rates[1])
}

func TestService_Experiment(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, Settings{Alpha: 0.01})
	f.snapshots.On("SessionFunnel", ctx).Return(sessions, nil)

	first, err := f.service.Experiment(ctx, 9)
	require.NoError(t, err)
	second, err := f.service.Experiment(ctx, 9)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 0.01, first.Alpha)
	assert.Equal(t, 3, first.GroupA.Total+first.GroupB.Total)
}

func TestService_Runs(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, Settings{})
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.runs.On("ListRuns", ctx, 5).Return([]store.PipelineRun{
		{ID: "r1", Status: "succeeded", StartedAt: started, FinishedAt: started.Add(time.Second), Stages: "[]"},
	}, nil).Once()

	reports, err := f.service.Runs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r1", reports[0].ID)
	assert.Equal(t, domain.RunStatusSucceeded, reports[0].Status)

	f.runs.On("ListRuns", ctx, 5).Return([]store.PipelineRun{{ID: "r2", Stages: "{bad"}}, nil).Once()
	_, err = f.service.Runs(ctx, 5)
	assert.Error(t, err)
}

func TestService_RunLatency(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, Settings{})
	f.runs.On("ListRuns", ctx, 50).Return([]store.PipelineRun{
		{ID: "r1", Status: "succeeded", Stages: `[{"name":"cleaning","status":"succeeded","duration":2000000}]`},
		{ID: "r2", Status: "succeeded", Stages: `[{"name":"cleaning","status":"succeeded","duration":4000000}]`},
	}, nil)

	latency, err := f.service.RunLatency(ctx, 50)
	require.NoError(t, err)
	require.Len(t, latency, 1)
	assert.Equal(t, domain.StageCleaning, latency[0].Stage)
	assert.Equal(t, 2, latency[0].Runs)
	assert.InEpsilon(t, float64(4*time.Millisecond), float64(latency[0].Max), 0.01)
}

func TestService_Report(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, Settings{TopCategories: 5})
	f.snapshots.On("SessionFunnel", ctx).Return(sessions, nil)
	f.snapshots.On("MonthlyMetrics", ctx).Return(monthly, nil)
	f.snapshots.On("BrandRevenue", ctx).Return([]domain.BrandRevenue{{Brand: "acme", TotalRevenue: 30}}, nil)
	f.snapshots.On("SummaryMetrics", ctx).Return(domain.SummaryMetrics{TotalRevenue: 30, Purchases: 2}, nil)

	report, err := f.service.Report(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Clickstream Analytics", report.Title)
	assert.Equal(t, "Executive KPIs", report.Sections[0].Title)
}
