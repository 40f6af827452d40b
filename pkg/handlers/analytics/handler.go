package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/de-tools/clickstream-atlas/pkg/adapters"
	"github.com/de-tools/clickstream-atlas/pkg/models/api"
	"github.com/de-tools/clickstream-atlas/pkg/services/analytics"
	"github.com/rs/zerolog"
)

const (
	defaultRunsLimit     = 20
	defaultLatencyWindow = 100
)

type Handler struct {
	svc         analytics.Service
	defaultSeed uint64
}

func NewHandler(svc analytics.Service, defaultSeed uint64) *Handler {
	return &Handler{
		svc:         svc,
		defaultSeed: defaultSeed,
	}
}

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis, err := h.svc.KPIs(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to compute kpis")
		return
	}
	writeJSON(w, r, adapters.MapDomainKPIsToAPI(kpis))
}

func (h *Handler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.svc.Funnel(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to compute funnel")
		return
	}
	writeJSON(w, r, adapters.MapDomainFunnelToAPI(funnel))
}

func (h *Handler) ListMonthlyMetrics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Monthly(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to read monthly metrics")
		return
	}
	writeJSON(w, r, adapters.MapDomainMonthlyToAPI(rows))
}

func (h *Handler) ListBrandRevenue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Brands(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to read brand revenue")
		return
	}
	writeJSON(w, r, adapters.MapDomainBrandsToAPI(rows))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to read summary metrics")
		return
	}
	writeJSON(w, r, adapters.MapDomainSummaryToAPI(summary))
}

func (h *Handler) ListTopCategories(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		writeError(w, r, http.StatusBadRequest, err, "limit must be a non-negative integer")
		return
	}

	rows, err := h.svc.TopCategories(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to read category summary")
		return
	}
	writeJSON(w, r, adapters.MapDomainCategoriesToAPI(rows))
}

func (h *Handler) GetRetention(w http.ResponseWriter, r *http.Request) {
	stats, cohorts, err := h.svc.Retention(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to compute retention")
		return
	}
	writeJSON(w, r, adapters.MapDomainRetentionToAPI(stats, cohorts))
}

func (h *Handler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	seed := h.defaultSeed
	if raw := r.URL.Query().Get("seed"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err, "seed must be an unsigned integer")
			return
		}
		seed = parsed
	}

	result, err := h.svc.Experiment(r.Context(), seed)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to evaluate experiment")
		return
	}
	writeJSON(w, r, adapters.MapDomainExperimentToAPI(result))
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultRunsLimit)
	if err != nil || limit <= 0 {
		writeError(w, r, http.StatusBadRequest, err, "limit must be a positive integer")
		return
	}

	reports, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to list runs")
		return
	}

	response := make([]api.Run, 0, len(reports))
	for _, report := range reports {
		response = append(response, adapters.MapDomainRunReportToAPI(report))
	}
	writeJSON(w, r, response)
}

func (h *Handler) GetRunLatency(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLatencyWindow)
	if err != nil || limit <= 0 {
		writeError(w, r, http.StatusBadRequest, err, "limit must be a positive integer")
		return
	}

	latency, err := h.svc.RunLatency(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err, "failed to compute run latency")
		return
	}
	writeJSON(w, r, adapters.MapDomainStageLatencyToAPI(latency))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, r *http.Request, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error, msg string) {
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Int("status", status).
		Msg(msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Error: msg})
}
