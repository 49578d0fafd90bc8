package validation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/exp/maps"

	"github.com/signal-works/pulse/pkg/adapters"
	"github.com/signal-works/pulse/pkg/models/api"
	"github.com/signal-works/pulse/pkg/models/domain"
	storemodels "github.com/signal-works/pulse/pkg/models/store"
	"github.com/signal-works/pulse/pkg/server/metrics"
	"github.com/signal-works/pulse/pkg/services/ingest"
	"github.com/signal-works/pulse/pkg/services/validator"
	runstore "github.com/signal-works/pulse/pkg/store/duckdb/run"
)

const defaultListLimit = 50

// Runner runs validations; the concrete implementation lives in the
// validator service.
type Runner interface {
	Run(ctx context.Context, provider validator.DatasetProvider, req validator.RunRequest) domain.ValidationReport
}

// RunStore persists finished runs.
type RunStore interface {
	Add(ctx context.Context, rec storemodels.RunRecord) error
	Get(ctx context.Context, id string) (storemodels.RunRecord, error)
	List(ctx context.Context, limit int) ([]storemodels.RunRecord, error)
}

type Handler struct {
	runner  Runner
	store   RunStore
	metrics *metrics.Metrics
}

func NewHandler(runner Runner, store RunStore, m *metrics.Metrics) *Handler {
	return &Handler{
		runner:  runner,
		store:   store,
		metrics: m,
	}
}

// CreateRun validates inline datasets and returns the full report. The run
// is persisted best effort; a storage failure is logged, not surfaced.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		h.metrics.IncrementResponse("create_run", strconv.Itoa(http.StatusBadRequest))
		return
	}
	if len(req.Datasets) == 0 {
		http.Error(w, "datasets must not be empty", http.StatusBadRequest)
		h.metrics.IncrementResponse("create_run", strconv.Itoa(http.StatusBadRequest))
		return
	}

	runReq := validator.RunRequest{
		SkipCross:   req.SkipCross,
		SkipReality: req.SkipReality,
	}
	for _, name := range req.Domains {
		d, err := domain.ParseDomain(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			h.metrics.IncrementResponse("create_run", strconv.Itoa(http.StatusBadRequest))
			return
		}
		runReq.Domains = append(runReq.Domains, d)
	}
	if len(req.Weights) > 0 {
		runReq.Weights = make(map[domain.Domain]float64, len(req.Weights))
		for name, weight := range req.Weights {
			d, err := domain.ParseDomain(name)
			if err != nil {
				http.Error(w, "weights: "+err.Error(), http.StatusBadRequest)
				h.metrics.IncrementResponse("create_run", strconv.Itoa(http.StatusBadRequest))
				return
			}
			runReq.Weights[d] = weight
		}
	}

	tables := ingest.FromRows(req.Datasets)
	names := maps.Keys(tables)
	sort.Strings(names)
	logger.Info().Strs("tables", names).Int("domains", len(runReq.Domains)).Msg("starting validation run")

	started := time.Now()
	report := h.runner.Run(ctx, ingest.NewStatic(tables), runReq)
	h.metrics.ObserveRun(report.Label, report.Index.Score, time.Since(started))

	if h.store != nil {
		rec, err := adapters.MapValidationReportDomainToStore(report)
		if err == nil {
			err = h.store.Add(ctx, rec)
		}
		if err != nil {
			logger.Error().Err(err).Str("run_id", report.RunID).Msg("failed to persist run")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	h.metrics.IncrementResponse("create_run", strconv.Itoa(http.StatusCreated))
	if err := json.NewEncoder(w).Encode(adapters.MapValidationReportDomainToApi(report)); err != nil {
		logger.Error().Err(err).Msg("failed to encode validation report")
	}
}

// ListRuns returns stored run summaries, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid 'limit' parameter. Expected a non-negative integer", http.StatusBadRequest)
			h.metrics.IncrementResponse("list_runs", strconv.Itoa(http.StatusBadRequest))
			return
		}
		limit = n
	}

	records, err := h.store.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list runs")
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		h.metrics.IncrementResponse("list_runs", strconv.Itoa(http.StatusInternalServerError))
		return
	}

	response := make([]api.RunSummary, 0, len(records))
	for _, rec := range records {
		response = append(response, adapters.MapRunRecordStoreToApiSummary(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	h.metrics.IncrementResponse("list_runs", strconv.Itoa(http.StatusOK))
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode run summaries")
	}
}

// GetRun returns one stored report by id.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(ctx, id)
	if errors.Is(err, runstore.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		h.metrics.IncrementResponse("get_run", strconv.Itoa(http.StatusNotFound))
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("run_id", id).Msg("failed to load run")
		http.Error(w, "failed to load run", http.StatusInternalServerError)
		h.metrics.IncrementResponse("get_run", strconv.Itoa(http.StatusInternalServerError))
		return
	}

	report, err := adapters.MapRunRecordStoreToApiReport(rec)
	if err != nil {
		logger.Error().Err(err).Str("run_id", id).Msg("stored report is unreadable")
		http.Error(w, "stored report is unreadable", http.StatusInternalServerError)
		h.metrics.IncrementResponse("get_run", strconv.Itoa(http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.metrics.IncrementResponse("get_run", strconv.Itoa(http.StatusOK))
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.Error().Err(err).Str("run_id", id).Msg("failed to encode run report")
	}
}

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
