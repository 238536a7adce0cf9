package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
	"github.com/gyaneshwarpardhi/kycguard/internal/engine"
	"github.com/gyaneshwarpardhi/kycguard/internal/pipeline"
	"github.com/gyaneshwarpardhi/kycguard/internal/record"
	"github.com/gyaneshwarpardhi/kycguard/internal/store"
)

const (
	maxBatchSize = 100
	maxBodyBytes = 8 << 20
)

// Deps are the collaborators of the HTTP handler.
type Deps struct {
	Engine *engine.Engine
	Loader *config.Loader
	Store  store.Store
	// Build turns a reloaded config into a pipeline.
	Build  func(*config.Config) (*pipeline.Pipeline, error)
	Logger *slog.Logger
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	Deps
	mux *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &Handler{Deps: d, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/evaluate", h.evaluate)
	h.mux.HandleFunc("POST /v1/evaluate/trace", h.trace)
	h.mux.HandleFunc("POST /v1/evaluate/batch", h.evaluateBatch)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /v1/decisions", h.listDecisions)
	h.mux.HandleFunc("GET /v1/decisions/{id}", h.getDecision)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(d.Logger, h.mux)
}

type evaluateResponse struct {
	DecisionID string `json:"decision_id"`
	*engine.Result
	Problems []string `json:"problems,omitempty"`
}

// POST /v1/evaluate: decide one packet synchronously.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	h.evaluateOne(w, r, false)
}

// POST /v1/evaluate/trace: run every rule and return all outcomes.
func (h *Handler) trace(w http.ResponseWriter, r *http.Request) {
	h.evaluateOne(w, r, true)
}

func (h *Handler) evaluateOne(w http.ResponseWriter, r *http.Request, trace bool) {
	var in record.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := withID(in)

	var (
		res *engine.Result
		err error
	)
	if trace {
		res, err = h.Engine.Trace(r.Context(), rec)
	} else {
		var d pipeline.Decision
		d, err = h.Engine.Evaluate(r.Context(), rec)
		res = &engine.Result{Decision: d}
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	entry := h.save(r, res)
	writeJSON(w, http.StatusOK, evaluateResponse{DecisionID: entry, Result: res, Problems: rec.Problems()})
}

type batchItem struct {
	RecordID   string             `json:"record_id"`
	DecisionID string             `json:"decision_id,omitempty"`
	Decision   *pipeline.Decision `json:"decision,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// POST /v1/evaluate/batch: decide up to 100 packets; results keep input order.
func (h *Handler) evaluateBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []record.Input
	if err := decode(w, r, &inputs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one record")
		return
	}
	if len(inputs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(inputs), maxBatchSize))
		return
	}

	recs := make([]*record.ClientRecord, len(inputs))
	for i, in := range inputs {
		recs[i] = withID(in)
	}
	items := h.Engine.EvaluateBatch(r.Context(), recs, false)

	out := make([]batchItem, len(items))
	accepted := 0
	for i, it := range items {
		out[i].RecordID = it.RecordID
		if it.Err != nil {
			out[i].Error = it.Err.Error()
			continue
		}
		out[i].Decision = &it.Result.Decision
		out[i].DecisionID = h.save(r, it.Result)
		if it.Result.Decision.Accept {
			accepted++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(items),
		"accepted": accepted,
		"results":  out,
	})
}

// save stores the result and returns the entry id, or "" when storing failed.
// A store outage never fails the evaluation itself.
func (h *Handler) save(r *http.Request, res *engine.Result) string {
	if h.Store == nil {
		return ""
	}
	e, err := h.Store.Save(r.Context(), store.Entry{Decision: res.Decision, Trace: res.Trace})
	if err != nil {
		h.Logger.Error("storing decision failed", "record", res.Decision.RecordID, "error", err)
		return ""
	}
	return e.ID.String()
}

// GET /v1/rules: list the active pipeline.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	cfg := h.Loader.Config()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  cfg.Version,
		"rules":    h.Engine.Pipeline().Rules(),
		"policies": cfg.Policies,
	})
}

// POST /v1/rules/reload: re-read the config from disk and swap the pipeline.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	p, err := h.Build(cfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.Engine.SwapPipeline(p)
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":    true,
		"version":     cfg.Version,
		"rules_count": p.Len(),
	})
}

// GET /v1/decisions?record_id=&limit=: newest decisions first.
func (h *Handler) listDecisions(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{RecordID: r.URL.Query().Get("record_id")}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
			return
		}
		opts.Limit = n
	}
	entries, err := h.Store.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": entries})
}

// GET /v1/decisions/{id}
func (h *Handler) getDecision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "decision id must be a UUID")
		return
	}
	e, err := h.Store.Get(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the record queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.Engine.QueueUtilization()
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %s", err)
	}
	return nil
}

func withID(in record.Input) *record.ClientRecord {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	return in.Record()
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, engine.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
