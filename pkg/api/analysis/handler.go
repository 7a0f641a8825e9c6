package analysis

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"valuation_engine/pkg/core/dataset"
	"valuation_engine/pkg/core/dispatch"
	"valuation_engine/pkg/core/utils"
)

const maxBodyBytes = 10 << 20

// Analyzer runs analysis tasks.
type Analyzer interface {
	Analyze(ctx context.Context, task, modelID string, ds dataset.Dataset) dispatch.Result
	AnalyzeBatch(ctx context.Context, task, modelID string, records []dataset.Dataset) []dispatch.Result
	Tasks() []string
}

type AnalyzeRequest struct {
	Task      string         `json:"task" validate:"required"`
	ModelType string         `json:"model_type"`
	Data      map[string]any `json:"data" validate:"required"`
}

type BatchRequest struct {
	Task      string           `json:"task" validate:"required"`
	ModelType string           `json:"model_type"`
	Records   []map[string]any `json:"records" validate:"required,min=1"`
}

type AnalyzeResponse struct {
	AnalysisID string          `json:"analysis_id"`
	Task       string          `json:"task"`
	Result     dispatch.Result `json:"result"`
}

type BatchResponse struct {
	BatchID string            `json:"batch_id"`
	Task    string            `json:"task"`
	Count   int               `json:"count"`
	Results []AnalyzeResponse `json:"results"`
}

type ErrorResponse struct {
	Error string   `json:"error"`
	Tasks []string `json:"supported_tasks,omitempty"`
}

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer     Analyzer
	validate     *validator.Validate
	maxBatchSize int
	log          zerolog.Logger
}

// NewHandler creates a handler. maxBatchSize <= 0 leaves batches unbounded.
func NewHandler(analyzer Analyzer, maxBatchSize int, logger zerolog.Logger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		analyzer:     analyzer,
		validate:     v,
		maxBatchSize: maxBatchSize,
		log:          logger.With().Str("component", "analysis_handler").Logger(),
	}
}

// RegisterRoutes mounts the health check and analysis routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleHealth)
	r.Get("/tasks", h.HandleTasks)
	r.Post("/analyze", h.HandleAnalyze)
	r.Post("/analyze/batch", h.HandleBatch)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "service": "valuation_engine"})
}

func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string][]string{"tasks": h.analyzer.Tasks()})
}

func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.checkTask(w, r, req.Task) {
		return
	}

	id := uuid.NewString()
	res := h.analyzer.Analyze(r.Context(), req.Task, req.ModelType, dataset.Normalize(req.Data))
	h.log.Info().
		Str("analysis_id", id).
		Str("task", req.Task).
		Bool("failed", res.Failed()).
		Msg("analysis served")

	render.JSON(w, r, AnalyzeResponse{AnalysisID: id, Task: req.Task, Result: res})
}

func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.checkTask(w, r, req.Task) {
		return
	}
	if h.maxBatchSize > 0 && len(req.Records) > h.maxBatchSize {
		h.fail(w, r, http.StatusRequestEntityTooLarge, "batch exceeds the maximum of records", nil)
		return
	}

	records := make([]dataset.Dataset, len(req.Records))
	for i, raw := range req.Records {
		records[i] = dataset.Normalize(raw)
	}
	results := h.analyzer.AnalyzeBatch(r.Context(), req.Task, req.ModelType, records)

	resp := BatchResponse{BatchID: uuid.NewString(), Task: req.Task, Count: len(results)}
	for _, res := range results {
		resp.Results = append(resp.Results, AnalyzeResponse{AnalysisID: uuid.NewString(), Task: req.Task, Result: res})
	}
	h.log.Info().Str("batch_id", resp.BatchID).Str("task", req.Task).Int("count", resp.Count).Msg("batch served")
	render.JSON(w, r, resp)
}

// decode reads a lenient JSON body into v and validates it. It writes the error
// response and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, http.StatusRequestEntityTooLarge, "request body too large", nil)
		return false
	}
	strategy, err := utils.LenientUnmarshal(body, v)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return false
	}
	if strategy != utils.StrategyJSON {
		h.log.Debug().Str("strategy", string(strategy)).Msg("request body repaired")
	}
	if err := h.validate.Struct(v); err != nil {
		h.fail(w, r, http.StatusBadRequest, validationMessage(err), nil)
		return false
	}
	return true
}

func (h *Handler) checkTask(w http.ResponseWriter, r *http.Request, task string) bool {
	tasks := h.analyzer.Tasks()
	if slices.Contains(tasks, task) {
		return true
	}
	h.fail(w, r, http.StatusBadRequest, "unknown task: "+task, tasks)
	return false
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string, tasks []string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Tasks: tasks})
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
