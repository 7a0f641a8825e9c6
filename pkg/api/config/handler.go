package config

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"valuation_engine/pkg/core/config"
)

// ModelSwitcher exposes the engine's prediction model selection.
type ModelSwitcher interface {
	Models() []string
	DefaultModel() string
	SetDefaultModel(id string) error
	Policies() map[string]config.TaskPolicy
}

type Response struct {
	DefaultModel string                       `json:"default_model"`
	Available    []string                     `json:"available"`
	Tasks        map[string]config.TaskPolicy `json:"tasks"`
}

type SwitchRequest struct {
	ModelType string `json:"model_type"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	engine ModelSwitcher
}

// NewHandler creates a new config handler
func NewHandler(engine ModelSwitcher) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/config", h.HandleConfig)
	r.Post("/config/switch", h.HandleSwitch)
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.snapshot())
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.ModelType == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": "model_type is required"})
		return
	}

	if err := h.engine.SetDefaultModel(req.ModelType); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}
	render.JSON(w, r, h.snapshot())
}

func (h *Handler) snapshot() Response {
	return Response{
		DefaultModel: h.engine.DefaultModel(),
		Available:    h.engine.Models(),
		Tasks:        h.engine.Policies(),
	}
}
