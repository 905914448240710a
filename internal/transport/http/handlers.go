package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"orrery/internal/publish"
	"orrery/pkg/platform/sentinel"
)

// StateReader serves the latest published position per body.
type StateReader interface {
	Latest(ctx context.Context, id string) (publish.PositionUpdate, error)
	List(ctx context.Context) ([]publish.PositionUpdate, error)
}

// Controller pauses and resumes the simulation loop.
type Controller interface {
	Pause() error
	Resume() error
}

// HealthChecker reports whether a downstream dependency is reachable.
// Optional; a nil checker is treated as healthy.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler is the thin HTTP layer over the simulator.
type Handler struct {
	logger *slog.Logger
	state  StateReader
	ctrl   Controller
	health HealthChecker
}

func NewHandler(state StateReader, ctrl Controller, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, state: state, ctrl: ctrl}
}

// WithHealthChecker adds a dependency probe to /healthz.
func (h *Handler) WithHealthChecker(hc HealthChecker) *Handler {
	h.health = hc
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Health(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListBodies(w http.ResponseWriter, r *http.Request) {
	updates, err := h.state.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list bodies failed", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bodies": updates})
}

func (h *Handler) handleGetBody(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	update, err := h.state.Latest(r.Context(), id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			writeErrorJSON(w, http.StatusNotFound, "unknown body")
			return
		}
		h.logger.ErrorContext(r.Context(), "get body failed", "id", id, "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, update)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Pause(); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			writeErrorJSON(w, http.StatusConflict, "simulation is not running")
			return
		}
		h.logger.ErrorContext(r.Context(), "pause failed", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.InfoContext(r.Context(), "simulation paused")
	writeJSON(w, http.StatusOK, map[string]string{"state": "paused"})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Resume(); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			writeErrorJSON(w, http.StatusConflict, "simulation is not paused")
			return
		}
		h.logger.ErrorContext(r.Context(), "resume failed", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.logger.InfoContext(r.Context(), "simulation resumed")
	writeJSON(w, http.StatusOK, map[string]string{"state": "running"})
}
