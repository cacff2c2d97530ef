// Package admin exposes staff-only operational endpoints, currently manual
// sweep triggers. Mounted behind the staff token middleware.
package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"deedflow/internal/sweep"
	"deedflow/internal/transport/http/shared"
	dErrors "deedflow/pkg/domain-errors"
)

type Handler struct {
	runner *sweep.Runner
	logger *slog.Logger
}

func New(runner *sweep.Runner, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sweeps/{task}", h.triggerSweep)
	r.Get("/sweeps", h.listSweeps)
	return r
}

// triggerSweep runs one task tick immediately. The tick is synchronous so
// the operator sees failures in their terminal instead of hunting logs.
func (h *Handler) triggerSweep(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "task")
	task, ok := h.runner.Tasks()[name]
	if !ok {
		shared.WriteError(r.Context(), w, h.logger,
			dErrors.New(dErrors.CodeNotFound, "unknown sweep task").Add("task", name))
		return
	}
	now := time.Now().UTC()
	h.logger.InfoContext(r.Context(), "sweep triggered manually", "task", name)
	h.runner.RunOnce(r.Context(), task, now)
	shared.WriteJSON(w, http.StatusAccepted, map[string]any{
		"task":   name,
		"ran_at": now,
	})
}

func (h *Handler) listSweeps(w http.ResponseWriter, r *http.Request) {
	tasks := h.runner.Tasks()
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"tasks": names})
}
