// Package handler exposes the report lifecycle API.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deedflow/internal/report/models"
	"deedflow/internal/report/service"
	"deedflow/internal/transport/http/shared"
	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Routes returns the report subtree. The roster router mounts under each
// report so its handlers see the reportID route param.
func (h *Handler) Routes(roster chi.Router) chi.Router {
	r := chi.NewRouter()
	r.Get("/{reportID}", h.get)
	r.Post("/{reportID}/collect", h.beginCollecting)
	r.Post("/{reportID}/ready", h.markReady)
	r.Post("/{reportID}/file", h.file)
	r.Post("/{reportID}/abandon", h.abandon)
	r.Get("/{reportID}/audit", h.auditTrail)
	r.Mount("/{reportID}/parties", roster)
	return r
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	repID, err := parseReportID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	rep, err := h.service.Get(r.Context(), repID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) beginCollecting(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.BeginCollecting)
}

func (h *Handler) markReady(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.MarkReady)
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.File)
}

type abandonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) abandon(w http.ResponseWriter, r *http.Request) {
	repID, err := parseReportID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	var req abandonRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	rep, err := h.service.Abandon(r.Context(), repID, req.Reason)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) auditTrail(w http.ResponseWriter, r *http.Request) {
	repID, err := parseReportID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	events, err := h.service.AuditTrail(r.Context(), repID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, repID id.ReportID) (*models.Report, error)) {
	repID, err := parseReportID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	rep, err := op(r.Context(), repID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

func parseReportID(r *http.Request) (id.ReportID, error) {
	repID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		return id.ReportID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid report id")
	}
	return repID, nil
}
