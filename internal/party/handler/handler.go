// Package handler exposes the party roster API and the public secure-link
// endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"deedflow/internal/determination"
	"deedflow/internal/party/models"
	"deedflow/internal/party/service"
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

// Routes are the staff-facing party endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{partyID}", h.get)
	r.Post("/{partyID}/send-link", h.sendLink)
	r.Post("/{partyID}/verify", h.verify)
	r.Post("/{partyID}/request-correction", h.requestCorrection)
	return r
}

// RosterRoutes are mounted under a report and manage its roster.
func (h *Handler) RosterRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.attach)
	r.Get("/", h.list)
	return r
}

// LinkRoutes are the public endpoints parties reach through their secure
// link. No staff authentication; the token is the credential.
func (h *Handler) LinkRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.resolveLink)
	r.Post("/{token}/payload", h.submitPayload)
	return r
}

type attachRequest struct {
	Role     string `json:"role"`
	Form     string `json:"legal_form"`
	Required bool   `json:"required"`
	Email    string `json:"email"`
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	repID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid report id"))
		return
	}
	var req attachRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.Attach(r.Context(), repID, service.AttachRequest{
		Role:     models.Role(req.Role),
		Form:     determination.LegalForm(req.Form),
		Required: req.Required,
		Email:    req.Email,
	})
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	repID, err := id.ParseReportID(chi.URLParam(r, "reportID"))
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid report id"))
		return
	}
	parties, err := h.service.ListByReport(r.Context(), repID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, parties)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	partyID, err := parsePartyID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.Get(r.Context(), partyID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) sendLink(w http.ResponseWriter, r *http.Request) {
	partyID, err := parsePartyID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.SendLink(r.Context(), partyID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	partyID, err := parsePartyID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.Verify(r.Context(), partyID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

type correctionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) requestCorrection(w http.ResponseWriter, r *http.Request) {
	partyID, err := parsePartyID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	var req correctionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.RequestCorrection(r.Context(), partyID, req.Reason)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) resolveLink(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ResolveLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) submitPayload(w http.ResponseWriter, r *http.Request) {
	var payload models.Payload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	p, err := h.service.SubmitPayload(r.Context(), chi.URLParam(r, "token"), &payload)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func parsePartyID(r *http.Request) (id.PartyID, error) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		return id.PartyID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid party id")
	}
	return partyID, nil
}
