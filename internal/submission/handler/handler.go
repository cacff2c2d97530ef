// Package handler exposes the submission intake API.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"deedflow/internal/determination"
	"deedflow/internal/submission/service"
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

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.intake)
	r.Get("/{submissionID}", h.get)
	r.Put("/{submissionID}/attributes", h.reevaluate)
	r.Post("/{submissionID}/override", h.override)
	r.Get("/{submissionID}/determinations", h.history)
	return r
}

type attributesPayload struct {
	PropertyClass       string   `json:"property_class"`
	Financing           string   `json:"financing"`
	RegulatedLender     bool     `json:"regulated_lender"`
	BuyerForm           string   `json:"buyer_form"`
	ExemptionSelections []string `json:"exemption_selections"`
}

func (p attributesPayload) toAttributes() determination.Attributes {
	return determination.Attributes{
		PropertyClass:       determination.PropertyClass(p.PropertyClass),
		Financing:           determination.FinancingMode(p.Financing),
		RegulatedLender:     p.RegulatedLender,
		BuyerForm:           determination.LegalForm(p.BuyerForm),
		ExemptionSelections: p.ExemptionSelections,
	}
}

type intakeRequest struct {
	attributesPayload
	ClosingDate time.Time `json:"closing_date"`
}

func (h *Handler) intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	sub, err := h.service.Intake(r.Context(), service.IntakeRequest{
		Attributes:  req.toAttributes(),
		ClosingDate: req.ClosingDate,
	})
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	subID, err := parseSubmissionID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	sub, err := h.service.Get(r.Context(), subID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) reevaluate(w http.ResponseWriter, r *http.Request) {
	subID, err := parseSubmissionID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	var req attributesPayload
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	sub, err := h.service.Reevaluate(r.Context(), subID, req.toAttributes())
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

type overrideRequest struct {
	Verdict       string `json:"verdict"`
	Justification string `json:"justification"`
}

func (h *Handler) override(w http.ResponseWriter, r *http.Request) {
	subID, err := parseSubmissionID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	var req overrideRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	sub, err := h.service.Override(r.Context(), subID, determination.Verdict(req.Verdict), req.Justification)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	subID, err := parseSubmissionID(r)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	sub, err := h.service.Get(r.Context(), subID)
	if err != nil {
		shared.WriteError(r.Context(), w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub.Determinations)
}

func parseSubmissionID(r *http.Request) (id.SubmissionID, error) {
	subID, err := id.ParseSubmissionID(chi.URLParam(r, "submissionID"))
	if err != nil {
		return id.SubmissionID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid submission id")
	}
	return subID, nil
}
