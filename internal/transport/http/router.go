// Package httptransport assembles the HTTP API from the domain handlers.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deedflow/internal/admin"
	partyhandler "deedflow/internal/party/handler"
	"deedflow/internal/platform/middleware"
	reporthandler "deedflow/internal/report/handler"
	submissionhandler "deedflow/internal/submission/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Submissions *submissionhandler.Handler
	Reports     *reporthandler.Handler
	Parties     *partyhandler.Handler
	Admin       *admin.Handler
	Registry    *prometheus.Registry
	StaffToken  string
	Logger      *slog.Logger
	Health      func() error
}

// NewRouter builds the full route tree. Party link endpoints are public (the
// token is the credential); everything else mutating is staff-only.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				deps.Logger.ErrorContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	// Public: parties enter through their secure link.
	r.Mount("/party-links", deps.Parties.LinkRoutes())

	// Staff API.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireStaffToken(deps.StaffToken, deps.Logger))
		r.Use(middleware.ContentTypeJSON)
		r.Mount("/submissions", deps.Submissions.Routes())
		r.Mount("/reports", deps.Reports.Routes(deps.Parties.RosterRoutes()))
		r.Mount("/parties", deps.Parties.Routes())
		r.Mount("/admin", deps.Admin.Routes())
	})

	return r
}
