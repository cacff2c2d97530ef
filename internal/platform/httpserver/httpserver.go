package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults. Party self-service uploads
// can be slow, so only the header read is bounded here; per-route timeouts
// come from middleware.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
