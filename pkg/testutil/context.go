package testutil

import (
	"net/http"
	"time"

	"deedflow/pkg/requestcontext"
)

// WithActor stamps the acting staff identity on a request, simulating what
// the staff-token middleware does for authenticated requests.
func WithActor(req *http.Request, actorID string) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actorID)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, so handlers under test see
// a deterministic time.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), at)
	return req.WithContext(ctx)
}

// WithRequestID stamps a correlation ID on a request.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	return req.WithContext(ctx)
}
