package testutil

import (
	"net/http"
	"time"

	"canon/pkg/requestcontext"
)

// WithFixedTime pins the request-scoped clock, so audit timestamps are
// deterministic in tests.
func WithFixedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
