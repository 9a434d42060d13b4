// Package httpserver builds the process's HTTP server. Timeouts are tuned
// for an interview API: small JSON bodies, no streaming, no long polls.
package httpserver

import (
	"net/http"
	"time"
)

// New wraps the handler in a server with bounded read and idle timeouts so
// a stalled extraction agent cannot pin a connection open.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
