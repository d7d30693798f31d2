package http

import (
	nethttp "net/http"

	"livematch-service/internal/http/handlers"
)

// NewRouter registers HTTP routes on a ServeMux.
func NewRouter(handler *handlers.Handler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	mux.HandleFunc("/matches", handler.Matches)
	mux.HandleFunc("/matches/", handler.MatchSubresource)
	return mux
}
