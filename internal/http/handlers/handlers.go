package handlers

import (
	"errors"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"livematch-service/internal/app/matches"
	"livematch-service/internal/domain"
)

type nowFunc func() time.Time

// Handler wires HTTP routes to the match service.
type Handler struct {
	svc    *matches.Service
	logger *slog.Logger
	now    nowFunc
}

// NewHandler constructs a Handler with defaults.
func NewHandler(svc *matches.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic: at least one scoreboard fetch must
// have succeeded.
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if h.svc.Ready() {
		writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
		return
	}
	writeError(w, r, nethttp.StatusServiceUnavailable, "awaiting first scoreboard", h.logger)
}

// Matches returns the current scoreboard.
func (h *Handler) Matches(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	summaries := h.svc.Matches()
	if summaries == nil {
		summaries = []domain.MatchSummary{}
	}
	logger := loggerFromContext(r, h.logger)
	if logger != nil {
		logger.Info("served scoreboard", "count", len(summaries))
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"matches": summaries}, h.logger)
}

// MatchState returns the reconciled state plus display clock for one match.
// Path: /matches/{id}/state
func (h *Handler) MatchState(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	id, ok := matchIDFromPath(r.URL.Path, "/state")
	if !ok {
		writeError(w, r, nethttp.StatusBadRequest, "invalid match id", h.logger)
		return
	}
	view, err := h.svc.State(id)
	if err != nil {
		if errors.Is(err, matches.ErrUnknownMatch) {
			writeError(w, r, nethttp.StatusNotFound, "match not found", h.logger)
			return
		}
		writeError(w, r, nethttp.StatusInternalServerError, "state unavailable", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, view, h.logger)
}

// MatchTimeline returns the merged event timeline for one match.
// Path: /matches/{id}/timeline
func (h *Handler) MatchTimeline(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	id, ok := matchIDFromPath(r.URL.Path, "/timeline")
	if !ok {
		writeError(w, r, nethttp.StatusBadRequest, "invalid match id", h.logger)
		return
	}
	events, err := h.svc.Timeline(id)
	if err != nil {
		if errors.Is(err, matches.ErrUnknownMatch) {
			writeError(w, r, nethttp.StatusNotFound, "match not found", h.logger)
			return
		}
		writeError(w, r, nethttp.StatusInternalServerError, "timeline unavailable", h.logger)
		return
	}
	if events == nil {
		events = []domain.MatchEvent{}
	}
	writeJSON(w, nethttp.StatusOK, map[string]any{"events": events}, h.logger)
}

// MatchSubresource routes /matches/{id}/state and /matches/{id}/timeline.
func (h *Handler) MatchSubresource(w nethttp.ResponseWriter, r *nethttp.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/state"):
		h.MatchState(w, r)
	case strings.HasSuffix(r.URL.Path, "/timeline"):
		h.MatchTimeline(w, r)
	default:
		writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
	}
}

// matchIDFromPath extracts {id} from /matches/{id}{suffix}.
func matchIDFromPath(path, suffix string) (string, bool) {
	trimmed := strings.TrimPrefix(path, "/matches/")
	trimmed = strings.TrimSuffix(trimmed, suffix)
	id, err := url.PathUnescape(trimmed)
	if err != nil || id == "" || strings.ContainsAny(id, " \t/") {
		return "", false
	}
	return id, true
}
