package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marketpulse/pricefeed/internal/poller"
	"github.com/marketpulse/pricefeed/internal/window"
)

// PollerState is the read-only poller view the API serves from.
type PollerState interface {
	Ready() bool
	Stats() poller.Stats
}

// Info identifies the running instance in /status responses.
type Info struct {
	InstanceID string
	Version    string
}

type handler struct {
	window  *window.Window
	state   PollerState
	info    Info
	logger  *slog.Logger
	started time.Time
}

// New creates the query surface router.
func New(win *window.Window, state PollerState, info Info, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{
		window:  win,
		state:   state,
		info:    info,
		logger:  logger,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/price", h.handlePrice)
	r.Get("/average", h.handleAverage)
	r.Get("/status", h.handleStatus)

	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.state.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

type priceResponse struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

func (h *handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	pt, ok := h.window.Latest()
	if !ok {
		writeNoData(w)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Price:     pt.Value,
		Timestamp: pt.Timestamp,
		Source:    pt.Source,
	})
}

type averageResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func (h *handler) handleAverage(w http.ResponseWriter, r *http.Request) {
	avg, count, ok := h.window.Average()
	if !ok {
		writeNoData(w)
		return
	}
	writeJSON(w, http.StatusOK, averageResponse{Average: avg, Count: count})
}

type statusResponse struct {
	InstanceID          string     `json:"instance_id"`
	Version             string     `json:"version"`
	UptimeSeconds       int64      `json:"uptime_seconds"`
	SuccessfulFetches   int64      `json:"successful_fetches"`
	FailedFetches       int64      `json:"failed_fetches"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	WindowPoints        int        `json:"window_points"`
	LastError           string     `json:"last_error,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.state.Stats()

	resp := statusResponse{
		InstanceID:          h.info.InstanceID,
		Version:             h.info.Version,
		UptimeSeconds:       int64(time.Since(h.started).Seconds()),
		SuccessfulFetches:   stats.Successes,
		FailedFetches:       stats.Failures,
		ConsecutiveFailures: stats.ConsecutiveFailures,
		WindowPoints:        h.window.Len(),
		LastError:           stats.LastError,
	}
	if !stats.LastSuccess.IsZero() {
		ts := stats.LastSuccess
		resp.LastSuccess = &ts
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeNoData(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no data available"})
}
