// Package api exposes the HTTP surface: the streaming summarize endpoint,
// request record lookups, health, and metrics.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/config"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/providers"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/store"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/stream"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/summarize"
	"github.com/RenatoSiqueira/smart-summary-sub000/pkg/telemetry/metrics"
)

const defaultListLimit = 50

// Handler carries the dependencies of the HTTP endpoints.
type Handler struct {
	service *summarize.Service
	store   store.Store
	cfg     config.ServerConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler builds the endpoint handler.
func NewHandler(svc *summarize.Service, st store.Store, cfg config.ServerConfig, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: svc,
		store:   st,
		cfg:     cfg,
		logger:  logger.With("component", "api"),
		metrics: m,
	}
}

// Routes returns the request multiplexer with all endpoints registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/summarize", h.handleSummarize)
	mux.HandleFunc("GET /v1/requests/{id}", h.handleGetRequest)
	mux.HandleFunc("GET /v1/requests", h.handleListRequests)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", h.metrics.Handler())
	return mux
}

type summarizeRequest struct {
	Text            string  `json:"text"`
	Model           string  `json:"model,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

func (h *Handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Text) < h.cfg.MinInputChars {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("text must be at least %d characters", h.cfg.MinInputChars))
		return
	}
	if len(req.Text) > h.cfg.MaxInputChars {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("text must be at most %d characters", h.cfg.MaxInputChars))
		return
	}

	id, events, err := h.service.Summarize(r.Context(), summarize.Input{
		Text:         req.Text,
		ClientOrigin: r.Header.Get("Origin"),
		Options: providers.Options{
			Model:           req.Model,
			MaxOutputTokens: req.MaxOutputTokens,
			Temperature:     req.Temperature,
		},
	})

	ew, werr := newEventWriter(w)
	if werr != nil {
		h.logger.Error("streaming unsupported by response writer")
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("X-Request-Id", id)

	if err != nil {
		// No provider configured. The stream still opens so the client sees
		// a well-formed error frame instead of a dropped connection.
		if werr := ew.Write(stream.Fail(err)); werr != nil {
			h.logger.Debug("client gone before error frame", "record_id", id)
		}
		return
	}

	ctx := r.Context()
	for ev := range events {
		if err := ew.Write(ev); err != nil {
			// Client disconnect. The request context cancellation stops the
			// upstream; drain what remains so the producer can close.
			h.logger.Debug("stream write failed, client disconnected",
				"record_id", id, "error", err)
			go drain(events)
			return
		}
		if ctx.Err() != nil {
			go drain(events)
			return
		}
	}
}

func drain(events <-chan stream.Event) {
	for range events {
	}
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.FindByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load request record", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list request records", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": recs})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
