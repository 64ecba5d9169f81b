// Package api provides the HTTP server for mortd.
// It exposes the back-office REST API consumed by the advisor UI and the
// CLI: customer pipeline, stage history, fee ledger, and enquiries.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/ledger"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/pipeline"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/reconcile"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
)

// Version is the API version reported on /api/version.
const Version = "0.1.0"

// actorHeader carries the advisor identity for audit attribution.
const actorHeader = "X-Actor"

// idempotencyHeader carries the client's dedup key for unsafe operations.
const idempotencyHeader = "Idempotency-Key"

// Server is the mortd HTTP API server.
type Server struct {
	lifecycle      *pipeline.LifecycleService
	history        *pipeline.HistoryService
	fees           *ledger.FeeService
	sweeper        *reconcile.Sweeper
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(lifecycle *pipeline.LifecycleService, history *pipeline.HistoryService, fees *ledger.FeeService) *Server {
	return &Server{lifecycle: lifecycle, history: history, fees: fees}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetSweeper exposes the reconcile sweep on the API.
func (s *Server) SetSweeper(sw *reconcile.Sweeper) { s.sweeper = sw }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stages", s.handleListStages)
		r.Get("/stages/{stage}/customers", s.handleStageOccupants)

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleCreateCustomer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCustomer)
				r.Post("/stage", s.handleMoveStage)
				r.Get("/history", s.handleListHistory)
				r.Put("/documents/{docType}", s.handleSetDocumentStatus)
				r.Post("/joint-holders", s.handleAddJointHolder)
				r.Delete("/joint-holders/{name}", s.handleRemoveJointHolder)

				r.Get("/fees", s.handleListFees)
				r.Post("/fees", s.handleAddFee)
				r.Get("/fees/summary", s.handleFeeSummary)
				r.Patch("/fees/{feeID}", s.handleUpdateFeeStatus)
				r.Delete("/fees/{feeID}", s.handleRemoveFee)
			})
		})

		r.Route("/enquiries", func(r chi.Router) {
			r.Get("/", s.handleListEnquiries)
			r.Post("/", s.handleCreateEnquiry)
			r.Post("/{id}/convert", s.handleConvertEnquiry)
		})

		r.Get("/reconcile/stats", s.handleReconcileStats)
		r.Post("/reconcile/run", s.handleReconcileRun)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps a service error onto the right status code and
// bumps the relevant failure counters.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrFeeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		observability.InvalidTransitions.Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidFeeAmount), errors.Is(err, domain.ErrInvalidFeeType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrVersionConflict):
		observability.VersionConflicts.Inc()
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyConverted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields so
// client typos fail loudly instead of being silently dropped.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// queryInt parses an integer query parameter, returning def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for the local advisor UI.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Actor, Idempotency-Key")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ww.Status()/100) + "xx"
		observability.HTTPRequests.WithLabelValues(route, status).Inc()
		observability.HTTPDuration.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
	})
}
