package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/bugsignal/internal/auth"
	"github.com/austindbirch/bugsignal/internal/logging"
	"github.com/austindbirch/bugsignal/internal/tracing"
	"github.com/austindbirch/bugsignal/internal/webhook"
)

// Server is the operator-facing HTTP surface: enqueue, direct delivery, log
// queries and aggregate stats. Producers inside the process use the
// dispatcher directly; this surface exists for external producers and
// operational consumers.
type Server struct {
	dispatcher *webhook.Dispatcher
	logger     *logging.Logger
}

// NewServer wraps a dispatcher.
func NewServer(d *webhook.Dispatcher) *Server {
	return &Server{
		dispatcher: d,
		logger:     logging.New("bugsignal-api"),
	}
}

// Routes assembles the router. The validator is optional; when nil the API
// is open. The health and metrics handlers are mounted unauthenticated.
func (s *Server) Routes(validator *auth.JWTValidator, healthHandler http.HandlerFunc, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if validator != nil {
		r.Use(validator.HTTPMiddleware)
	}

	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/deliveries", s.handleEnqueue)
		r.Post("/deliveries/sync", s.handleDeliver)
		r.Get("/deliveries/{deliveryID}", s.handleGet)
		r.Get("/logs", s.handleLogs)
		r.Get("/stats", s.handleStats)
	})

	return r
}

type deliveryRequest struct {
	Destination webhook.DestinationConfig `json:"destination"`
	Payload     webhook.DeliveryPayload   `json:"payload"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.enqueue")
	defer span.End()

	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	deliveryID, err := s.dispatcher.Enqueue(req.Destination, req.Payload)
	if err != nil {
		tracing.SetSpanError(ctx, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	span.SetAttributes(attribute.String("delivery_id", deliveryID))
	writeJSON(w, http.StatusAccepted, map[string]string{"delivery_id": deliveryID})
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.StartSpan(r.Context(), "api.deliver")
	defer span.End()

	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.dispatcher.Deliver(ctx, req.Destination, req.Payload)
	if err != nil {
		tracing.SetSpanError(ctx, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	deliveryID := chi.URLParam(r, "deliveryID")
	l, ok := s.dispatcher.Store().Get(deliveryID)
	if !ok {
		writeError(w, http.StatusNotFound, "delivery not found")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	f := webhook.Filter{
		DestinationID: r.URL.Query().Get("destination_id"),
		EventType:     r.URL.Query().Get("event_type"),
	}
	if v := r.URL.Query().Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid success flag")
			return
		}
		f.Success = &b
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp (expected RFC3339)")
			return
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp (expected RFC3339)")
			return
		}
		f.To = t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	logs := s.dispatcher.Store().Query(f)
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs, "count": len(logs)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.dispatcher.Store().ComputeStats(r.URL.Query().Get("destination_id"))
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
