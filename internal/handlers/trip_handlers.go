package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"taxi-analytics/internal/repository"
	"taxi-analytics/internal/services"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// TripHandler handles the trip and analytics API endpoints
type TripHandler struct {
	tripService      *services.TripService
	analyticsService *services.AnalyticsService
	logger           *logging.StructuredLogger
	metrics          *metrics.Collector
}

// NewTripHandler creates a new trip handler
func NewTripHandler(
	tripService *services.TripService,
	analyticsService *services.AnalyticsService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *TripHandler {
	return &TripHandler{
		tripService:      tripService,
		analyticsService: analyticsService,
		logger:           logger,
		metrics:          metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// parseTripFilter builds a TripFilter from query parameters. A payment
// or zone parameter that is present but selects nothing is an error:
// the dashboard sends it when the user deselects everything.
func parseTripFilter(q url.Values) (repository.TripFilter, error) {
	var filter repository.TripFilter

	if s := q.Get("start_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, &services.QueryError{Message: "invalid start_date format, expected YYYY-MM-DD"}
		}
		filter.StartDate = &d
	}

	if s := q.Get("end_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return filter, &services.QueryError{Message: "invalid end_date format, expected YYYY-MM-DD"}
		}
		filter.EndDate = &d
	}

	if s := q.Get("hour_min"); s != "" {
		h, err := strconv.Atoi(s)
		if err != nil {
			return filter, &services.QueryError{Message: "invalid hour_min, expected integer"}
		}
		filter.HourMin = &h
	}

	if s := q.Get("hour_max"); s != "" {
		h, err := strconv.Atoi(s)
		if err != nil {
			return filter, &services.QueryError{Message: "invalid hour_max, expected integer"}
		}
		filter.HourMax = &h
	}

	if q.Has("payment_types") {
		codes, err := parseIntList(q.Get("payment_types"))
		if err != nil || len(codes) == 0 {
			return filter, &services.QueryError{Message: "payment_types must be a non-empty comma-separated list of codes"}
		}
		filter.PaymentTypes = codes
	}

	if q.Has("pickup_zones") {
		zones, err := parseIntList(q.Get("pickup_zones"))
		if err != nil || len(zones) == 0 {
			return filter, &services.QueryError{Message: "pickup_zones must be a non-empty comma-separated list of zone ids"}
		}
		filter.PickupZones = zones
	}

	return filter, nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// GetTrips handles GET /api/trips
func (h *TripHandler) GetTrips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseTripFilter(r.URL.Query())
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	limit := 100

	if s := r.URL.Query().Get("page"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			page = p
		}
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := (page - 1) * limit

	trips, total, err := h.tripService.ListTrips(ctx, filter, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_TRIPS_ERROR] Failed to list trips", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/trips")
		h.sendError(w, r, "failed to retrieve trips", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	h.sendJSON(w, PaginatedResponse{
		Data:       trips,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, http.StatusOK)
}

// analyticsEndpoint wraps the shared parse-query-respond cycle of the
// aggregate endpoints.
func (h *TripHandler) analyticsEndpoint(endpoint string, query func(r *http.Request, filter repository.TripFilter) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, err := parseTripFilter(r.URL.Query())
		if err != nil {
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}

		result, err := query(r, filter)
		if err != nil {
			var queryErr *services.QueryError
			if errors.As(err, &queryErr) {
				h.sendError(w, r, queryErr.Message, http.StatusBadRequest)
				return
			}
			h.logger.Error(ctx, "[API_ANALYTICS_ERROR] Aggregate query failed", logging.Fields{
				"endpoint": endpoint,
			}, err)
			h.metrics.RecordAPIError("internal_error", endpoint)
			h.sendError(w, r, "failed to compute aggregate", http.StatusInternalServerError)
			return
		}

		h.sendJSON(w, result, http.StatusOK)
	}
}

// GetDatasetMeta handles GET /api/meta
func (h *TripHandler) GetDatasetMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meta, err := h.analyticsService.DatasetMeta(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_META_ERROR] Failed to get dataset meta", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/meta")
		h.sendError(w, r, "failed to retrieve dataset metadata", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, meta, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *TripHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.tripService.HealthCheck(ctx); err != nil {
		h.sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *TripHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response. Request counting is left to the
// middleware, which records every response by status.
func (h *TripHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	if statusCode >= 400 && statusCode < 500 {
		h.metrics.RecordAPIError("bad_request", r.URL.Path)
	}

	h.sendJSON(w, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}, statusCode)
}

// RegisterRoutes registers all API routes
func (h *TripHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/trips", h.GetTrips).Methods("GET")
	router.HandleFunc("/api/analytics/summary", h.analyticsEndpoint("/api/analytics/summary",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.Summary(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/analytics/hourly", h.analyticsEndpoint("/api/analytics/hourly",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.TripsByHour(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/analytics/weekdays", h.analyticsEndpoint("/api/analytics/weekdays",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.TripsByWeekday(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/analytics/fares", h.analyticsEndpoint("/api/analytics/fares",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.FareHistogram(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/analytics/payments", h.analyticsEndpoint("/api/analytics/payments",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.PaymentBreakdown(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/analytics/zones", h.analyticsEndpoint("/api/analytics/zones",
		func(r *http.Request, f repository.TripFilter) (interface{}, error) {
			return h.analyticsService.ZoneActivity(r.Context(), f)
		})).Methods("GET")
	router.HandleFunc("/api/meta", h.GetDatasetMeta).Methods("GET")
	router.HandleFunc("/api/docs", OpenAPISpec).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/", h.Dashboard).Methods("GET")
}
