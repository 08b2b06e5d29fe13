package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"taxi-analytics/internal/config"
	"taxi-analytics/internal/models"
	"taxi-analytics/internal/repository"
	"taxi-analytics/internal/services"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

var testMetrics = metrics.NewCollector("test_handlers")

func testLoggerDiscard() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

// stubRepo implements repository.TripRepository backed by canned data
type stubRepo struct {
	lastFilter repository.TripFilter
	trips      []*models.Trip
	healthErr  error
}

func (s *stubRepo) InsertTripsBatch(ctx context.Context, trips []*models.Trip) error {
	return nil
}

func (s *stubRepo) ListTrips(ctx context.Context, filter repository.TripFilter, limit, offset int) ([]*models.Trip, int, error) {
	s.lastFilter = filter
	return s.trips, len(s.trips), nil
}

func (s *stubRepo) Summary(ctx context.Context, filter repository.TripFilter) (*models.TripSummary, error) {
	s.lastFilter = filter
	return &models.TripSummary{TotalTrips: int64(len(s.trips))}, nil
}

func (s *stubRepo) TripsByHour(ctx context.Context, filter repository.TripFilter) ([]*models.HourBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) TripsByWeekday(ctx context.Context, filter repository.TripFilter) ([]*models.WeekdayBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) FareHistogram(ctx context.Context, filter repository.TripFilter, bucketWidth float64, bucketCount int) ([]*models.FareBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) PaymentBreakdown(ctx context.Context, filter repository.TripFilter) ([]*models.PaymentBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) TopPickupZones(ctx context.Context, filter repository.TripFilter, limit int) ([]*models.ZoneBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) TopZonePairs(ctx context.Context, filter repository.TripFilter, limit int) ([]*models.ZonePairBucket, error) {
	s.lastFilter = filter
	return nil, nil
}

func (s *stubRepo) DateBounds(ctx context.Context) (*models.DateBounds, error) {
	return &models.DateBounds{}, nil
}

func (s *stubRepo) DistinctPaymentTypes(ctx context.Context) ([]int, error) {
	return []int{1, 2}, nil
}

func (s *stubRepo) DistinctPickupZones(ctx context.Context) ([]int, error) {
	return []int{161, 236}, nil
}

func (s *stubRepo) HealthCheck(ctx context.Context) error {
	return s.healthErr
}

func newTestRouter(repo repository.TripRepository) *mux.Router {
	logger := testLoggerDiscard()

	cfg := config.New()
	tripService := services.NewTripService(repo, logger, testMetrics)
	analyticsService := services.NewAnalyticsService(repo, cfg.Analytics, logger, testMetrics)
	handler := NewTripHandler(tripService, analyticsService, logger, testMetrics)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *mux.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestGetSummary verifies the happy path returns a JSON summary
func TestGetSummary(t *testing.T) {
	repo := &stubRepo{trips: []*models.Trip{{}, {}}}
	router := newTestRouter(repo)

	rec := doRequest(t, router, "/api/analytics/summary")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var summary models.TripSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if summary.TotalTrips != 2 {
		t.Errorf("TotalTrips = %d, want 2", summary.TotalTrips)
	}
}

// TestGetSummary_PaymentFilterReachesStore verifies the payment filter
// propagates through to the aggregate query
func TestGetSummary_PaymentFilterReachesStore(t *testing.T) {
	repo := &stubRepo{}
	router := newTestRouter(repo)

	rec := doRequest(t, router, "/api/analytics/summary?payment_types=1,2&hour_min=6&hour_max=20&pickup_zones=161,236")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(repo.lastFilter.PaymentTypes) != 2 {
		t.Errorf("PaymentTypes = %v, want [1 2]", repo.lastFilter.PaymentTypes)
	}
	if repo.lastFilter.HourMin == nil || *repo.lastFilter.HourMin != 6 {
		t.Errorf("HourMin = %v, want 6", repo.lastFilter.HourMin)
	}
	if len(repo.lastFilter.PickupZones) != 2 || repo.lastFilter.PickupZones[0] != 161 {
		t.Errorf("PickupZones = %v, want [161 236]", repo.lastFilter.PickupZones)
	}
}

// TestFilterValidation covers the malformed-filter responses
func TestFilterValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad start_date", "/api/analytics/summary?start_date=01-05-2024", http.StatusBadRequest},
		{"bad end_date", "/api/analytics/summary?end_date=yesterday", http.StatusBadRequest},
		{"start after end", "/api/analytics/summary?start_date=2024-02-01&end_date=2024-01-01", http.StatusBadRequest},
		{"hour_min not an integer", "/api/analytics/hourly?hour_min=noon", http.StatusBadRequest},
		{"hour_min out of range", "/api/analytics/hourly?hour_min=24", http.StatusBadRequest},
		{"hour range inverted", "/api/analytics/hourly?hour_min=20&hour_max=6", http.StatusBadRequest},
		{"empty payment selection", "/api/analytics/payments?payment_types=", http.StatusBadRequest},
		{"non-numeric payment code", "/api/analytics/payments?payment_types=card", http.StatusBadRequest},
		{"empty zone selection", "/api/analytics/zones?pickup_zones=", http.StatusBadRequest},
		{"valid date range", "/api/analytics/summary?start_date=2024-01-01&end_date=2024-01-31", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubRepo{})

			rec := doRequest(t, router, tt.path)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusBadRequest {
				var errResp ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
					t.Fatalf("invalid error body: %v", err)
				}
				if errResp.Code != http.StatusBadRequest {
					t.Errorf("error code = %d, want 400", errResp.Code)
				}
			}
		})
	}
}

// TestGetTrips_Pagination verifies the paginated envelope
func TestGetTrips_Pagination(t *testing.T) {
	repo := &stubRepo{trips: []*models.Trip{{ID: 1}, {ID: 2}, {ID: 3}}}
	router := newTestRouter(repo)

	rec := doRequest(t, router, "/api/trips?page=2&limit=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if resp.Page != 2 || resp.Limit != 2 {
		t.Errorf("page/limit = %d/%d, want 2/2", resp.Page, resp.Limit)
	}
	if resp.Total != 3 {
		t.Errorf("Total = %d, want 3", resp.Total)
	}
	if resp.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", resp.TotalPages)
	}
}

// TestHourlyFillsAllBuckets verifies the hourly endpoint always returns
// 24 rows
func TestHourlyFillsAllBuckets(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doRequest(t, router, "/api/analytics/hourly")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var buckets []*models.HourBucket
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(buckets) != 24 {
		t.Errorf("len(buckets) = %d, want 24", len(buckets))
	}
}

// TestGetDatasetMeta verifies the filter-widget metadata endpoint
func TestGetDatasetMeta(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doRequest(t, router, "/api/meta")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var meta models.DatasetMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(meta.PaymentTypes) != 2 {
		t.Fatalf("len(PaymentTypes) = %d, want 2", len(meta.PaymentTypes))
	}
	if meta.PaymentTypes[0].Label != "Credit card" {
		t.Errorf("PaymentTypes[0].Label = %q, want Credit card", meta.PaymentTypes[0].Label)
	}
	if len(meta.PickupZones) != 2 || meta.PickupZones[0] != 161 {
		t.Errorf("PickupZones = %v, want [161 236]", meta.PickupZones)
	}
}

// TestHealthCheck covers healthy and unhealthy store states
func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := newTestRouter(&stubRepo{})

		rec := doRequest(t, router, "/health")

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		router := newTestRouter(&stubRepo{healthErr: context.DeadlineExceeded})

		rec := doRequest(t, router, "/health")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

// TestDashboardServed verifies the embedded page is reachable at the root
func TestDashboardServed(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doRequest(t, router, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); len(body) == 0 {
		t.Error("dashboard body is empty")
	}
}

// TestDashboardFilterWidgets verifies the sidebar carries a widget for
// every filter parameter the analytics endpoints accept
func TestDashboardFilterWidgets(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doRequest(t, router, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	widgets := []string{
		`id="start"`,
		`id="end"`,
		`id="hmin"`,
		`id="hmax"`,
		`id="payments"`,
		`id="zones"`,
	}
	for _, w := range widgets {
		if !strings.Contains(body, w) {
			t.Errorf("dashboard page missing filter widget %s", w)
		}
	}

	// The zone selection must feed the filter query string.
	if !strings.Contains(body, "pickup_zones") {
		t.Error("dashboard page does not wire the zone selection into the query parameters")
	}
}

// TestErrorResponsesCountedOnce verifies an error response increments
// the request counter exactly once (in the middleware)
func TestErrorResponsesCountedOnce(t *testing.T) {
	router := newTestRouter(&stubRepo{})
	handler := RequestMiddleware(testLoggerDiscard(), testMetrics)(router)

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/fares?hour_min=99", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	counter := testMetrics.APIRequestsTotal.WithLabelValues("/api/analytics/fares", "GET", "400")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Errorf("api_requests_total = %v, want 1", got)
	}
}

// TestOpenAPISpec verifies the docs endpoint returns a spec document
func TestOpenAPISpec(t *testing.T) {
	router := newTestRouter(&stubRepo{})

	rec := doRequest(t, router, "/api/docs")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if spec["openapi"] == "" || spec["openapi"] == nil {
		t.Error("missing openapi version field")
	}
	paths, ok := spec["paths"].(map[string]interface{})
	if !ok {
		t.Fatal("missing paths object")
	}
	if _, ok := paths["/api/analytics/summary"]; !ok {
		t.Error("summary endpoint missing from spec")
	}
}

// TestRequestMiddleware verifies request id propagation to the response
func TestRequestMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if logging.RequestIDFrom(r.Context()) == "" {
			t.Error("request id missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	handler := RequestMiddleware(testLoggerDiscard(), testMetrics)(inner)

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header not set")
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("preserves caller request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
			t.Errorf("X-Request-ID = %q, want req-123", got)
		}
	})
}
