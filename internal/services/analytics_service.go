package services

import (
	"context"
	"fmt"
	"time"

	"taxi-analytics/internal/config"
	"taxi-analytics/internal/models"
	"taxi-analytics/internal/repository"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// QueryError represents a malformed filter combination. Non-fatal: the
// dashboard renders a placeholder instead of a chart.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return e.Message
}

// AnalyticsService is the query layer: one operation per analysis, each
// a fixed aggregate over the trips table with the filter applied before
// grouping. Identical table and filter always produce identical output.
type AnalyticsService struct {
	repo    repository.TripRepository
	cfg     config.AnalyticsConfig
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo repository.TripRepository, cfg config.AnalyticsConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalyticsService {
	return &AnalyticsService{
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ValidateFilter rejects filter combinations that cannot produce a
// meaningful result.
func (s *AnalyticsService) ValidateFilter(f repository.TripFilter) error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return &QueryError{Message: "start date is after end date"}
	}
	if f.HourMin != nil && (*f.HourMin < 0 || *f.HourMin > 23) {
		return &QueryError{Message: fmt.Sprintf("hour_min out of range: %d", *f.HourMin)}
	}
	if f.HourMax != nil && (*f.HourMax < 0 || *f.HourMax > 23) {
		return &QueryError{Message: fmt.Sprintf("hour_max out of range: %d", *f.HourMax)}
	}
	if f.HourMin != nil && f.HourMax != nil && *f.HourMin > *f.HourMax {
		return &QueryError{Message: "hour_min is greater than hour_max"}
	}
	return nil
}

// Summary returns the headline measures for the filter
func (s *AnalyticsService) Summary(ctx context.Context, filter repository.TripFilter) (*models.TripSummary, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("summary")()

	return s.repo.Summary(ctx, filter)
}

// TripsByHour returns trip volume per pickup hour, with every hour
// 0-23 present so charts stay aligned across filter changes.
func (s *AnalyticsService) TripsByHour(ctx context.Context, filter repository.TripFilter) ([]*models.HourBucket, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("trips_by_hour")()

	rows, err := s.repo.TripsByHour(ctx, filter)
	if err != nil {
		return nil, err
	}

	buckets := make([]*models.HourBucket, 24)
	for h := range buckets {
		buckets[h] = &models.HourBucket{PickupHour: h}
	}
	for _, row := range rows {
		if row.PickupHour >= 0 && row.PickupHour < 24 {
			buckets[row.PickupHour] = row
		}
	}

	return buckets, nil
}

// TripsByWeekday returns trip volume per weekday, Monday first, all
// seven days present.
func (s *AnalyticsService) TripsByWeekday(ctx context.Context, filter repository.TripFilter) ([]*models.WeekdayBucket, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("trips_by_weekday")()

	rows, err := s.repo.TripsByWeekday(ctx, filter)
	if err != nil {
		return nil, err
	}

	buckets := make([]*models.WeekdayBucket, 7)
	for d := range buckets {
		buckets[d] = &models.WeekdayBucket{Weekday: d}
	}
	for _, row := range rows {
		if row.Weekday >= 0 && row.Weekday < 7 {
			buckets[row.Weekday] = row
		}
	}
	for _, b := range buckets {
		b.Name = models.WeekdayName(b.Weekday)
	}

	return buckets, nil
}

// FareHistogram returns the fare distribution in fixed-width buckets,
// every bucket present, the last one open-ended.
func (s *AnalyticsService) FareHistogram(ctx context.Context, filter repository.TripFilter) ([]*models.FareBucket, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("fare_histogram")()

	rows, err := s.repo.FareHistogram(ctx, filter, s.cfg.FareBucketWidth, s.cfg.FareBucketCount)
	if err != nil {
		return nil, err
	}

	buckets := make([]*models.FareBucket, s.cfg.FareBucketCount)
	for i := range buckets {
		buckets[i] = &models.FareBucket{Bucket: i}
	}
	for _, row := range rows {
		if row.Bucket >= 0 && row.Bucket < len(buckets) {
			buckets[row.Bucket] = row
		}
	}
	for _, b := range buckets {
		b.LowerFare = float64(b.Bucket) * s.cfg.FareBucketWidth
		b.UpperFare = b.LowerFare + s.cfg.FareBucketWidth
	}

	return buckets, nil
}

// PaymentBreakdown returns trip count and revenue per payment type,
// labelled with the TLC names.
func (s *AnalyticsService) PaymentBreakdown(ctx context.Context, filter repository.TripFilter) ([]*models.PaymentBucket, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("payment_breakdown")()

	rows, err := s.repo.PaymentBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.Label = models.PaymentLabel(row.PaymentType)
	}

	return rows, nil
}

// ZoneActivity returns the top pickup zones and pickup-to-dropoff pairs
func (s *AnalyticsService) ZoneActivity(ctx context.Context, filter repository.TripFilter) (*models.ZoneActivity, error) {
	if err := s.ValidateFilter(filter); err != nil {
		return nil, err
	}
	defer s.timeQuery("zone_activity")()

	zones, err := s.repo.TopPickupZones(ctx, filter, s.cfg.TopZonesLimit)
	if err != nil {
		return nil, err
	}

	pairs, err := s.repo.TopZonePairs(ctx, filter, s.cfg.TopZonesLimit)
	if err != nil {
		return nil, err
	}

	return &models.ZoneActivity{
		TopPickupZones: zones,
		TopPairs:       pairs,
	}, nil
}

// DatasetMeta returns the date bounds, payment types, and pickup zones
// present in the loaded dataset; drives the dashboard filter widgets.
func (s *AnalyticsService) DatasetMeta(ctx context.Context) (*models.DatasetMeta, error) {
	defer s.timeQuery("dataset_meta")()

	bounds, err := s.repo.DateBounds(ctx)
	if err != nil {
		return nil, err
	}

	codes, err := s.repo.DistinctPaymentTypes(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]models.PaymentOption, 0, len(codes))
	for _, code := range codes {
		options = append(options, models.PaymentOption{
			Code:  code,
			Label: models.PaymentLabel(code),
		})
	}

	zones, err := s.repo.DistinctPickupZones(ctx)
	if err != nil {
		return nil, err
	}

	return &models.DatasetMeta{
		Bounds:       *bounds,
		PaymentTypes: options,
		PickupZones:  zones,
	}, nil
}

func (s *AnalyticsService) timeQuery(name string) func() {
	start := time.Now()
	return func() {
		s.metrics.AnalyticsQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
