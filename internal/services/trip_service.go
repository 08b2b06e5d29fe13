package services

import (
	"context"

	"taxi-analytics/internal/models"
	"taxi-analytics/internal/repository"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// TripService handles raw trip record access
type TripService struct {
	repo    repository.TripRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewTripService creates a new trip service
func NewTripService(repo repository.TripRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TripService {
	return &TripService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ListTrips retrieves trips matching the filter with pagination
func (s *TripService) ListTrips(ctx context.Context, filter repository.TripFilter, limit, offset int) ([]*models.Trip, int, error) {
	return s.repo.ListTrips(ctx, filter, limit, offset)
}

// HealthCheck verifies the underlying store is reachable
func (s *TripService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
