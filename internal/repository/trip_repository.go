package repository

import (
	"context"
	"fmt"
	"time"

	"taxi-analytics/internal/models"
	"taxi-analytics/pkg/database"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// TripRepository provides data access for trip records and the fixed
// aggregate analytics queries. Every aggregate applies the TripFilter
// in the WHERE clause before grouping.
type TripRepository interface {
	// Ingestion
	InsertTripsBatch(ctx context.Context, trips []*models.Trip) error

	// Raw rows
	ListTrips(ctx context.Context, filter TripFilter, limit, offset int) ([]*models.Trip, int, error)

	// Aggregates
	Summary(ctx context.Context, filter TripFilter) (*models.TripSummary, error)
	TripsByHour(ctx context.Context, filter TripFilter) ([]*models.HourBucket, error)
	TripsByWeekday(ctx context.Context, filter TripFilter) ([]*models.WeekdayBucket, error)
	FareHistogram(ctx context.Context, filter TripFilter, bucketWidth float64, bucketCount int) ([]*models.FareBucket, error)
	PaymentBreakdown(ctx context.Context, filter TripFilter) ([]*models.PaymentBucket, error)
	TopPickupZones(ctx context.Context, filter TripFilter, limit int) ([]*models.ZoneBucket, error)
	TopZonePairs(ctx context.Context, filter TripFilter, limit int) ([]*models.ZonePairBucket, error)

	// Metadata
	DateBounds(ctx context.Context) (*models.DateBounds, error)
	DistinctPaymentTypes(ctx context.Context) ([]int, error)
	DistinctPickupZones(ctx context.Context) ([]int, error)

	// Utility
	HealthCheck(ctx context.Context) error
}

// tripRepository implements TripRepository on PostgreSQL
type tripRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) TripRepository {
	return &tripRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// InsertTripsBatch inserts trips in a single transaction
func (r *tripRepository) InsertTripsBatch(ctx context.Context, trips []*models.Trip) error {
	if len(trips) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestBatchSize.Observe(float64(len(trips)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(trips),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (
			pickup_time, dropoff_time, passenger_count, trip_distance,
			pickup_zone_id, dropoff_zone_id, payment_type,
			fare_amount, tip_amount, total_amount,
			duration_minutes, pickup_hour, pickup_weekday, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		_, err := stmt.ExecContext(ctx,
			t.PickupTime,
			t.DropoffTime,
			t.PassengerCount,
			t.TripDistance,
			t.PickupZoneID,
			t.DropoffZoneID,
			t.PaymentType,
			t.FareAmount,
			t.TipAmount,
			t.TotalAmount,
			t.DurationMinutes,
			t.PickupHour,
			t.PickupWeekday,
			t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trip: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestRowsTotal.Add(float64(len(trips)))

	return nil
}

// ListTrips retrieves trips matching the filter with pagination
func (r *tripRepository) ListTrips(ctx context.Context, filter TripFilter, limit, offset int) ([]*models.Trip, int, error) {
	where, args, argNum := buildWhere(filter)

	base := `
		SELECT id, pickup_time, dropoff_time, passenger_count, trip_distance,
		       pickup_zone_id, dropoff_zone_id, payment_type,
		       fare_amount, tip_amount, total_amount,
		       duration_minutes, pickup_hour, pickup_weekday, created_at
		FROM trips
	` + where

	countQuery := "SELECT COUNT(*) FROM trips " + where
	var totalCount int
	if err := r.db.GetContext(ctx, "count_trips", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	query := base + fmt.Sprintf(" ORDER BY pickup_time, id LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, limit, offset)

	var trips []*models.Trip
	if err := r.db.SelectContext(ctx, "list_trips", &trips, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}

	return trips, totalCount, nil
}

// Summary calculates the headline measures for the filter
func (r *tripRepository) Summary(ctx context.Context, filter TripFilter) (*models.TripSummary, error) {
	where, args, _ := buildWhere(filter)

	query := `
		SELECT
			COUNT(*) AS total_trips,
			AVG(fare_amount) AS avg_fare,
			SUM(total_amount) AS total_revenue,
			AVG(trip_distance) AS avg_distance,
			AVG(duration_minutes) AS avg_duration_minutes
		FROM trips
	` + where

	var summary models.TripSummary
	if err := r.db.GetContext(ctx, "trip_summary", &summary, query, args...); err != nil {
		return nil, fmt.Errorf("failed to calculate summary: %w", err)
	}

	return &summary, nil
}

// TripsByHour aggregates trip volume and average fare per pickup hour
func (r *tripRepository) TripsByHour(ctx context.Context, filter TripFilter) ([]*models.HourBucket, error) {
	where, args, _ := buildWhere(filter)

	query := `
		SELECT pickup_hour, COUNT(*) AS trip_count, AVG(fare_amount) AS avg_fare
		FROM trips
	` + where + `
		GROUP BY pickup_hour
		ORDER BY pickup_hour
	`

	var buckets []*models.HourBucket
	if err := r.db.SelectContext(ctx, "trips_by_hour", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate trips by hour: %w", err)
	}

	return buckets, nil
}

// TripsByWeekday aggregates trip volume per pickup weekday
func (r *tripRepository) TripsByWeekday(ctx context.Context, filter TripFilter) ([]*models.WeekdayBucket, error) {
	where, args, _ := buildWhere(filter)

	query := `
		SELECT pickup_weekday AS weekday, COUNT(*) AS trip_count, AVG(total_amount) AS avg_total
		FROM trips
	` + where + `
		GROUP BY pickup_weekday
		ORDER BY pickup_weekday
	`

	var buckets []*models.WeekdayBucket
	if err := r.db.SelectContext(ctx, "trips_by_weekday", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate trips by weekday: %w", err)
	}

	return buckets, nil
}

// FareHistogram aggregates fares into fixed-width buckets; fares past
// the last bucket collapse into it
func (r *tripRepository) FareHistogram(ctx context.Context, filter TripFilter, bucketWidth float64, bucketCount int) ([]*models.FareBucket, error) {
	where, args, argNum := buildWhere(filter)

	query := `
		SELECT LEAST(FLOOR(fare_amount / $` + fmt.Sprint(argNum) + `)::int, $` + fmt.Sprint(argNum+1) + ` - 1) AS bucket,
		       COUNT(*) AS trip_count
		FROM trips
	` + where + `
		GROUP BY bucket
		ORDER BY bucket
	`
	args = append(args, bucketWidth, bucketCount)

	var buckets []*models.FareBucket
	if err := r.db.SelectContext(ctx, "fare_histogram", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate fare histogram: %w", err)
	}

	return buckets, nil
}

// PaymentBreakdown aggregates trip count and revenue per payment type
func (r *tripRepository) PaymentBreakdown(ctx context.Context, filter TripFilter) ([]*models.PaymentBucket, error) {
	where, args, _ := buildWhere(filter)

	query := `
		SELECT payment_type, COUNT(*) AS trip_count, SUM(total_amount) AS revenue
		FROM trips
	` + where + `
		GROUP BY payment_type
		ORDER BY payment_type
	`

	var buckets []*models.PaymentBucket
	if err := r.db.SelectContext(ctx, "payment_breakdown", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate payment breakdown: %w", err)
	}

	return buckets, nil
}

// TopPickupZones returns the busiest pickup zones under the filter
func (r *tripRepository) TopPickupZones(ctx context.Context, filter TripFilter, limit int) ([]*models.ZoneBucket, error) {
	where, args, argNum := buildWhere(filter)

	query := `
		SELECT pickup_zone_id AS zone_id, COUNT(*) AS trip_count, AVG(fare_amount) AS avg_fare
		FROM trips
	` + where + fmt.Sprintf(`
		GROUP BY pickup_zone_id
		ORDER BY trip_count DESC, pickup_zone_id
		LIMIT $%d
	`, argNum)
	args = append(args, limit)

	var buckets []*models.ZoneBucket
	if err := r.db.SelectContext(ctx, "top_pickup_zones", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate top pickup zones: %w", err)
	}

	return buckets, nil
}

// TopZonePairs returns the busiest pickup-to-dropoff pairs under the filter
func (r *tripRepository) TopZonePairs(ctx context.Context, filter TripFilter, limit int) ([]*models.ZonePairBucket, error) {
	where, args, argNum := buildWhere(filter)

	query := `
		SELECT pickup_zone_id, dropoff_zone_id, COUNT(*) AS trip_count
		FROM trips
	` + where + fmt.Sprintf(`
		GROUP BY pickup_zone_id, dropoff_zone_id
		ORDER BY trip_count DESC, pickup_zone_id, dropoff_zone_id
		LIMIT $%d
	`, argNum)
	args = append(args, limit)

	var buckets []*models.ZonePairBucket
	if err := r.db.SelectContext(ctx, "top_zone_pairs", &buckets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to aggregate top zone pairs: %w", err)
	}

	return buckets, nil
}

// DateBounds returns the min and max pickup dates in the table
func (r *tripRepository) DateBounds(ctx context.Context) (*models.DateBounds, error) {
	query := `
		SELECT to_char(MIN(pickup_time), 'YYYY-MM-DD') AS min_date,
		       to_char(MAX(pickup_time), 'YYYY-MM-DD') AS max_date
		FROM trips
	`

	var bounds models.DateBounds
	if err := r.db.GetContext(ctx, "date_bounds", &bounds, query); err != nil {
		return nil, fmt.Errorf("failed to get date bounds: %w", err)
	}

	return &bounds, nil
}

// DistinctPaymentTypes returns the payment codes present in the table
func (r *tripRepository) DistinctPaymentTypes(ctx context.Context) ([]int, error) {
	query := `SELECT DISTINCT payment_type FROM trips ORDER BY payment_type`

	var codes []int
	if err := r.db.SelectContext(ctx, "distinct_payment_types", &codes, query); err != nil {
		return nil, fmt.Errorf("failed to get payment types: %w", err)
	}

	return codes, nil
}

// DistinctPickupZones returns the pickup zone ids present in the table
func (r *tripRepository) DistinctPickupZones(ctx context.Context) ([]int, error) {
	query := `SELECT DISTINCT pickup_zone_id FROM trips ORDER BY pickup_zone_id`

	var zones []int
	if err := r.db.SelectContext(ctx, "distinct_pickup_zones", &zones, query); err != nil {
		return nil, fmt.Errorf("failed to get pickup zones: %w", err)
	}

	return zones, nil
}

// HealthCheck performs a repository health check
func (r *tripRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
