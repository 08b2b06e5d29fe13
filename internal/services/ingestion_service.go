package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taxi-analytics/internal/config"
	"taxi-analytics/internal/models"
	"taxi-analytics/internal/repository"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

// Cleaning drop reasons reported in the CleanReport.
const (
	DropPickupAfterDropoff = "pickup_after_dropoff"
	DropNegativeFare       = "negative_fare"
	DropNegativeTotal      = "negative_total"
	DropBadDistance        = "implausible_distance"
	DropBadDuration        = "implausible_duration"
	DropBadPassengers      = "implausible_passenger_count"
	DropOutsideMonth       = "outside_month"
	DropUnknownPayment     = "unknown_payment_code"
)

// Required CSV columns, lowercased. Matches the TLC yellow taxi trip
// record layout.
var requiredColumns = []string{
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"trip_distance",
	"pulocationid",
	"dolocationid",
	"payment_type",
	"fare_amount",
}

// IngestionService loads a month of trip records from a CSV file,
// cleans them, derives the feature columns, and batch-inserts the
// surviving rows.
type IngestionService struct {
	repo    repository.TripRepository
	limits  config.CleaningConfig
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionOptions controls a single ingestion run.
type IngestionOptions struct {
	// Month is the first day of the expected month; pickups outside
	// [Month, Month+1) are dropped. The zero value disables the check.
	Month     time.Time
	BatchSize int
	// DryRun cleans and reports without touching the database.
	DryRun bool
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Report   models.CleanReport
	Inserted int
	Duration time.Duration
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.TripRepository, limits config.CleaningConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		limits:  limits,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile ingests a single trip record CSV file
func (s *IngestionService) IngestFile(ctx context.Context, path string, opts IngestionOptions) (*IngestionResult, error) {
	startTime := time.Now()

	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}

	s.logger.Info(ctx, "[INGEST_START] Starting trip ingestion", logging.Fields{
		"path":       path,
		"batch_size": opts.BatchSize,
		"dry_run":    opts.DryRun,
	})

	file, err := os.Open(path)
	if err != nil {
		return nil, &models.IngestError{Path: path, Message: fmt.Sprintf("cannot open dataset file: %v", err)}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, &models.IngestError{Path: path, Message: fmt.Sprintf("cannot read header row: %v", err)}
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, &models.IngestError{Path: path, Message: err.Error()}
	}

	result := &IngestionResult{
		Report: models.CleanReport{
			DroppedByReason: make(map[string]int),
		},
	}

	batch := make([]*models.Trip, 0, opts.BatchSize)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Report.TotalRows++
				result.Report.ParseFailures++
				s.metrics.IngestParseErrsTotal.Inc()
				continue
			}
			return nil, &models.IngestError{Path: path, Message: fmt.Sprintf("error reading dataset: %v", err)}
		}

		result.Report.TotalRows++

		raw := columns.rawTrip(record)
		trip, err := raw.ToTrip()
		if err != nil {
			result.Report.ParseFailures++
			s.metrics.IngestParseErrsTotal.Inc()
			continue
		}

		if reason, ok := s.cleanTrip(trip, opts.Month); !ok {
			result.Report.DroppedByReason[reason]++
			s.metrics.RecordDroppedRow(reason)
			continue
		}

		result.Report.KeptRows++
		batch = append(batch, trip)

		if len(batch) >= opts.BatchSize {
			if err := s.flush(ctx, batch, opts.DryRun, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.flush(ctx, batch, opts.DryRun, result); err != nil {
			return nil, err
		}
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Trip ingestion completed", logging.Fields{
		"total_rows":        result.Report.TotalRows,
		"kept_rows":         result.Report.KeptRows,
		"dropped_rows":      result.Report.DroppedRows(),
		"parse_failures":    result.Report.ParseFailures,
		"dropped_by_reason": result.Report.DroppedByReason,
		"inserted":          result.Inserted,
		"duration_seconds":  result.Duration.Seconds(),
	})

	return result, nil
}

// flush inserts a batch unless the run is a dry run
func (s *IngestionService) flush(ctx context.Context, batch []*models.Trip, dryRun bool, result *IngestionResult) error {
	if dryRun {
		return nil
	}
	if err := s.repo.InsertTripsBatch(ctx, batch); err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}
	result.Inserted += len(batch)
	return nil
}

// cleanTrip applies the row-level cleaning predicates. Returns the drop
// reason and false when the trip should be removed.
func (s *IngestionService) cleanTrip(t *models.Trip, month time.Time) (string, bool) {
	if t.PickupTime.After(t.DropoffTime) {
		return DropPickupAfterDropoff, false
	}
	if t.FareAmount < 0 {
		return DropNegativeFare, false
	}
	if t.TotalAmount < 0 {
		return DropNegativeTotal, false
	}
	if t.TripDistance <= 0 || t.TripDistance > s.limits.MaxTripDistanceMiles {
		return DropBadDistance, false
	}
	if t.DurationMinutes <= 0 || t.DurationMinutes > s.limits.MaxTripDurationMinutes {
		return DropBadDuration, false
	}
	if t.PassengerCount < 0 || t.PassengerCount > s.limits.MaxPassengerCount {
		return DropBadPassengers, false
	}
	if !month.IsZero() {
		start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
		end := start.AddDate(0, 1, 0)
		if t.PickupTime.Before(start) || !t.PickupTime.Before(end) {
			return DropOutsideMonth, false
		}
	}
	if s.limits.StrictPaymentCodes && !models.KnownPaymentType(t.PaymentType) {
		return DropUnknownPayment, false
	}
	return "", true
}

// columnIndexes maps the trip record columns to their CSV positions.
// Optional columns are -1 when absent.
type columnIndexes struct {
	pickup, dropoff, passengers, distance int
	puZone, doZone, payment               int
	fare, tip, total                      int
}

// mapColumns resolves the header row case-insensitively and verifies
// that every required column is present.
func mapColumns(header []string) (*columnIndexes, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := positions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("schema mismatch: missing columns %s", strings.Join(missing, ", "))
	}

	optional := func(name string) int {
		if i, ok := positions[name]; ok {
			return i
		}
		return -1
	}

	return &columnIndexes{
		pickup:     positions["tpep_pickup_datetime"],
		dropoff:    positions["tpep_dropoff_datetime"],
		passengers: optional("passenger_count"),
		distance:   positions["trip_distance"],
		puZone:     positions["pulocationid"],
		doZone:     positions["dolocationid"],
		payment:    positions["payment_type"],
		fare:       positions["fare_amount"],
		tip:        optional("tip_amount"),
		total:      optional("total_amount"),
	}, nil
}

// rawTrip extracts a RawTrip from a CSV record
func (c *columnIndexes) rawTrip(record []string) *models.RawTrip {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	return &models.RawTrip{
		PickupDatetime:  field(c.pickup),
		DropoffDatetime: field(c.dropoff),
		PassengerCount:  field(c.passengers),
		TripDistance:    field(c.distance),
		PickupZoneID:    field(c.puZone),
		DropoffZoneID:   field(c.doZone),
		PaymentType:     field(c.payment),
		FareAmount:      field(c.fare),
		TipAmount:       field(c.tip),
		TotalAmount:     field(c.total),
	}
}
