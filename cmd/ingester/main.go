package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"taxi-analytics/internal/config"
	"taxi-analytics/internal/repository"
	"taxi-analytics/internal/services"
	"taxi-analytics/pkg/database"
	"taxi-analytics/pkg/logging"
	"taxi-analytics/pkg/metrics"
)

func main() {
	dataFile := flag.String("data-file", "./data/yellow_tripdata.csv", "CSV file with one month of trip records")
	month := flag.String("month", "", "Expected month (YYYY-MM); pickups outside it are dropped")
	batchSize := flag.Int("batch-size", 1000, "Number of rows to insert in each batch")
	dryRun := flag.Bool("dry-run", false, "Clean and report without writing to the database")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("taxi-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INGESTER_START] Starting trip record ingestion", logging.Fields{
		"version":    "1.0.0",
		"data_file":  *dataFile,
		"month":      *month,
		"batch_size": *batchSize,
		"dry_run":    *dryRun,
	})

	opts := services.IngestionOptions{
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	}

	if *month != "" {
		m, err := time.Parse("2006-01", *month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -month, expected YYYY-MM: %v\n", err)
			os.Exit(1)
		}
		opts.Month = m
	}

	metricsCollector := metrics.NewCollector("taxi_ingester")

	var tripRepo repository.TripRepository
	if !*dryRun {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime(),
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime(),
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		tripRepo = repository.NewTripRepository(db, logger, metricsCollector)
	}

	ingestionService := services.NewIngestionService(tripRepo, cfg.Cleaning, logger, metricsCollector)

	result, err := ingestionService.IngestFile(ctx, *dataFile, opts)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"data_file": *dataFile,
		}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Rows:     %d\n", result.Report.TotalRows)
	fmt.Printf("Kept Rows:      %d\n", result.Report.KeptRows)
	fmt.Printf("Dropped Rows:   %d\n", result.Report.DroppedRows())
	fmt.Printf("Parse Failures: %d\n", result.Report.ParseFailures)
	fmt.Printf("Inserted:       %d\n", result.Inserted)
	fmt.Printf("Duration:       %v\n", result.Duration)
	if result.Duration.Seconds() > 0 {
		fmt.Printf("Rows/Second:    %.2f\n", float64(result.Report.TotalRows)/result.Duration.Seconds())
	}

	if len(result.Report.DroppedByReason) > 0 {
		fmt.Println("\nDropped by reason:")
		reasons := make([]string, 0, len(result.Report.DroppedByReason))
		for reason := range result.Report.DroppedByReason {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Printf("  %-28s %d\n", reason, result.Report.DroppedByReason[reason])
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed successfully", logging.Fields{
		"total_rows":       result.Report.TotalRows,
		"kept_rows":        result.Report.KeptRows,
		"dropped_rows":     result.Report.DroppedRows(),
		"inserted":         result.Inserted,
		"duration_seconds": result.Duration.Seconds(),
	})
}
