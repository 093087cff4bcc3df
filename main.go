package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/prefeitura-rio/regulacao-etl/pkg/config"
	"github.com/prefeitura-rio/regulacao-etl/pkg/database"
	"github.com/prefeitura-rio/regulacao-etl/pkg/logging"
	"github.com/prefeitura-rio/regulacao-etl/pkg/models"
	"github.com/prefeitura-rio/regulacao-etl/pkg/pipeline"
	"github.com/prefeitura-rio/regulacao-etl/pkg/repositories"
	"github.com/prefeitura-rio/regulacao-etl/pkg/transform"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	facilitiesPath := flag.String("facilities", "", "facility registry extract to normalize and upsert (runs before the queue flow)")
	queuePath := flag.String("queue", "", "referral queue extract to clean, anonymize and load")
	anonymize := flag.String("anonymize", "", "anonymization strategy: initials or hash (overrides config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *anonymize != "" {
		cfg.AnonymizeStrategy = *anonymize
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting regulacao-etl",
		zap.String("version", Version),
		zap.String("env", cfg.Env),
		zap.String("anonymize_strategy", cfg.AnonymizeStrategy))

	// Neither flow selected: run the queue flow with the configured
	// default extract, the common single-purpose invocation.
	if *facilitiesPath == "" && *queuePath == "" {
		*queuePath = cfg.QueueCSVPath
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.DatabaseURL,
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	anonymizer, err := transform.NewAnonymizer(cfg.AnonymizeStrategy)
	if err != nil {
		logger.Fatal("Failed to configure anonymizer", zap.Error(err))
	}

	p := pipeline.New(pipeline.Deps{
		Schema:     db,
		Queue:      repositories.NewQueueRepository(db),
		Facilities: repositories.NewFacilityRepository(db),
		Runs:       repositories.NewRunLogRepository(db),
		Anonymizer: anonymizer,
		Logger:     logger,
	})

	// Facilities load first: queue rows reference them by name and the
	// registry must be in place before queue records land.
	if *facilitiesPath != "" {
		summary, err := p.RunFacilities(ctx, *facilitiesPath)
		if err != nil {
			logger.Fatal("Facility run failed",
				zap.String("error", logging.SanitizeError(err)))
		}
		printSummary(summary)
	}

	if *queuePath != "" {
		summary, err := p.Run(ctx, *queuePath)
		if err != nil {
			logger.Fatal("Queue run failed",
				zap.String("error", logging.SanitizeError(err)))
		}
		printSummary(summary)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func printSummary(s models.RunSummary) {
	fmt.Fprintf(os.Stdout, "%s run %s: read=%d deduplicated=%d invalid=%d loaded=%d\n",
		s.Kind, s.RunID, s.Read, s.Deduplicated, s.Invalid, s.Loaded)
}
