package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/logger"
)

// CircuitFetcher retrieves today's circuit bands
type CircuitFetcher interface {
	FetchCircuitBands(ctx context.Context) (refdata.CircuitDocument, error)
}

// CircuitRefreshJob rewrites the circuit band file before the open
type CircuitRefreshJob struct {
	fetcher  CircuitFetcher
	path     string
	schedule string
	logger   *logger.Logger
}

// NewCircuitRefreshJob creates a new circuit band refresh job
func NewCircuitRefreshJob(fetcher CircuitFetcher, path, schedule string, log *logger.Logger) *CircuitRefreshJob {
	return &CircuitRefreshJob{
		fetcher:  fetcher,
		path:     path,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *CircuitRefreshJob) Name() string {
	return "circuit_refresh"
}

// Schedule returns the cron schedule
func (j *CircuitRefreshJob) Schedule() string {
	return j.schedule
}

// Run fetches the bands and replaces the file. An empty fetch keeps the old file.
func (j *CircuitRefreshJob) Run(ctx context.Context) error {
	doc, err := j.fetcher.FetchCircuitBands(ctx)
	if err != nil {
		return fmt.Errorf("fetch circuit bands: %w", err)
	}
	if len(doc.Data) == 0 {
		return fmt.Errorf("fetch circuit bands: no symbols returned")
	}

	if err := refdata.WriteCircuitBands(j.path, doc); err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"symbols":     len(doc.Data),
		"source_date": doc.SourceDate,
		"path":        j.path,
	}).Info("Circuit bands refreshed")

	return nil
}
