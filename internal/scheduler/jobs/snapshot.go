package jobs

import (
	"context"
	"time"

	"github.com/wonny/universe/internal/pipeline"
	"github.com/wonny/universe/pkg/logger"
)

// Runner runs the enrichment pipeline once
type Runner interface {
	Run(ctx context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error)
}

// SnapshotJob builds the daily universe snapshot
// ⭐ SSOT: 일별 스냅샷 생성 스케줄은 이 Job에서만
type SnapshotJob struct {
	runner   Runner
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(runner Runner, schedule string, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{
		runner:   runner,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "universe_snapshot"
}

// Schedule returns the cron schedule (weekdays after the close by default)
func (j *SnapshotJob) Schedule() string {
	return j.schedule
}

// Run resolves from the current time and writes the snapshot
func (j *SnapshotJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled universe snapshot")

	result, err := j.runner.Run(ctx, pipeline.RunConfig{Start: j.now()})
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"trade_date": result.TradeDate,
		"count":      result.Snapshot.Count(),
		"files":      result.Files,
	}).Info("Universe snapshot generated")

	return nil
}
