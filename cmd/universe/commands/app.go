package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/universe/internal/external/strike"
	"github.com/wonny/universe/internal/metrics"
	"github.com/wonny/universe/internal/pipeline"
	"github.com/wonny/universe/internal/s0_feed"
	"github.com/wonny/universe/internal/scheduler"
	"github.com/wonny/universe/internal/scheduler/jobs"
	"github.com/wonny/universe/internal/snapshot"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/database"
	"github.com/wonny/universe/pkg/httputil"
	"github.com/wonny/universe/pkg/logger"
	"github.com/wonny/universe/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *metrics.Metrics

	strike       *strike.Client
	store        *snapshot.FileStore
	db           *database.DB         // nil when DATABASE_URL is unset
	repo         *snapshot.Repository // nil when db is nil
	redis        *redis.Client
	publisher    *snapshot.Publisher
	orchestrator *pipeline.Orchestrator
}

// newApp loads config and wires the pipeline. Postgres and Redis are optional.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	feeds, err := config.LoadFeeds(cfg.Feed.MappingFile)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	mapping, err := config.Feed(feeds, cfg.Feed.Name)
	if err != nil {
		return nil, err
	}

	httpClient := httputil.New(cfg, log)
	a.strike = strike.NewClient(httpClient, log.WithField("module", "strike"), cfg.Feed)

	a.store, err = snapshot.NewFileStore(cfg.Data, log)
	if err != nil {
		return nil, err
	}

	var sinks []pipeline.Sink

	if cfg.Database.Enabled() {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.repo = snapshot.NewRepository(a.db.Pool)
		if err := a.repo.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, a.repo)
		log.Info("Connected to database")
	}

	a.redis, err = redis.New(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.publisher = snapshot.NewPublisher(a.redis, log)
	if a.redis.Enabled() {
		sinks = append(sinks, a.publisher)
		log.Info("Connected to redis")
	}

	loc := cfg.Location()
	resolverCfg := s0_feed.ResolverConfig{
		LookbackDays:   cfg.Feed.LookbackDays,
		AttemptTimeout: cfg.Feed.AttemptTimeout,
		Location:       loc,
	}
	if cfg.Feed.SkipClosedDays {
		resolverCfg.Calendar = s0_feed.NewCalendar(loc, cfg.Feed.ExtraHolidays...)
	}

	stages := pipeline.NewStages(a.strike, resolverCfg, mapping, time.Now, log)
	a.orchestrator = pipeline.NewOrchestrator(stages, cfg.Data, a.store, sinks, a.metrics, log)

	return a, nil
}

// newScheduler registers the snapshot and circuit refresh jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(scheduler.Options{
		Location:   a.cfg.Location(),
		MaxRetries: 2,
		RetryDelay: 5 * time.Minute,
	}, a.log)

	if err := sched.AddJob(jobs.NewSnapshotJob(a.orchestrator, a.cfg.Schedule.Snapshot, a.log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewCircuitRefreshJob(a.strike, a.cfg.Data.CircuitFile, a.cfg.Schedule.Circuit, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.db.Close()
}
