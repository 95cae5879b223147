package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/metrics"
	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/internal/s0_feed"
	"github.com/wonny/universe/internal/s1_universe"
	"github.com/wonny/universe/internal/s2_metrics"
	"github.com/wonny/universe/internal/s3_ranking"
	"github.com/wonny/universe/internal/snapshot"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

// Stage names, in execution order
const (
	StageResolve   = "s0_resolve"
	StageNormalize = "s0_normalize"
	StageChange    = "s1_change"
	StageMerge     = "s1_merge"
	StageCircuit   = "s1_circuit"
	StageExtremes  = "s2_extremes"
	StageTurnover  = "s2_turnover"
	StageRS        = "s3_rs"
	StageAssemble  = "s4_assemble"
)

// Store persists the primary snapshot artifact. Failure fails the run.
type Store interface {
	Save(snap *contracts.Snapshot) ([]string, error)
}

// Sink is a secondary snapshot destination. Failure is logged only.
type Sink interface {
	Name() string
	Write(ctx context.Context, snap *contracts.Snapshot) error
}

// Stages bundles the stage components of one pipeline
type Stages struct {
	Resolver   *s0_feed.Resolver
	Normalizer *s0_feed.Normalizer
	Change     *s1_universe.ChangeCalculator
	Merger     *s1_universe.ReferenceMerger
	Circuit    *s1_universe.CircuitMapper
	Extremes   *s2_metrics.ExtremesReconciler
	Turnover   *s2_metrics.TurnoverAnalyzer
	RS         *s3_ranking.RSRanker
	Assembler  *snapshot.Assembler
}

// NewStages wires every stage with its defaults
func NewStages(fetcher s0_feed.Fetcher, resolverCfg s0_feed.ResolverConfig, mapping config.FeedMapping, clock snapshot.Clock, log *logger.Logger) Stages {
	return Stages{
		Resolver:   s0_feed.NewResolver(fetcher, resolverCfg, log),
		Normalizer: s0_feed.NewNormalizer(mapping, log),
		Change:     s1_universe.NewChangeCalculator(log),
		Merger:     s1_universe.NewReferenceMerger(log),
		Circuit:    s1_universe.NewCircuitMapper(log),
		Extremes:   s2_metrics.NewExtremesReconciler(log),
		Turnover:   s2_metrics.NewTurnoverAnalyzer(log),
		RS:         s3_ranking.NewRSRanker(log),
		Assembler:  snapshot.NewAssembler(clock, log),
	}
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Start  time.Time // resolution starts here and walks backward
	DryRun bool      // assemble but write nothing
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	TradeDate       string
	PrevTradeDate   string
	Success         bool
	Error           error
	CompletedStages []string
	SkippedStages   []string
	References      []refdata.FileStatus
	Snapshot        *contracts.Snapshot
	Files           []string
	SinkErrors      map[string]string
	Duration        time.Duration
}

// Orchestrator runs the ordered enrichment stages
// ⭐ SSOT: 파이프라인 조율은 여기서만 (S0 → S4, 순서 고정)
//
// Runs never overlap: a second Run while one is active returns
// contracts.ErrRunInProgress.
type Orchestrator struct {
	stages  Stages
	data    config.DataConfig
	store   Store
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu sync.Mutex
}

// NewOrchestrator creates a new orchestrator. store may be nil for dry runs only.
func NewOrchestrator(stages Stages, data config.DataConfig, store Store, sinks []Sink, m *metrics.Metrics, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		stages:  stages,
		data:    data,
		store:   store,
		sinks:   sinks,
		metrics: m,
		logger:  log.WithField("module", "pipeline"),
	}
}

// runState carries the universe between stages
type runState struct {
	refs       *refdata.Set
	today      *s0_feed.Resolution
	prev       *s0_feed.Resolution
	prevCloses map[string]float64
	universe   *contracts.Universe
	snapshot   *contracts.Snapshot
}

type stage struct {
	name string
	// skip reports the reference input this stage needs but does not have
	skip func(*runState) string
	run  func(context.Context, *runState) error
}

// Run executes every stage in order, then writes the snapshot
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	if !o.mu.TryLock() {
		o.metrics.RunFinished(metrics.StatusSkipped, time.Now(), time.Now())
		o.logger.Warn("Pipeline run already in progress, skipping")
		return nil, contracts.ErrRunInProgress
	}
	defer o.mu.Unlock()

	startTime := time.Now()
	result := &RunResult{
		CompletedStages: make([]string, 0),
		SinkErrors:      make(map[string]string),
	}

	o.logger.WithFields(map[string]interface{}{
		"start":   cfg.Start.Format(contracts.DateLayout),
		"dry_run": cfg.DryRun,
	}).Info("Starting pipeline run")

	state := &runState{refs: refdata.Load(o.data, o.logger)}
	result.References = state.refs.Status

	for _, st := range o.plan(cfg) {
		if ctx.Err() != nil {
			return o.fail(result, startTime, st.name, ctx.Err())
		}

		if st.skip != nil {
			if missing := st.skip(state); missing != "" {
				o.logger.WithFields(map[string]interface{}{
					"stage":     st.name,
					"reference": missing,
				}).Warn("Reference missing, stage skipped")
				o.metrics.SkipStage(st.name)
				result.SkippedStages = append(result.SkippedStages, st.name)
				continue
			}
		}

		stageStart := time.Now()
		if err := st.run(ctx, state); err != nil {
			return o.fail(result, startTime, st.name, err)
		}
		o.metrics.ObserveStage(st.name, stageStart)
		result.CompletedStages = append(result.CompletedStages, st.name)

		if state.universe != nil {
			result.TradeDate = state.universe.TradeDate
			result.PrevTradeDate = state.universe.PrevTradeDate
		}
	}

	result.Snapshot = state.snapshot
	o.metrics.SetRecords("snapshot", state.snapshot.Count())

	if !cfg.DryRun {
		if err := o.write(ctx, state.snapshot, result); err != nil {
			return o.fail(result, startTime, "write", err)
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)
	o.metrics.RunFinished(metrics.StatusSuccess, startTime, time.Now())

	o.logger.WithFields(map[string]interface{}{
		"trade_date": result.TradeDate,
		"prev_date":  result.PrevTradeDate,
		"count":      state.snapshot.Count(),
		"skipped":    result.SkippedStages,
		"duration":   result.Duration.Seconds(),
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// plan is the fixed stage order. The identity filter inside the merge must
// see codes assigned by the merge, so merge and filter are one stage.
func (o *Orchestrator) plan(cfg RunConfig) []stage {
	s := o.stages
	return []stage{
		{name: StageResolve, run: func(ctx context.Context, st *runState) error {
			today, prev, err := s.Resolver.ResolvePair(ctx, cfg.Start)
			if err != nil {
				return err
			}
			st.today, st.prev = today, prev
			o.metrics.SetResolveAttempts("today", today.Attempts)
			o.metrics.SetResolveAttempts("prev", prev.Attempts)
			return nil
		}},
		{name: StageNormalize, run: func(_ context.Context, st *runState) error {
			today := s.Normalizer.Normalize(st.today.Payload)
			prev := s.Normalizer.Normalize(st.prev.Payload)
			o.metrics.AddMalformed(today.Malformed + prev.Malformed)
			if len(today.Ticks) == 0 {
				return fmt.Errorf("%w: no ticks normalized (%d malformed)", contracts.ErrEmptyUniverse, today.Malformed)
			}

			recs := make([]contracts.Record, len(today.Ticks))
			for i, t := range today.Ticks {
				recs[i] = contracts.RecordFromTick(t)
			}
			st.prevCloses = contracts.Closes(prev.Ticks)
			st.universe = &contracts.Universe{
				TradeDate:     st.today.Day(),
				PrevTradeDate: st.prev.Day(),
				Records:       recs,
			}
			o.metrics.SetRecords("ticks", len(recs))
			return nil
		}},
		{name: StageChange, run: func(_ context.Context, st *runState) error {
			recs, stats := s.Change.Apply(st.universe.Records, st.prevCloses)
			o.metrics.SetCoverage("change_prev_close", stats.FromPrevClose)
			o.metrics.SetCoverage("change_open_fallback", stats.Fallback)
			st.universe = st.universe.WithRecords(recs)
			return nil
		}},
		{
			name: StageMerge,
			skip: func(st *runState) string { return missingIf(st.refs.Sectors == nil, "sector") },
			run: func(_ context.Context, st *runState) error {
				recs, stats, err := s.Merger.Apply(st.universe.Records, st.refs.Sectors)
				if err != nil {
					return err
				}
				o.metrics.SetCoverage("reference", stats.Matched)
				o.metrics.SetRecords("merged", stats.Survivors)
				st.universe = st.universe.WithRecords(recs)
				return nil
			},
		},
		{
			name: StageCircuit,
			skip: func(st *runState) string { return missingIf(st.refs.Circuit == nil, "circuit") },
			run: func(_ context.Context, st *runState) error {
				recs, matched := s.Circuit.Apply(st.universe.Records, st.refs.Circuit)
				o.metrics.SetCoverage("circuit", matched)
				st.universe = st.universe.WithRecords(recs)
				return nil
			},
		},
		{
			name: StageExtremes,
			skip: func(st *runState) string { return missingIf(st.refs.Extremes == nil, "52wk") },
			run: func(_ context.Context, st *runState) error {
				st.universe = st.universe.WithRecords(s.Extremes.Apply(st.universe.Records, st.refs.Extremes))
				return nil
			},
		},
		{name: StageTurnover, run: func(_ context.Context, st *runState) error {
			recs, stats := s.Turnover.Apply(st.universe.Records, st.refs.History, st.universe.TradeDate)
			o.metrics.SetCoverage("turnover_history", stats.WithHistory)
			o.metrics.SetCoverage("tomcap", stats.WithTomcap)
			st.universe = st.universe.WithRecords(recs)
			return nil
		}},
		{
			name: StageRS,
			skip: func(st *runState) string { return missingIf(st.refs.History == nil, "history") },
			run: func(_ context.Context, st *runState) error {
				recs, stats := s.RS.Apply(st.universe.Records, st.refs.History, st.universe.TradeDate)
				o.metrics.SetCoverage("rs_3m", stats.Scored3M)
				o.metrics.SetCoverage("rs_6m", stats.Scored6M)
				st.universe = st.universe.WithRecords(recs)
				return nil
			},
		},
		{name: StageAssemble, run: func(_ context.Context, st *runState) error {
			st.snapshot = s.Assembler.Assemble(st.universe)
			return nil
		}},
	}
}

// write saves the primary artifact, then fans out to the secondary sinks
func (o *Orchestrator) write(ctx context.Context, snap *contracts.Snapshot, result *RunResult) error {
	if o.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}

	files, err := o.store.Save(snap)
	result.Files = files
	if err != nil {
		return err
	}

	for _, sink := range o.sinks {
		if err := sink.Write(ctx, snap); err != nil {
			result.SinkErrors[sink.Name()] = err.Error()
			o.logger.WithError(err).WithField("sink", sink.Name()).Error("Snapshot sink failed")
		}
	}
	return nil
}

func (o *Orchestrator) fail(result *RunResult, startTime time.Time, stageName string, err error) (*RunResult, error) {
	result.Error = fmt.Errorf("%s failed: %w", stageName, err)
	result.Duration = time.Since(startTime)
	o.metrics.RunFinished(metrics.StatusFailure, startTime, time.Now())

	o.logger.WithError(err).WithFields(map[string]interface{}{
		"stage":     stageName,
		"completed": result.CompletedStages,
	}).Error("Pipeline run failed")

	return result, result.Error
}

func missingIf(missing bool, name string) string {
	if missing {
		return name
	}
	return ""
}
