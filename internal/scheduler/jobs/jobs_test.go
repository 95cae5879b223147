package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/pipeline"
	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/logger"
)

type fakeRunner struct {
	got pipeline.RunConfig
	err error
}

func (r *fakeRunner) Run(_ context.Context, cfg pipeline.RunConfig) (*pipeline.RunResult, error) {
	r.got = cfg
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.RunResult{
		TradeDate: "2026-01-09",
		Success:   true,
		Snapshot:  &contracts.Snapshot{TradeDate: "2026-01-09"},
	}, nil
}

func TestSnapshotJob_Run(t *testing.T) {
	runner := &fakeRunner{}
	job := NewSnapshotJob(runner, "0 45 15 * * 1-5", logger.Nop())
	now := time.Date(2026, 1, 9, 15, 45, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	assert.Equal(t, "universe_snapshot", job.Name())
	assert.Equal(t, "0 45 15 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now, runner.got.Start)
	assert.False(t, runner.got.DryRun)
}

func TestSnapshotJob_RunError(t *testing.T) {
	job := NewSnapshotJob(&fakeRunner{err: contracts.ErrNoTradingDayFound}, "@daily", logger.Nop())
	assert.ErrorIs(t, job.Run(context.Background()), contracts.ErrNoTradingDayFound)
}

type fakeCircuitFetcher struct {
	doc refdata.CircuitDocument
	err error
}

func (f fakeCircuitFetcher) FetchCircuitBands(context.Context) (refdata.CircuitDocument, error) {
	return f.doc, f.err
}

func TestCircuitRefreshJob_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit_limits.json")
	fetcher := fakeCircuitFetcher{doc: refdata.CircuitDocument{
		SourceDate: "2026-01-09T15:30:00+05:30",
		Data: []refdata.CircuitEntry{
			{Symbol: "ABC", Band: 20.0},
			{Symbol: "GHI", Band: "No Band"},
		},
	}}

	job := NewCircuitRefreshJob(fetcher, path, "0 30 8 * * 1-5", logger.Nop())
	require.NoError(t, job.Run(context.Background()))

	bands, err := refdata.LoadCircuitBands(path)
	require.NoError(t, err)
	require.Len(t, bands, 2)
	assert.Equal(t, 20.0, *bands["ABC"])
	assert.Nil(t, bands["GHI"])
}

func TestCircuitRefreshJob_KeepsFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "circuit_limits.json")
	require.NoError(t, refdata.WriteCircuitBands(path, refdata.CircuitDocument{
		Data: []refdata.CircuitEntry{{Symbol: "OLD", Band: 5.0}},
	}))

	for _, f := range []fakeCircuitFetcher{
		{err: errors.New("timeout")},
		{doc: refdata.CircuitDocument{}},
	} {
		job := NewCircuitRefreshJob(f, path, "@daily", logger.Nop())
		assert.Error(t, job.Run(context.Background()))
	}

	bands, err := refdata.LoadCircuitBands(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, *bands["OLD"])
}
