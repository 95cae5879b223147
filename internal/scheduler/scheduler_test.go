package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	errs     []error // returned in order; nil after exhaustion
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(context.Context) error {
	n := int(j.calls.Add(1)) - 1
	if n < len(j.errs) {
		return j.errs[n]
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(Options{MaxRetries: retries, RetryDelay: time.Millisecond}, logger.Nop())
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "0 45 15 * * 1-5"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a cron"}), "bad schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestScheduler_RunNow_Retries(t *testing.T) {
	s := newTestScheduler(2)
	job := &countingJob{name: "snap", schedule: "@daily", errs: []error{errors.New("boom"), errors.New("boom")}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "snap")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load())
}

func TestScheduler_RunNow_Fails(t *testing.T) {
	s := newTestScheduler(1)
	job := &countingJob{name: "snap", schedule: "@daily", errs: []error{errors.New("a"), errors.New("b")}}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunNow(context.Background(), "snap")
	require.Error(t, err)
	assert.Equal(t, "b", err.Error())
	assert.False(t, result.Success)

	history, err := s.GetJobHistory("snap")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.Equal(t, 0.0, history.SuccessRate())
}

func TestScheduler_RunInProgressIsNotRetried(t *testing.T) {
	s := newTestScheduler(3)
	job := &countingJob{name: "snap", schedule: "@daily", errs: []error{contracts.ErrRunInProgress}}
	require.NoError(t, s.AddJob(job))

	_, err := s.RunNow(context.Background(), "snap")
	assert.ErrorIs(t, err, contracts.ErrRunInProgress)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestScheduler_RunNow_Unknown(t *testing.T) {
	s := newTestScheduler(0)
	_, err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, s.Trigger("missing"), ErrJobNotFound)
}

func TestScheduler_Trigger(t *testing.T) {
	s := newTestScheduler(0)
	job := &countingJob{name: "snap", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.Trigger("snap"))
	assert.Eventually(t, func() bool {
		history, err := s.GetJobHistory("snap")
		if err != nil {
			return false
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(history.Results) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestScheduler_GetJobStats(t *testing.T) {
	s := newTestScheduler(0)
	job := &countingJob{name: "snap", schedule: "0 45 15 * * 1-5", errs: []error{errors.New("x")}}
	require.NoError(t, s.AddJob(job))

	_, _ = s.RunNow(context.Background(), "snap")
	_, _ = s.RunNow(context.Background(), "snap")

	s.Start()
	defer s.Stop()

	stats := s.GetJobStats()["snap"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.5, stats.SuccessRate)
	require.NotNil(t, stats.LastSuccess)
	require.NotNil(t, stats.LastFailure)
	assert.True(t, stats.LastFailure.Before(*stats.LastSuccess) || stats.LastFailure.Equal(*stats.LastSuccess))
	require.NotNil(t, stats.NextRun)
}

func TestJobHistory_Cap(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Attempts: i, Success: true})
	}
	assert.Len(t, h.Results, maxHistory)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, maxHistory+9, last.Attempts)
}
