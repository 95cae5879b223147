package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetrics_RunFinished(t *testing.T) {
	m := New()
	start := time.Unix(1767945600, 0)

	m.RunFinished(StatusSuccess, start, start.Add(3*time.Second))
	m.RunFinished(StatusFailure, start, start.Add(time.Second))
	m.RunFinished(StatusSkipped, start, start)

	fams := gather(t, m)

	runs := fams["universe_runs_total"]
	require.NotNil(t, runs)
	assert.Len(t, runs.GetMetric(), 3)

	hist := fams["universe_run_duration_seconds"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(2), hist.GetSampleCount(), "skipped runs are not timed")
	assert.Equal(t, 4.0, hist.GetSampleSum())

	last := fams["universe_last_success_timestamp_seconds"].GetMetric()[0].GetGauge()
	assert.Equal(t, float64(1767945603), last.GetValue())
}

func TestMetrics_Gauges(t *testing.T) {
	m := New()
	m.SetRecords("snapshot", 1800)
	m.SetCoverage("change_prev_close", 1750)
	m.SetResolveAttempts("today", 3)
	m.AddMalformed(2)
	m.AddMalformed(0)
	m.SkipStage("s2_extremes")
	m.ObserveStage("s3_rs", time.Now())

	fams := gather(t, m)
	assert.Equal(t, 1800.0, fams["universe_records"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1750.0, fams["universe_field_coverage"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 3.0, fams["universe_resolve_attempts"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 2.0, fams["universe_malformed_rows_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 1.0, fams["universe_stage_skipped_total"].GetMetric()[0].GetCounter().GetValue())
	assert.NotNil(t, fams["universe_stage_duration_seconds"])
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.SetRecords("ticks", 1)
	m.RunFinished(StatusSuccess, time.Now(), time.Now())
	m.ObserveStage("x", time.Now())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SetRecords("ticks", 42)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `universe_records{phase="ticks"} 42`)
}
