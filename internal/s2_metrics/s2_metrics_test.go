package s2_metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

func TestDownFromHigh(t *testing.T) {
	tests := []struct {
		name  string
		high  *float64
		close *float64
		want  *float64
	}{
		{"quarter off", contracts.F(200), contracts.F(150), contracts.F(25)},
		{"at high", contracts.F(150), contracts.F(150), contracts.F(0)},
		{"zero high", contracts.F(0), contracts.F(150), nil},
		{"no high", nil, contracts.F(150), nil},
		{"no close", contracts.F(200), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DownFromHigh(tt.high, tt.close))
		})
	}
}

func TestUpFromLow(t *testing.T) {
	assert.Equal(t, contracts.F(50), UpFromLow(contracts.F(100), contracts.F(150)))
	assert.Equal(t, contracts.F(33.33), UpFromLow(contracts.F(75), contracts.F(100)))
	assert.Nil(t, UpFromLow(contracts.F(0), contracts.F(150)))
	assert.Nil(t, UpFromLow(nil, contracts.F(150)))
}

func TestExtremesReconciler_Apply(t *testing.T) {
	r := NewExtremesReconciler(logger.Nop())

	refs := map[string]contracts.ExtremeRef{
		"ABC":  {High: contracts.F(200), Low: contracts.F(80)},
		"NEWH": {High: contracts.F(120), Low: contracts.F(90)},
		"HALF": {High: nil, Low: contracts.F(50)},
	}
	in := []contracts.Record{
		{Symbol: "ABC", High: contracts.F(155), Low: contracts.F(140), Close: contracts.F(150)},
		{Symbol: "NEWH", High: contracts.F(130), Low: contracts.F(100), Close: contracts.F(125)},
		{Symbol: "HALF", High: contracts.F(60), Low: contracts.F(55), Close: contracts.F(60)},
		{Symbol: "NOREF", High: contracts.F(10), Low: contracts.F(8), Close: contracts.F(9)},
		{Symbol: "EMPTY"},
	}

	out := r.Apply(in, refs)
	require.Len(t, out, 5)

	assert.Equal(t, 200.0, *out[0].FiftyTwoWeekHigh)
	assert.Equal(t, 80.0, *out[0].FiftyTwoWeekLow)
	assert.Equal(t, 25.0, *out[0].DownFromHighPct)
	assert.Equal(t, 87.5, *out[0].UpFromLowPct)

	assert.Equal(t, 130.0, *out[1].FiftyTwoWeekHigh, "today's high beats the stored one")
	assert.Equal(t, 90.0, *out[1].FiftyTwoWeekLow)

	assert.Equal(t, 60.0, *out[2].FiftyTwoWeekHigh, "missing stored high uses today's")
	assert.Equal(t, 50.0, *out[2].FiftyTwoWeekLow)

	assert.Equal(t, 10.0, *out[3].FiftyTwoWeekHigh)
	assert.Equal(t, 8.0, *out[3].FiftyTwoWeekLow)

	assert.Nil(t, out[4].FiftyTwoWeekHigh)
	assert.Nil(t, out[4].FiftyTwoWeekLow)
	assert.Nil(t, out[4].DownFromHighPct)
	assert.Nil(t, out[4].UpFromLowPct)

	assert.Nil(t, in[0].FiftyTwoWeekHigh, "input records are not mutated")
}

// candles builds n daily candles, newest first, starting at first and stepping back one day.
// Each candle's turnover is 1..n in order.
func candles(first string, n int) []contracts.Candle {
	out := make([]contracts.Candle, n)
	day := 31
	for i := 0; i < n; i++ {
		date := first
		if i > 0 {
			date = fmt.Sprintf("2025-12-%02d", day)
			day--
		}
		out[i] = contracts.Candle{Date: date, Turnover: contracts.F(float64(i + 1)), Close: contracts.F(100)}
	}
	return out
}

func TestSMA20_CandleSelection(t *testing.T) {
	tests := []struct {
		name      string
		firstDate string
		want      float64
	}{
		// offsets 1..19 → turnovers 2..20, sum 209, plus today 10
		{"first candle is trade date", "2026-01-09", contracts.Round2((10.0 + 209) / 20)},
		// offsets 0..18 → turnovers 1..19, sum 190, plus today 10
		{"first candle is earlier", "2026-01-08", contracts.Round2((10.0 + 190) / 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &contracts.HistoryEntry{Symbol: "ABC", Candles: candles(tt.firstDate, 25)}
			assert.Equal(t, tt.want, SMA20(10, entry, "2026-01-09"))
		})
	}
}

func TestSMA20_SkipsInvalidTurnover(t *testing.T) {
	entry := &contracts.HistoryEntry{Candles: []contracts.Candle{
		{Date: "2026-01-08", Turnover: contracts.F(6)},
		{Date: "2026-01-07", Turnover: nil},
		{Date: "2026-01-06", Turnover: contracts.F(0)},
		{Date: "2026-01-05", Turnover: contracts.F(-3)},
		{Date: "2026-01-02", Turnover: contracts.F(2)},
	}}
	assert.Equal(t, 6.0, SMA20(10, entry, "2026-01-09"))
}

func TestTomcap(t *testing.T) {
	tests := []struct {
		name string
		sma  *float64
		mcap *float64
		want *float64
	}{
		{"floors", contracts.F(12.345), contracts.F(1000), contracts.F(1.23)},
		{"floor not round", contracts.F(1.999), contracts.F(100), contracts.F(1.99)},
		{"zero mcap", contracts.F(10), contracts.F(0), nil},
		{"negative mcap", contracts.F(10), contracts.F(-5), nil},
		{"no mcap", contracts.F(10), nil, nil},
		{"no sma", nil, contracts.F(100), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tomcap(tt.sma, tt.mcap))
		})
	}
}

func TestTurnoverAnalyzer_Apply(t *testing.T) {
	a := NewTurnoverAnalyzer(logger.Nop())

	history := contracts.NewHistory([]contracts.HistoryEntry{
		{Symbol: "ABC", Candles: []contracts.Candle{
			{Date: "2026-01-09", Turnover: contracts.F(999)},
			{Date: "2026-01-08", Turnover: contracts.F(4)},
		}},
		{Symbol: "", InstrumentCode: "INE000000002", Candles: []contracts.Candle{
			{Date: "2026-01-08", Turnover: contracts.F(2)},
		}},
	})

	in := []contracts.Record{
		{Symbol: "ABC", Close: contracts.F(200), Volume: contracts.F(100000), MarketCap: contracts.F(500)},
		{Symbol: "BYCODE", InstrumentCode: "INE000000002", Close: contracts.F(100), Volume: contracts.F(400000)},
		{Symbol: "FRESH", Close: contracts.F(125), Volume: contracts.F(1000000), MarketCap: contracts.F(1000)},
		{Symbol: "NOVOL", Close: contracts.F(50)},
	}

	out, stats := a.Apply(in, history, "2026-01-09")
	require.Len(t, out, 4)

	// 200*100000/1e7 = 2; today's candle (999) is skipped → (2+4)/2
	assert.Equal(t, 2.0, *out[0].Turnover)
	assert.Equal(t, 3.0, *out[0].TurnoverSMA20)
	assert.Equal(t, 0.6, *out[0].Tomcap)

	// 4 today, 2 from the code match
	assert.Equal(t, 4.0, *out[1].Turnover)
	assert.Equal(t, 3.0, *out[1].TurnoverSMA20)
	assert.Nil(t, out[1].Tomcap)

	// no history: SMA equals today's rounded turnover
	assert.Equal(t, 12.5, *out[2].Turnover)
	assert.Equal(t, *out[2].Turnover, *out[2].TurnoverSMA20)
	assert.Equal(t, 1.25, *out[2].Tomcap)

	assert.Equal(t, 0.0, *out[3].Turnover)
	assert.Equal(t, 0.0, *out[3].TurnoverSMA20)

	assert.Equal(t, TurnoverStats{WithHistory: 2, NoHistory: 2, WithTomcap: 2}, stats)
}
