package s3_ranking

import (
	"math"
	"sort"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// Session offsets into the close series (index 0 is today)
const (
	Days1M = 21
	Days2M = 42
	Days3M = 65
	Days6M = 120
)

// DefaultRank is reported when a horizon cannot be ranked for a symbol
// (short history, or fewer than two scored symbols)
const DefaultRank = 100

// MaxRank is the strongest percentile
const MaxRank = 99

// Horizon is a weighted blend of three lookback returns
type Horizon struct {
	Name    string
	Offsets [3]int
	Weights [3]float64
}

// MinSeries is the smallest close series that can be scored
func (h Horizon) MinSeries() int {
	return h.Offsets[2] + 1
}

var (
	// Horizon3M blends 1m/2m/3m returns
	Horizon3M = Horizon{Name: "3m", Offsets: [3]int{Days1M, Days2M, Days3M}, Weights: [3]float64{0.40, 0.35, 0.25}}
	// Horizon6M blends 1m/3m/6m returns
	Horizon6M = Horizon{Name: "6m", Offsets: [3]int{Days1M, Days3M, Days6M}, Weights: [3]float64{0.40, 0.35, 0.25}}
)

// Score is one symbol's raw strength for a horizon
type Score struct {
	Index int // position in the record slice
	Value float64
}

// RankStats counts scored symbols per horizon
type RankStats struct {
	Scored3M int
	Scored6M int
}

// RSRanker converts momentum scores into 0–99 percentile ranks across the universe
// ⭐ SSOT: 상대강도(RS) 점수 → 백분위 순위
//
// Scoring and ranking are separate passes: every score is computed before any
// rank is assigned, so ranks never depend on iteration order.
type RSRanker struct {
	logger *logger.Logger
}

// NewRSRanker creates a new RSRanker
func NewRSRanker(log *logger.Logger) *RSRanker {
	return &RSRanker{logger: log.WithField("module", "s3_rs")}
}

// Apply sets RS3M/RS6M (and their transient scores) on a copy of every record
func (r *RSRanker) Apply(recs []contracts.Record, history *contracts.History, tradeDate string) ([]contracts.Record, RankStats) {
	out := make([]contracts.Record, len(recs))
	copy(out, recs)

	// Pass 1: scores
	var scores3m, scores6m []Score
	for i := range out {
		rec := &out[i]
		rec.RS3M, rec.RS6M = nil, nil
		rec.RS3MScore, rec.RS6MScore = nil, nil

		if !contracts.NonZero(rec.Close) {
			continue
		}
		entry, ok := history.Lookup(rec.Symbol, rec.InstrumentCode)
		if !ok {
			continue
		}

		series := CloseSeries(*rec.Close, entry, tradeDate)

		if len(series) < Horizon3M.MinSeries() {
			rec.RS3M = contracts.I(DefaultRank)
		} else if v, ok := HorizonScore(series, Horizon3M); ok {
			rec.RS3MScore = contracts.F(v)
			scores3m = append(scores3m, Score{Index: i, Value: v})
		}

		if len(series) < Horizon6M.MinSeries() {
			rec.RS6M = contracts.I(DefaultRank)
		} else if v, ok := HorizonScore(series, Horizon6M); ok {
			rec.RS6MScore = contracts.F(v)
			scores6m = append(scores6m, Score{Index: i, Value: v})
		}
	}

	// Pass 2: ranks
	for idx, rank := range Ranks(scores3m) {
		out[idx].RS3M = contracts.I(rank)
	}
	for idx, rank := range Ranks(scores6m) {
		out[idx].RS6M = contracts.I(rank)
	}

	stats := RankStats{Scored3M: len(scores3m), Scored6M: len(scores6m)}
	r.logger.WithFields(map[string]interface{}{
		"count":     len(out),
		"scored_3m": stats.Scored3M,
		"scored_6m": stats.Scored6M,
	}).Info("Relative strength ranked")

	return out, stats
}

// CloseSeries is today's close followed by historical closes, newest first.
// A leading candle dated tradeDate is dropped so today is not counted twice.
func CloseSeries(today float64, entry *contracts.HistoryEntry, tradeDate string) []float64 {
	candles := entry.Candles
	if entry.StartsOn(tradeDate) {
		candles = candles[1:]
	}

	series := make([]float64, 0, len(candles)+1)
	series = append(series, today)
	for _, c := range candles {
		if c.Close != nil && contracts.IsFinite(*c.Close) {
			series = append(series, *c.Close)
		}
	}
	return series
}

// HorizonScore blends the horizon's returns. ok is false when the series is
// too short or a reference close is 0.
func HorizonScore(series []float64, h Horizon) (float64, bool) {
	if len(series) < h.MinSeries() {
		return 0, false
	}

	var score float64
	for k, off := range h.Offsets {
		ret, ok := Return(series, off)
		if !ok {
			return 0, false
		}
		score += h.Weights[k] * ret
	}
	return score, contracts.IsFinite(score)
}

// Return is (series[0]/series[offset] - 1) * 100
func Return(series []float64, offset int) (float64, bool) {
	if offset >= len(series) || series[offset] == 0 {
		return 0, false
	}
	return (series[0]/series[offset] - 1) * 100, true
}

// Ranks maps each score's Index to round(pos/(n-1)*99), pos being the first
// position of its value in the ascending sort. Equal scores share the lower rank.
// A lone score gets DefaultRank.
func Ranks(scores []Score) map[int]int {
	ranks := make(map[int]int, len(scores))
	n := len(scores)
	if n == 0 {
		return ranks
	}
	if n == 1 {
		ranks[scores[0].Index] = DefaultRank
		return ranks
	}

	sorted := make([]float64, n)
	for i, s := range scores {
		sorted[i] = s.Value
	}
	sort.Float64s(sorted)

	for _, s := range scores {
		pos := sort.SearchFloat64s(sorted, s.Value)
		ranks[s.Index] = int(math.RoundToEven(float64(pos) / float64(n-1) * MaxRank))
	}
	return ranks
}
