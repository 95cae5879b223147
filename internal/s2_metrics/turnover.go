package s2_metrics

import (
	"math"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// SMAWindow is today plus up to 19 prior sessions
const SMAWindow = 20

// TurnoverStats counts how each record's SMA was produced
type TurnoverStats struct {
	WithHistory int
	NoHistory   int
	WithTomcap  int
}

// TurnoverAnalyzer computes turnover, its 20-day SMA and turnover-over-market-cap
// ⭐ SSOT: 거래대금 / 20일 평균 / Tomcap
type TurnoverAnalyzer struct {
	logger *logger.Logger
}

// NewTurnoverAnalyzer creates a new TurnoverAnalyzer
func NewTurnoverAnalyzer(log *logger.Logger) *TurnoverAnalyzer {
	return &TurnoverAnalyzer{logger: log.WithField("module", "s2_turnover")}
}

// Apply sets Turnover, TurnoverSMA20 and Tomcap on a copy of every record
func (a *TurnoverAnalyzer) Apply(recs []contracts.Record, history *contracts.History, tradeDate string) ([]contracts.Record, TurnoverStats) {
	var stats TurnoverStats
	out := make([]contracts.Record, len(recs))

	for i, rec := range recs {
		today := TodayTurnover(rec.Close, rec.Volume)
		rec.Turnover = contracts.F(contracts.Round2(today))

		entry, ok := history.Lookup(rec.Symbol, rec.InstrumentCode)
		if ok {
			rec.TurnoverSMA20 = contracts.F(SMA20(today, entry, tradeDate))
			stats.WithHistory++
		} else {
			rec.TurnoverSMA20 = rec.Turnover
			stats.NoHistory++
		}

		rec.Tomcap = Tomcap(rec.TurnoverSMA20, rec.MarketCap)
		if rec.Tomcap != nil {
			stats.WithTomcap++
		}
		out[i] = rec
	}

	a.logger.WithFields(map[string]interface{}{
		"count":        len(out),
		"with_history": stats.WithHistory,
		"no_history":   stats.NoHistory,
		"tomcap":       stats.WithTomcap,
	}).Info("Turnover metrics calculated")

	return out, stats
}

// TodayTurnover is close*volume in crores, 0 when either is missing
func TodayTurnover(closePx, volume *float64) float64 {
	if closePx == nil || volume == nil {
		return 0
	}
	return *closePx * *volume / contracts.TurnoverScale
}

// SMA20 averages today's unrounded turnover with up to 19 prior candle turnovers.
// A leading candle dated tradeDate is skipped. Missing or non-positive turnovers are ignored.
func SMA20(today float64, entry *contracts.HistoryEntry, tradeDate string) float64 {
	candles := entry.Candles
	if entry.StartsOn(tradeDate) {
		candles = candles[1:]
	}
	if len(candles) > SMAWindow-1 {
		candles = candles[:SMAWindow-1]
	}

	sum, n := today, 1
	for _, c := range candles {
		if c.Turnover != nil && *c.Turnover > 0 && contracts.IsFinite(*c.Turnover) {
			sum += *c.Turnover
			n++
		}
	}
	return contracts.Round2(sum / float64(n))
}

// Tomcap is sma20*100/marketCap floored to 2 decimals, nil without a positive market cap
func Tomcap(sma20, marketCap *float64) *float64 {
	if sma20 == nil || marketCap == nil || *marketCap <= 0 {
		return nil
	}
	return contracts.F(math.Floor(*sma20*100 / *marketCap * 100) / 100)
}
