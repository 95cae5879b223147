package s1_universe

import (
	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// ChangeStats counts which rule produced each change
type ChangeStats struct {
	FromPrevClose int
	Fallback      int
	Zero          int
}

// ChangeCalculator computes percent change versus the previous trading day
// ⭐ SSOT: 등락률 계산 규칙 (전일종가 → 당일시가 → 0)
type ChangeCalculator struct {
	logger *logger.Logger
}

// NewChangeCalculator creates a new ChangeCalculator
func NewChangeCalculator(log *logger.Logger) *ChangeCalculator {
	return &ChangeCalculator{logger: log.WithField("module", "s1_change")}
}

// Apply sets ChangePct on a copy of every record.
// Priority is strict: previous close, then today's open (flagged), then 0.
func (c *ChangeCalculator) Apply(recs []contracts.Record, prevCloses map[string]float64) ([]contracts.Record, ChangeStats) {
	var stats ChangeStats
	out := make([]contracts.Record, len(recs))

	for i, rec := range recs {
		prev, hasPrev := prevCloses[rec.Symbol]
		rec.ChangePct, rec.ChangeFallback = PercentChange(rec.Close, rec.Open, prev, hasPrev)

		switch {
		case rec.ChangeFallback:
			stats.Fallback++
		case hasPrev && prev != 0 && rec.Close != nil:
			stats.FromPrevClose++
		default:
			stats.Zero++
		}
		out[i] = rec
	}

	c.logger.WithFields(map[string]interface{}{
		"count":      len(out),
		"prev_close": stats.FromPrevClose,
		"fallback":   stats.Fallback,
		"zero":       stats.Zero,
	}).Info("Percent change calculated")

	return out, stats
}

// PercentChange applies the priority chain for one symbol. fallback reports the open-based rule.
func PercentChange(closePx, openPx *float64, prevClose float64, hasPrev bool) (pct float64, fallback bool) {
	if closePx == nil {
		return 0, false
	}
	if hasPrev && prevClose != 0 {
		return (*closePx - prevClose) / prevClose * 100, false
	}
	if contracts.NonZero(openPx) {
		return (*closePx - *openPx) / *openPx * 100, true
	}
	return 0, false
}
