package s2_metrics

import (
	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// ExtremesReconciler folds today's range into the persisted 52-week high/low
// ⭐ SSOT: 52주 고가/저가 및 괴리율 계산
type ExtremesReconciler struct {
	logger *logger.Logger
}

// NewExtremesReconciler creates a new ExtremesReconciler
func NewExtremesReconciler(log *logger.Logger) *ExtremesReconciler {
	return &ExtremesReconciler{logger: log.WithField("module", "s2_extremes")}
}

// Apply sets the 52-week fields on a copy of every record.
// Symbols missing from refs still get extremes from today's high/low.
func (r *ExtremesReconciler) Apply(recs []contracts.Record, refs map[string]contracts.ExtremeRef) []contracts.Record {
	out := make([]contracts.Record, len(recs))
	withRef := 0

	for i, rec := range recs {
		ref, ok := refs[contracts.NormalizeSymbol(rec.Symbol)]
		if ok {
			withRef++
		}

		rec.FiftyTwoWeekHigh = maxOf(ref.High, rec.High)
		rec.FiftyTwoWeekLow = minOf(ref.Low, rec.Low)
		rec.DownFromHighPct = DownFromHigh(rec.FiftyTwoWeekHigh, rec.Close)
		rec.UpFromLowPct = UpFromLow(rec.FiftyTwoWeekLow, rec.Close)
		out[i] = rec
	}

	r.logger.WithFields(map[string]interface{}{
		"count":    len(out),
		"with_ref": withRef,
	}).Info("52-week extremes reconciled")

	return out
}

// DownFromHigh is (high-close)/high*100 rounded to 2 decimals
func DownFromHigh(high, closePx *float64) *float64 {
	if !contracts.NonZero(high) || closePx == nil {
		return nil
	}
	return contracts.F(contracts.Round2((*high - *closePx) / *high * 100))
}

// UpFromLow is (close-low)/low*100 rounded to 2 decimals
func UpFromLow(low, closePx *float64) *float64 {
	if !contracts.NonZero(low) || closePx == nil {
		return nil
	}
	return contracts.F(contracts.Round2((*closePx - *low) / *low * 100))
}

func maxOf(vals ...*float64) *float64 {
	var best *float64
	for _, v := range vals {
		if v != nil && (best == nil || *v > *best) {
			best = v
		}
	}
	return best
}

func minOf(vals ...*float64) *float64 {
	var best *float64
	for _, v := range vals {
		if v != nil && (best == nil || *v < *best) {
			best = v
		}
	}
	return best
}
