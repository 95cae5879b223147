package s1_universe

import (
	"fmt"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// MergeStats summarizes one merge + filter pass
type MergeStats struct {
	Total     int // records in
	Matched   int // records that found a reference entry
	Removed   int // records dropped by the identity filter
	Survivors int
}

// ReferenceMerger joins static reference data onto ticks and applies the identity filter
// ⭐ SSOT: 기준정보 병합 → 식별자 필터 (순서 고정)
type ReferenceMerger struct {
	logger *logger.Logger
}

// NewReferenceMerger creates a new ReferenceMerger
func NewReferenceMerger(log *logger.Logger) *ReferenceMerger {
	return &ReferenceMerger{logger: log.WithField("module", "s1_merge")}
}

// Apply merges then filters. The filter must observe codes assigned by the merge.
func (m *ReferenceMerger) Apply(recs []contracts.Record, refs []contracts.SectorRef) ([]contracts.Record, MergeStats, error) {
	merged, matched := m.Merge(recs, refs)

	kept, err := m.Filter(merged)
	stats := MergeStats{
		Total:     len(recs),
		Matched:   matched,
		Removed:   len(merged) - len(kept),
		Survivors: len(kept),
	}
	if err != nil {
		return nil, stats, err
	}

	return kept, stats, nil
}

// Merge joins by trimmed, case-insensitive symbol. A matched reference without
// an instrument code assigns contracts.UnknownInstrumentCode.
func (m *ReferenceMerger) Merge(recs []contracts.Record, refs []contracts.SectorRef) ([]contracts.Record, int) {
	bySymbol := make(map[string]*contracts.SectorRef, len(refs))
	for i := range refs {
		bySymbol[contracts.NormalizeSymbol(refs[i].Symbol)] = &refs[i]
	}

	out := make([]contracts.Record, len(recs))
	matched := 0
	for i, rec := range recs {
		if ref, ok := bySymbol[contracts.NormalizeSymbol(rec.Symbol)]; ok {
			rec.InstrumentCode = ref.InstrumentCode
			if rec.InstrumentCode == "" {
				rec.InstrumentCode = contracts.UnknownInstrumentCode
			}
			rec.MarketCap = ref.MarketCap
			rec.Reference = ref.Fields
			matched++
		}
		out[i] = rec
	}

	m.logger.WithFields(map[string]interface{}{
		"matched": matched,
		"total":   len(recs),
	}).Info("Reference data merged")

	return out, matched
}

// Filter drops records whose instrument code is empty or the unknown sentinel.
// Zero survivors is fatal to the run.
func (m *ReferenceMerger) Filter(recs []contracts.Record) ([]contracts.Record, error) {
	out := make([]contracts.Record, 0, len(recs))
	for _, rec := range recs {
		if contracts.IsUnknownInstrument(rec.InstrumentCode) {
			continue
		}
		out = append(out, rec)
	}

	removed := len(recs) - len(out)
	m.logger.WithFields(map[string]interface{}{
		"removed":   removed,
		"survivors": len(out),
	}).Info("Identity filter applied")

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %d records in", contracts.ErrEmptyUniverse, len(recs))
	}
	return out, nil
}
