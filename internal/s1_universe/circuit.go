package s1_universe

import (
	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// CircuitMapper attaches each symbol's price band
type CircuitMapper struct {
	logger *logger.Logger
}

// NewCircuitMapper creates a new CircuitMapper
func NewCircuitMapper(log *logger.Logger) *CircuitMapper {
	return &CircuitMapper{logger: log.WithField("module", "s1_circuit")}
}

// Apply sets CircuitLimit from bands. Unknown symbols and non-numeric bands stay nil.
func (c *CircuitMapper) Apply(recs []contracts.Record, bands contracts.CircuitBands) ([]contracts.Record, int) {
	out := make([]contracts.Record, len(recs))
	matched := 0
	for i, rec := range recs {
		if band, ok := bands[contracts.NormalizeSymbol(rec.Symbol)]; ok {
			rec.CircuitLimit = band
			matched++
		}
		out[i] = rec
	}

	c.logger.WithFields(map[string]interface{}{
		"matched": matched,
		"total":   len(recs),
	}).Info("Circuit limits mapped")

	return out, matched
}
