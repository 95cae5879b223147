package s0_feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

var errEmptyTick = errors.New("empty tick")

// Normalizer converts a feed's raw tick rows into canonical ticks
// ⭐ SSOT: 원본 틱 → 표준 OHLCV 변환은 여기서만
type Normalizer struct {
	mapping config.FeedMapping
	logger  *logger.Logger
}

// NormalizeResult is the output of one payload
type NormalizeResult struct {
	Ticks     []contracts.Tick // sorted by symbol
	Malformed int              // rows dropped for shape mismatch
	Empty     int              // symbols without any row
}

// NewNormalizer creates a normalizer for one feed mapping
func NewNormalizer(mapping config.FeedMapping, log *logger.Logger) *Normalizer {
	return &Normalizer{
		mapping: mapping,
		logger:  log.WithField("module", "s0_normalizer"),
	}
}

// Normalize converts every symbol of the payload.
// A row that is not a sequence, or is shorter than the field list, is dropped.
func (n *Normalizer) Normalize(p *contracts.TickPayload) NormalizeResult {
	var res NormalizeResult
	if p == nil {
		return res
	}

	index := make(map[string]int, len(p.Fields))
	for i, f := range p.Fields {
		if _, dup := index[f]; !dup {
			index[f] = i
		}
	}

	symbols := make([]string, 0, len(p.Ticks))
	for s := range p.Ticks {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	seen := make(map[string]bool, len(symbols))
	res.Ticks = make([]contracts.Tick, 0, len(symbols))

	for _, raw := range symbols {
		symbol := contracts.NormalizeSymbol(raw)
		if symbol == "" || seen[symbol] {
			continue
		}

		tick, err := n.normalizeRow(symbol, p.Ticks[raw], len(p.Fields), index)
		switch {
		case errors.Is(err, errEmptyTick):
			res.Empty++
			continue
		case err != nil:
			res.Malformed++
			n.logger.WithError(err).WithField("symbol", symbol).Debug("Dropping tick row")
			continue
		}

		seen[symbol] = true
		res.Ticks = append(res.Ticks, tick)
	}

	sort.SliceStable(res.Ticks, func(i, j int) bool { return res.Ticks[i].Symbol < res.Ticks[j].Symbol })

	n.logger.WithFields(map[string]interface{}{
		"count":     len(res.Ticks),
		"malformed": res.Malformed,
		"empty":     res.Empty,
	}).Info("Ticks normalized")

	return res
}

// normalizeRow takes the first row of a symbol's tick list.
// A flat list of scalars is accepted as the row itself.
func (n *Normalizer) normalizeRow(symbol string, raw json.RawMessage, width int, index map[string]int) (contracts.Tick, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return contracts.Tick{}, errEmptyTick
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var outer interface{}
	if err := dec.Decode(&outer); err != nil {
		return contracts.Tick{}, fmt.Errorf("%w: %v", contracts.ErrMalformedRow, err)
	}

	list, ok := outer.([]interface{})
	if !ok {
		return contracts.Tick{}, fmt.Errorf("%w: not a sequence", contracts.ErrMalformedRow)
	}
	if len(list) == 0 {
		return contracts.Tick{}, errEmptyTick
	}

	row := list
	if first, nested := list[0].([]interface{}); nested {
		row = first
	} else if _, isObject := list[0].(map[string]interface{}); isObject {
		return contracts.Tick{}, fmt.Errorf("%w: first row is not a sequence", contracts.ErrMalformedRow)
	}

	if len(row) < width {
		return contracts.Tick{}, fmt.Errorf("%w: %d values for %d fields", contracts.ErrMalformedRow, len(row), width)
	}

	return contracts.Tick{
		Symbol: symbol,
		Open:   n.value(row, index, "open"),
		High:   n.value(row, index, "high"),
		Low:    n.value(row, index, "low"),
		Close:  n.value(row, index, "close"),
		Volume: n.value(row, index, "volume"),
	}, nil
}

// value reads a canonical field through the feed's name mapping
func (n *Normalizer) value(row []interface{}, index map[string]int, canonical string) *float64 {
	i, ok := index[n.mapping.Fields[canonical]]
	if !ok || i >= len(row) {
		return nil
	}
	if n.mapping.NumericStrings {
		return contracts.ParseFloat(row[i])
	}
	return contracts.ToFloat(row[i])
}
