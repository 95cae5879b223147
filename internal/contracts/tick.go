package contracts

import (
	"bytes"
	"encoding/json"
)

// DateLayout is the trade date format, also used in feed URLs
const DateLayout = "2006-01-02"

// TickPayload is one day of raw ticks as delivered by an upstream feed
// ⭐ SSOT: S0 원본 틱 데이터 형식
//
//	{"fields": ["open", "high", ...], "ticks": {"RELIANCE": [[1402.5, 1410, ...]]}}
type TickPayload struct {
	Fields []string                   `json:"fields"`
	Ticks  map[string]json.RawMessage `json:"ticks"`
}

// HasTicks reports whether at least one symbol carries a non-empty tick
func (p *TickPayload) HasTicks() bool {
	if p == nil {
		return false
	}
	for _, raw := range p.Ticks {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]")) {
			continue
		}
		return true
	}
	return false
}

// Tick is one day's canonical OHLCV for a symbol. Immutable once built.
type Tick struct {
	Symbol string   `json:"symbol"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

// Closes maps symbol → close for ticks that carry a close
func Closes(ticks []Tick) map[string]float64 {
	closes := make(map[string]float64, len(ticks))
	for _, t := range ticks {
		if t.Close != nil {
			closes[t.Symbol] = *t.Close
		}
	}
	return closes
}
