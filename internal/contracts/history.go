package contracts

import "strings"

// MaxCandles is the rolling history depth kept per symbol
const MaxCandles = 200

// Candle is one daily bar from the rolling history.
// Turnover is written once by the history refresher and never recomputed here.
type Candle struct {
	Date     string   `json:"date"`
	Open     *float64 `json:"open"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Close    *float64 `json:"close"`
	Volume   *float64 `json:"volume"`
	Turnover *float64 `json:"turnover"`
}

// Day returns the YYYY-MM-DD part of the candle date
func (c Candle) Day() string {
	if len(c.Date) >= 10 {
		return c.Date[:10]
	}
	return c.Date
}

// HistoryEntry is a symbol's rolling candle history, most recent first
type HistoryEntry struct {
	Symbol         string   `json:"symbol"`
	InstrumentCode string   `json:"instrument_code"`
	Candles        []Candle `json:"candles"`
}

// StartsOn reports whether the newest candle is for tradeDate (YYYY-MM-DD).
// True means today's candle is already persisted and must not be counted twice.
func (h *HistoryEntry) StartsOn(tradeDate string) bool {
	return h != nil && len(h.Candles) > 0 && h.Candles[0].Day() == tradeDate
}

// History indexes rolling history entries by symbol and by instrument code
// ⭐ SSOT: S2/S3 공용 히스토리 조회
type History struct {
	bySymbol map[string]*HistoryEntry
	byCode   map[string]*HistoryEntry
}

// NewHistory builds the lookup. A later duplicate replaces an earlier one.
func NewHistory(entries []HistoryEntry) *History {
	h := &History{
		bySymbol: make(map[string]*HistoryEntry, len(entries)),
		byCode:   make(map[string]*HistoryEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		if sym := NormalizeSymbol(e.Symbol); sym != "" {
			h.bySymbol[sym] = e
		}
		if code := NormalizeSymbol(e.InstrumentCode); code != "" {
			h.byCode[code] = e
		}
	}
	return h
}

// Lookup finds a history entry by symbol first, then by instrument code
func (h *History) Lookup(symbol, instrumentCode string) (*HistoryEntry, bool) {
	if h == nil {
		return nil, false
	}
	if e, ok := h.bySymbol[NormalizeSymbol(symbol)]; ok && len(e.Candles) > 0 {
		return e, true
	}
	if code := NormalizeSymbol(instrumentCode); code != "" {
		if e, ok := h.byCode[code]; ok && len(e.Candles) > 0 {
			return e, true
		}
	}
	return nil, false
}

// Len returns the number of distinct symbols indexed
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.bySymbol)
}

// NormalizeSymbol is the join key used by every stage: trimmed, upper case
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
