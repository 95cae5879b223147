package refdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/wonny/universe/internal/contracts"
)

type rawHistoryEntry struct {
	Symbol  string          `json:"Symbol"`
	INECODE string          `json:"INECODE"`
	Candles [][]interface{} `json:"candles"`
}

// LoadHistory reads the rolling candle history (stock_historical_universe.json).
//
//	[{"Symbol": "RELIANCE", "INECODE": "...", "candles": [[date, o, h, l, c, v, (oi,) turnover], ...]}]
//
// Candles are kept most-recent-first as stored and capped at MaxCandles.
// Rows without a date are skipped.
func LoadHistory(path string) ([]contracts.HistoryEntry, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := unwrapList(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var entries []rawHistoryEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make([]contracts.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		candles := make([]contracts.Candle, 0, min(len(e.Candles), contracts.MaxCandles))
		for _, row := range e.Candles {
			if len(candles) == contracts.MaxCandles {
				break
			}
			if c, ok := ParseCandle(row); ok {
				candles = append(candles, c)
			}
		}

		out = append(out, contracts.HistoryEntry{
			Symbol:         contracts.NormalizeSymbol(e.Symbol),
			InstrumentCode: e.INECODE,
			Candles:        candles,
		})
	}

	return out, nil
}

// ParseCandle converts a history row into a Candle. Accepted layouts:
//
//	[date, o, h, l, c, v]               no turnover
//	[date, o, h, l, c, v, turnover]
//	[date, o, h, l, c, v, oi]           raw upstream row, turnover never appended
//	[date, o, h, l, c, v, oi, turnover]
//
// A 7-value row is read as turnover only when its last value agrees with
// close*volume in crores at 2 decimals; otherwise it is the OI column.
func ParseCandle(row []interface{}) (contracts.Candle, bool) {
	if len(row) < 1 {
		return contracts.Candle{}, false
	}
	date, ok := row[0].(string)
	if !ok || date == "" {
		return contracts.Candle{}, false
	}

	at := func(i int) *float64 {
		if i < len(row) {
			return contracts.ToFloat(row[i])
		}
		return nil
	}

	c := contracts.Candle{
		Date:   date,
		Open:   at(1),
		High:   at(2),
		Low:    at(3),
		Close:  at(4),
		Volume: at(5),
	}
	switch {
	case len(row) >= 8:
		c.Turnover = at(7)
	case len(row) == 7:
		if t := at(6); t != nil && turnoverMatches(*t, c.Close, c.Volume) {
			c.Turnover = t
		}
	}
	return c, true
}

// turnoverMatches reports whether t is close*volume/1e7 rounded to 2 decimals
func turnoverMatches(t float64, closePx, volume *float64) bool {
	if closePx == nil || volume == nil {
		return false
	}
	want := contracts.Round2(*closePx * *volume / contracts.TurnoverScale)
	return math.Abs(t-want) <= 0.01
}
