package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one enriched output record. Keys serialize in slice order.
type Row []Field

// Get returns the value stored under key
func (r Row) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in output order
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON writes the row as a JSON object keeping field order
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", f.Key, err)
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Version marks when a snapshot was generated
type Version struct {
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}

// Snapshot is the enriched universe for one trading day
// ⭐ SSOT: S4 최종 산출물
type Snapshot struct {
	TradeDate     string  `json:"trade_date"`
	PrevTradeDate string  `json:"prev_trade_date"`
	Rows          []Row   `json:"rows"`
	Version       Version `json:"version"`
}

// Count returns the number of enriched rows
func (s *Snapshot) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}
