package contracts

import "strings"

// UnknownInstrumentCode is assigned during the reference join to entries
// that have no exchange security code
const UnknownInstrumentCode = "XXXXXXXXXXXX"

// IsUnknownInstrument reports whether an instrument code marks "unknown".
// Empty codes and placeholder runs of X (10 or 12 wide in upstream files) both count.
func IsUnknownInstrument(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return true
	}
	return strings.Trim(strings.ToUpper(code), "X") == ""
}

// Field is one ordered key/value pair of pass-through reference data
type Field struct {
	Key   string
	Value interface{}
}

// SectorRef is one row of the static reference dataset (sector, industry, market cap, identity)
// ⭐ SSOT: 종목 기준정보 형식
type SectorRef struct {
	Symbol         string
	InstrumentCode string
	MarketCap      *float64
	Fields         []Field // remaining keys in file order; read-only after load
}

// ExtremeRef is the persisted long-window 52-week high/low for a symbol
type ExtremeRef struct {
	High *float64 `json:"high"`
	Low  *float64 `json:"low"`
}

// CircuitBands maps symbol → price band percentage. nil means no numeric band.
type CircuitBands map[string]*float64
