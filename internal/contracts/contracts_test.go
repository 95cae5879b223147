package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnknownInstrument(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"empty", "", true},
		{"blank", "   ", true},
		{"twelve X", "XXXXXXXXXXXX", true},
		{"ten X", "XXXXXXXXXX", true},
		{"lower x", "xxxxxxxxxxxx", true},
		{"real code", "INE002A01018", false},
		{"code containing X", "INE0X2A01018", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnknownInstrument(tt.code))
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		in    interface{}
		want  float64
		isNil bool
	}{
		{name: "float", in: 12.5, want: 12.5},
		{name: "json number", in: json.Number("3"), want: 3},
		{name: "int", in: 7, want: 7},
		{name: "zero is a value", in: 0.0, want: 0},
		{name: "string", in: "12.5", isNil: true},
		{name: "N/A", in: "N/A", isNil: true},
		{name: "nil", in: nil, isNil: true},
		{name: "bool", in: true, isNil: true},
		{name: "NaN", in: math.NaN(), isNil: true},
		{name: "Inf", in: math.Inf(1), isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToFloat(tt.in)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseFloat(t *testing.T) {
	got := ParseFloat("1,234.50")
	require.NotNil(t, got)
	assert.Equal(t, 1234.5, *got)

	assert.Nil(t, ParseFloat("No Band"))
	assert.Nil(t, ParseFloat(""))
	assert.Equal(t, 20.0, *ParseFloat(20.0))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 5.26, Round2(5.263157894736842))
	assert.Equal(t, 11.11, Round2(11.111111111111))
	assert.Equal(t, -1.24, Round2(-1.2449))
	assert.Equal(t, 25.0, Round2(25))
}

func TestTickPayload_HasTicks(t *testing.T) {
	tests := []struct {
		name    string
		payload *TickPayload
		want    bool
	}{
		{"nil payload", nil, false},
		{"no ticks", &TickPayload{Fields: []string{"close"}}, false},
		{
			name: "only empty rows",
			payload: &TickPayload{Ticks: map[string]json.RawMessage{
				"A": json.RawMessage(`[]`),
				"B": json.RawMessage(`null`),
			}},
			want: false,
		},
		{
			name: "one real row",
			payload: &TickPayload{Ticks: map[string]json.RawMessage{
				"A": json.RawMessage(`[]`),
				"B": json.RawMessage(`[[1,2,3,4,5]]`),
			}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payload.HasTicks())
		})
	}
}

func TestHistory_Lookup(t *testing.T) {
	h := NewHistory([]HistoryEntry{
		{Symbol: "reliance", Candles: []Candle{{Date: "2025-01-01"}}},
		{Symbol: "RELIANCE", InstrumentCode: "INE002A01018", Candles: []Candle{{Date: "2026-01-09"}}},
		{Symbol: "", InstrumentCode: "INE467B01029", Candles: []Candle{{Date: "2026-01-08"}}},
		{Symbol: "EMPTY", Candles: nil},
	})

	e, ok := h.Lookup(" reliance ", "")
	require.True(t, ok)
	assert.Equal(t, "2026-01-09", e.Candles[0].Date, "last entry wins on duplicates")

	e, ok = h.Lookup("TCS", "ine467b01029")
	require.True(t, ok, "falls back to instrument code")
	assert.Equal(t, "2026-01-08", e.Candles[0].Date)

	_, ok = h.Lookup("EMPTY", "")
	assert.False(t, ok, "entries without candles are absent")

	var nilHistory *History
	_, ok = nilHistory.Lookup("RELIANCE", "")
	assert.False(t, ok)
	assert.Equal(t, 0, nilHistory.Len())
}

func TestHistoryEntry_StartsOn(t *testing.T) {
	e := &HistoryEntry{Candles: []Candle{{Date: "2026-01-09T00:00:00+05:30"}}}
	assert.True(t, e.StartsOn("2026-01-09"))
	assert.False(t, e.StartsOn("2026-01-10"))
	assert.False(t, (&HistoryEntry{}).StartsOn("2026-01-09"))
}

func TestRow_MarshalJSON(t *testing.T) {
	row := Row{
		{Key: "Symbol", Value: "ABC"},
		{Key: "current_price", Value: 100.0},
		{Key: "Tomcap", Value: nil},
		{Key: "RS_3M", Value: 42},
	}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"Symbol":"ABC","current_price":100,"Tomcap":null,"RS_3M":42}`, string(b))

	v, ok := row.Get("RS_3M")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, []string{"Symbol", "current_price", "Tomcap", "RS_3M"}, row.Keys())
}

func TestRow_MarshalJSON_InSlice(t *testing.T) {
	snap := Snapshot{
		TradeDate: "2026-01-09",
		Rows:      []Row{{{Key: "b", Value: 1}, {Key: "a", Value: 2}}},
		Version:   Version{Timestamp: 1767945600000},
	}

	b, err := json.Marshal(snap.Rows)
	require.NoError(t, err)
	assert.Equal(t, `[{"b":1,"a":2}]`, string(b))

	b, err = json.Marshal(snap.Version)
	require.NoError(t, err)
	assert.Equal(t, `{"timestamp":1767945600000}`, string(b))
}

func TestUniverse_WithRecords(t *testing.T) {
	u := &Universe{TradeDate: "2026-01-09", PrevTradeDate: "2026-01-08", Records: []Record{{Symbol: "A"}}}
	next := u.WithRecords([]Record{{Symbol: "A"}, {Symbol: "B"}})

	assert.Equal(t, 1, u.Count())
	assert.Equal(t, 2, next.Count())
	assert.Equal(t, u.TradeDate, next.TradeDate)
	assert.Equal(t, u.PrevTradeDate, next.PrevTradeDate)
}
