package refdata

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadSectors(t *testing.T) {
	path := writeTemp(t, "Sector_Industry.json", `[
  {"Symbol": " reliance ", "Sector Name": "Energy", "Industry Name": "Refineries", "Stock Name": "Reliance Industries", "Market Cap": 1834567.25, "INECODE": "INE002A01018"},
  {"Symbol": "NOCAP", "Sector Name": "Misc", "Market Cap": "N/A"},
  {"Sector Name": "orphan"},
  "not an object",
  {"SYMBOL": "TCS", "Market Cap": "1,234.5", "INECODE": "INE467B01029", "Zeta": 1}
]`)

	refs, err := LoadSectors(path)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	assert.Equal(t, "RELIANCE", refs[0].Symbol)
	assert.Equal(t, "INE002A01018", refs[0].InstrumentCode)
	require.NotNil(t, refs[0].MarketCap)
	assert.Equal(t, 1834567.25, *refs[0].MarketCap)

	keys := make([]string, 0)
	for _, f := range refs[0].Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"Sector Name", "Industry Name", "Stock Name"}, keys, "file order kept, identity keys removed")

	assert.Equal(t, "", refs[1].InstrumentCode)
	assert.Nil(t, refs[1].MarketCap, "N/A market cap is unavailable")

	assert.Equal(t, "TCS", refs[2].Symbol)
	assert.Equal(t, 1234.5, *refs[2].MarketCap)
}

func TestLoadSectors_Wrapped(t *testing.T) {
	path := writeTemp(t, "s.json", `{"data": [{"Symbol": "A", "INECODE": "INE000000001"}]}`)
	refs, err := LoadSectors(path)
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	_, err := LoadSectors(missing)
	assert.True(t, errors.Is(err, contracts.ErrMissingReference))
	_, err = LoadExtremes(missing)
	assert.True(t, errors.Is(err, contracts.ErrMissingReference))
	_, err = LoadCircuitBands(missing)
	assert.True(t, errors.Is(err, contracts.ErrMissingReference))
	_, err = LoadHistory(missing)
	assert.True(t, errors.Is(err, contracts.ErrMissingReference))
}

func TestLoad_Malformed(t *testing.T) {
	path := writeTemp(t, "bad.json", `{"data": {"oops": 1}}`)
	_, err := LoadSectors(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, contracts.ErrMissingReference))
}

func TestLoadExtremes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "wrapped with 52_Weeks keys",
			body: `{"source_date": "2026-01-08", "last_updated": "x", "data": [{"Symbol": "abc", "52_Weeks_High": 200, "52_Weeks_Low": "N/A"}]}`,
		},
		{
			name: "bare list with High/Low",
			body: `[{"Symbol": "ABC", "High": 200, "Low": null}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := LoadExtremes(writeTemp(t, "52.json", tt.body))
			require.NoError(t, err)

			ref, ok := ext["ABC"]
			require.True(t, ok)
			require.NotNil(t, ref.High)
			assert.Equal(t, 200.0, *ref.High)
			assert.Nil(t, ref.Low)
		})
	}
}

func TestLoadCircuitBands(t *testing.T) {
	path := writeTemp(t, "circuit.json", `{"data": [{"SYMBOL": "A", "BAND": 20}, {"SYMBOL": "B", "BAND": "No Band"}, {"SYMBOL": "C", "BAND": "5"}]}`)

	bands, err := LoadCircuitBands(path)
	require.NoError(t, err)

	assert.Equal(t, 20.0, *bands["A"])
	assert.Nil(t, bands["B"])
	_, present := bands["B"]
	assert.True(t, present)
	assert.Equal(t, 5.0, *bands["C"])
}

func TestWriteCircuitBands_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "Circuit_Limits.json")
	require.NoError(t, WriteCircuitBands(path, CircuitDocument{
		SourceDate:  "2026-01-09",
		LastUpdated: "2026-01-09 08:30:00",
		Data: []CircuitEntry{
			{Symbol: "A", Band: 10.0},
			{Symbol: "B", Band: "No Band"},
		},
	}))

	bands, err := LoadCircuitBands(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, *bands["A"])
	assert.Nil(t, bands["B"])

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	assert.Empty(t, matches, "temp file cleaned up")
}

func TestLoadHistory(t *testing.T) {
	path := writeTemp(t, "hist.json", `[
  {"Symbol": "abc", "INECODE": "INE000000001", "candles": [
    ["2026-01-09T00:00:00+05:30", 1, 2, 0.5, 1.5, 1000, 0, 12.34],
    ["2026-01-08T00:00:00+05:30", 1, 2, 0.5, 1500, 74000, 11.1],
    ["2026-01-07", 1, 2, 0.5, 1.3, 900],
    [null, 1, 2, 3, 4, 5, 6]
  ]}
]`)

	entries, err := LoadHistory(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "ABC", e.Symbol)
	require.Len(t, e.Candles, 3, "dateless row skipped")

	assert.Equal(t, "2026-01-09", e.Candles[0].Day())
	assert.Equal(t, 12.34, *e.Candles[0].Turnover, "8-value row: turnover follows OI")
	assert.Equal(t, 11.1, *e.Candles[1].Turnover, "7-value row: turnover is last")
	assert.Nil(t, e.Candles[2].Turnover, "6-value row has no turnover")
	assert.Equal(t, 1.3, *e.Candles[2].Close)
}

func TestParseCandle_Turnover(t *testing.T) {
	tests := []struct {
		name string
		row  []interface{}
		want *float64
	}{
		{"ohlcv only", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, 1500.0, 74000.0}, nil},
		{"turnover appended", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, 1500.0, 74000.0, 11.1}, contracts.F(11.1)},
		{"raw row with OI", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, 1500.0, 74000.0, 250000.0}, nil},
		{"OI with non-numeric close", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, "-", 74000.0, 0.0}, nil},
		{"OI then turnover", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, 1500.0, 74000.0, 250000.0, 11.1}, contracts.F(11.1)},
		{"extra trailing value", []interface{}{"2026-01-09", 1.0, 2.0, 0.5, 1500.0, 74000.0, 0.0, 11.1, 7.0}, contracts.F(11.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseCandle(tt.row)
			require.True(t, ok)
			if tt.want == nil {
				assert.Nil(t, c.Turnover)
				return
			}
			require.NotNil(t, c.Turnover)
			assert.InDelta(t, *tt.want, *c.Turnover, 1e-9)
		})
	}
}

func TestLoadHistory_CapsCandles(t *testing.T) {
	rows := make([][]interface{}, 0, 250)
	for i := 0; i < 250; i++ {
		rows = append(rows, []interface{}{"2026-01-01", 1, 1, 1, 1, 1, 1})
	}
	body, err := json.Marshal([]map[string]interface{}{{"Symbol": "A", "candles": rows}})
	require.NoError(t, err)

	entries, err := LoadHistory(writeTemp(t, "h.json", string(body)))
	require.NoError(t, err)
	assert.Len(t, entries[0].Candles, contracts.MaxCandles)
}

func TestSetLoad(t *testing.T) {
	dir := t.TempDir()
	sector := filepath.Join(dir, "sector.json")
	require.NoError(t, os.WriteFile(sector, []byte(`[{"Symbol": "A", "INECODE": "INE000000001"}]`), 0o644))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))

	set := Load(config.DataConfig{
		SectorFile:   sector,
		ExtremesFile: bad,
		CircuitFile:  filepath.Join(dir, "missing.json"),
		HistoryFile:  filepath.Join(dir, "missing2.json"),
	}, logger.Nop())

	assert.Len(t, set.Sectors, 1)
	assert.Nil(t, set.Extremes)
	assert.Nil(t, set.Circuit)
	assert.Nil(t, set.History)

	require.Len(t, set.Status, 4)
	assert.True(t, set.Status[0].Loaded)
	assert.False(t, set.Status[1].Missing, "unreadable is not missing")
	assert.NotEmpty(t, set.Status[1].Error)
	assert.True(t, set.Status[2].Missing)
}
