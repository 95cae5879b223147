package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/config"
)

// Saver writes snapshot rows in one file format
type Saver interface {
	Save(rows []contracts.Row, path string) error
	Extension() string
}

// NewSaver returns the saver for format (json, parquet), nil if unsupported
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatJSON:
		return JSONSaver{}
	case config.FormatParquet:
		return ParquetSaver{}
	default:
		return nil
	}
}

// JSONSaver writes rows as an indented JSON array
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []contracts.Row, path string) error {
	data, err := EncodeRows(rows)
	if err != nil {
		return err
	}
	return refdata.WriteFileAtomic(path, data)
}

// EncodeRows renders rows exactly as the JSON output file holds them
func EncodeRows(rows []contracts.Row) ([]byte, error) {
	if rows == nil {
		rows = []contracts.Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot rows: %w", err)
	}
	return append(data, '\n'), nil
}

// ParquetRow is the columnar form of an output row.
// Pass-through reference fields are kept as one JSON object column.
type ParquetRow struct {
	Symbol          string   `parquet:"symbol"`
	InstrumentCode  string   `parquet:"instrument_code,optional"`
	CurrentPrice    *float64 `parquet:"current_price,optional"`
	DayHigh         *float64 `parquet:"day_high,optional"`
	DayLow          *float64 `parquet:"day_low,optional"`
	DayVolume       *float64 `parquet:"day_volume,optional"`
	ChangePct       float64  `parquet:"change_percentage"`
	MarketCap       *float64 `parquet:"market_cap,optional"`
	CircuitLimit    *float64 `parquet:"circuit_limit,optional"`
	High52W         *float64 `parquet:"fifty_two_week_high,optional"`
	Low52W          *float64 `parquet:"fifty_two_week_low,optional"`
	DownFromHighPct *float64 `parquet:"down_from_52w_high_pct,optional"`
	UpFromLowPct    *float64 `parquet:"up_from_52w_low_pct,optional"`
	Turnover        *float64 `parquet:"turnover,optional"`
	TurnoverSMA20   *float64 `parquet:"turnover_sma20,optional"`
	Tomcap          *float64 `parquet:"tomcap,optional"`
	RS3M            *int64   `parquet:"rs_3m,optional"`
	RS6M            *int64   `parquet:"rs_6m,optional"`
	Reference       string   `parquet:"reference,optional"`
}

// ParquetSaver writes rows as a Parquet file
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []contracts.Row, path string) error {
	out := make([]ParquetRow, 0, len(rows))
	for _, row := range rows {
		pr, err := ToParquetRow(row)
		if err != nil {
			return err
		}
		out = append(out, pr)
	}

	var buf bytes.Buffer
	if err := parquet.Write(&buf, out); err != nil {
		return fmt.Errorf("encode parquet %s: %w", path, err)
	}
	return refdata.WriteFileAtomic(path, buf.Bytes())
}

// ToParquetRow maps an output row onto the fixed columns
func ToParquetRow(row contracts.Row) (ParquetRow, error) {
	var pr ParquetRow
	extra := make(contracts.Row, 0)

	for _, f := range row {
		switch f.Key {
		case KeySymbol:
			pr.Symbol, _ = f.Value.(string)
		case KeyInstrument:
			pr.InstrumentCode, _ = f.Value.(string)
		case KeyCurrentPrice:
			pr.CurrentPrice = floatPtr(f.Value)
		case KeyDayHigh:
			pr.DayHigh = floatPtr(f.Value)
		case KeyDayLow:
			pr.DayLow = floatPtr(f.Value)
		case KeyDayVolume:
			pr.DayVolume = floatPtr(f.Value)
		case KeyChangePct:
			if v := floatPtr(f.Value); v != nil {
				pr.ChangePct = *v
			}
		case KeyMarketCap:
			pr.MarketCap = floatPtr(f.Value)
		case KeyCircuitLimit:
			pr.CircuitLimit = floatPtr(f.Value)
		case KeyHigh52W:
			pr.High52W = floatPtr(f.Value)
		case KeyLow52W:
			pr.Low52W = floatPtr(f.Value)
		case KeyDownFromHigh:
			pr.DownFromHighPct = floatPtr(f.Value)
		case KeyUpFromLow:
			pr.UpFromLowPct = floatPtr(f.Value)
		case KeyTurnover:
			pr.Turnover = floatPtr(f.Value)
		case KeyTurnoverSMA20:
			pr.TurnoverSMA20 = floatPtr(f.Value)
		case KeyTomcap:
			pr.Tomcap = floatPtr(f.Value)
		case KeyRS3M:
			pr.RS3M = intPtr(f.Value)
		case KeyRS6M:
			pr.RS6M = intPtr(f.Value)
		default:
			extra = append(extra, f)
		}
	}

	if len(extra) > 0 {
		data, err := json.Marshal(extra)
		if err != nil {
			return pr, fmt.Errorf("encode reference fields of %s: %w", pr.Symbol, err)
		}
		pr.Reference = string(data)
	}
	return pr, nil
}

func floatPtr(v interface{}) *float64 {
	if f, ok := v.(float64); ok {
		return &f
	}
	return nil
}

func intPtr(v interface{}) *int64 {
	if i, ok := v.(int); ok {
		n := int64(i)
		return &n
	}
	return nil
}
