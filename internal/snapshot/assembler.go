package snapshot

import (
	"time"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// Output keys
const (
	KeySymbol        = "Symbol"
	KeyCurrentPrice  = "current_price"
	KeyDayHigh       = "day_high"
	KeyDayLow        = "day_low"
	KeyDayVolume     = "day_volume"
	KeyChangePct     = "change_percentage"
	KeyMarketCap     = "Market Cap"
	KeyInstrument    = "INECODE"
	KeyCircuitLimit  = "circuitLimit"
	KeyHigh52W       = "fifty_two_week_high"
	KeyLow52W        = "fifty_two_week_low"
	KeyDownFromHigh  = "Down from 52W High (%)"
	KeyUpFromLow     = "Up from 52W Low (%)"
	KeyTurnover      = "turnover"
	KeyTurnoverSMA20 = "TurnoverSMA20"
	KeyTomcap        = "Tomcap"
	KeyRS3M          = "RS_3M"
	KeyRS6M          = "RS_6M"
)

// droppedReferenceKeys are internal identifiers of the reference dataset
var droppedReferenceKeys = map[string]bool{
	"SecurityID":  true,
	"ListingID":   true,
	"SME Stock?":  true,
	"Industry ID": true,
}

// reservedKeys can not be overridden by pass-through reference fields
var reservedKeys = map[string]bool{
	KeySymbol: true, KeyCurrentPrice: true, KeyDayHigh: true, KeyDayLow: true,
	KeyDayVolume: true, KeyChangePct: true, KeyMarketCap: true, KeyInstrument: true,
	KeyCircuitLimit: true, KeyHigh52W: true, KeyLow52W: true, KeyDownFromHigh: true,
	KeyUpFromLow: true, KeyTurnover: true, KeyTurnoverSMA20: true, KeyTomcap: true,
	KeyRS3M: true, KeyRS6M: true,
}

// Clock returns the wall-clock time used for the version marker
type Clock func() time.Time

// Assembler turns the enriched universe into output rows
// ⭐ SSOT: S4 출력 스키마 (키 이름, 순서, 반올림)
type Assembler struct {
	clock  Clock
	logger *logger.Logger
}

// NewAssembler creates a new Assembler. A nil clock uses time.Now.
func NewAssembler(clock Clock, log *logger.Logger) *Assembler {
	if clock == nil {
		clock = time.Now
	}
	return &Assembler{clock: clock, logger: log.WithField("module", "s4_assemble")}
}

// Assemble builds the snapshot. Every key is always present; unavailable values are null.
func (a *Assembler) Assemble(u *contracts.Universe) *contracts.Snapshot {
	rows := make([]contracts.Row, len(u.Records))
	for i, rec := range u.Records {
		rows[i] = BuildRow(rec)
	}

	snap := &contracts.Snapshot{
		TradeDate:     u.TradeDate,
		PrevTradeDate: u.PrevTradeDate,
		Rows:          rows,
		Version:       contracts.Version{Timestamp: a.clock().UnixMilli()},
	}

	a.logger.WithFields(map[string]interface{}{
		"count":      snap.Count(),
		"trade_date": snap.TradeDate,
		"version":    snap.Version.Timestamp,
	}).Info("Snapshot assembled")

	return snap
}

// BuildRow renders one record in output key order:
// tick fields, reference fields (file order), then derived metrics.
func BuildRow(rec contracts.Record) contracts.Row {
	row := make(contracts.Row, 0, len(reservedKeys)+len(rec.Reference))

	row = append(row,
		contracts.Field{Key: KeySymbol, Value: rec.Symbol},
		contracts.Field{Key: KeyCurrentPrice, Value: num(rec.Close)},
		contracts.Field{Key: KeyDayHigh, Value: num(rec.High)},
		contracts.Field{Key: KeyDayLow, Value: num(rec.Low)},
		contracts.Field{Key: KeyDayVolume, Value: num(rec.Volume)},
		contracts.Field{Key: KeyChangePct, Value: finite(contracts.Round2(rec.ChangePct))},
	)

	for _, f := range rec.Reference {
		if droppedReferenceKeys[f.Key] || reservedKeys[f.Key] {
			continue
		}
		row = append(row, f)
	}

	row = append(row,
		contracts.Field{Key: KeyMarketCap, Value: num(rec.MarketCap)},
		contracts.Field{Key: KeyInstrument, Value: code(rec.InstrumentCode)},
		contracts.Field{Key: KeyCircuitLimit, Value: num(rec.CircuitLimit)},
		contracts.Field{Key: KeyHigh52W, Value: num(rec.FiftyTwoWeekHigh)},
		contracts.Field{Key: KeyLow52W, Value: num(rec.FiftyTwoWeekLow)},
		contracts.Field{Key: KeyDownFromHigh, Value: pct(rec.DownFromHighPct)},
		contracts.Field{Key: KeyUpFromLow, Value: pct(rec.UpFromLowPct)},
		contracts.Field{Key: KeyTurnover, Value: num(rec.Turnover)},
		contracts.Field{Key: KeyTurnoverSMA20, Value: num(rec.TurnoverSMA20)},
		contracts.Field{Key: KeyTomcap, Value: num(rec.Tomcap)},
		contracts.Field{Key: KeyRS3M, Value: rank(rec.RS3M)},
		contracts.Field{Key: KeyRS6M, Value: rank(rec.RS6M)},
	)

	return row
}

// num renders an optional numeric: nil stays null, non-finite becomes 0
func num(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return finite(*p)
}

// pct is num rounded to 2 decimals
func pct(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return finite(contracts.Round2(*p))
}

func finite(v float64) float64 {
	if !contracts.IsFinite(v) {
		return 0
	}
	return v
}

func rank(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func code(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
