package contracts

// Record is one symbol flowing through the enrichment stages
// ⭐ SSOT: S0 → S4 종목 단위 데이터 전달
//
// Stages never mutate a Record they received. Each stage copies the value,
// fills in its own fields and returns a new slice.
type Record struct {
	Symbol         string
	InstrumentCode string

	// S0: today's tick
	Open   *float64
	High   *float64
	Low    *float64
	Close  *float64
	Volume *float64

	// S1: change vs previous trading day
	ChangePct      float64
	ChangeFallback bool // open-based fallback was used; not persisted

	// S1: reference join
	MarketCap    *float64
	Reference    []Field // shared, read-only
	CircuitLimit *float64

	// S2: 52-week extremes
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
	DownFromHighPct  *float64
	UpFromLowPct     *float64

	// S2: liquidity
	Turnover      *float64
	TurnoverSMA20 *float64
	Tomcap        *float64

	// S3: relative strength
	RS3MScore *float64 // transient
	RS6MScore *float64 // transient
	RS3M      *int
	RS6M      *int
}

// RecordFromTick starts a Record from a normalized tick
func RecordFromTick(t Tick) Record {
	return Record{
		Symbol: t.Symbol,
		Open:   t.Open,
		High:   t.High,
		Low:    t.Low,
		Close:  t.Close,
		Volume: t.Volume,
	}
}

// Universe is the ordered in-memory set of records handed from stage to stage
type Universe struct {
	TradeDate     string   `json:"trade_date"`      // resolved trading day, YYYY-MM-DD
	PrevTradeDate string   `json:"prev_trade_date"` // independently resolved previous day
	Records       []Record `json:"-"`
}

// Count returns the number of records
func (u *Universe) Count() int {
	return len(u.Records)
}

// WithRecords returns a copy of the universe holding recs
func (u *Universe) WithRecords(recs []Record) *Universe {
	return &Universe{
		TradeDate:     u.TradeDate,
		PrevTradeDate: u.PrevTradeDate,
		Records:       recs,
	}
}
