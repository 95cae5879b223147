package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/universe/internal/contracts"
)

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS universe;

CREATE TABLE IF NOT EXISTS universe.snapshots (
	trade_date      DATE PRIMARY KEY,
	prev_trade_date DATE,
	version_ts      BIGINT NOT NULL,
	row_count       INTEGER NOT NULL,
	rows            JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS universe.snapshot_rows (
	trade_date      DATE NOT NULL REFERENCES universe.snapshots (trade_date) ON DELETE CASCADE,
	symbol          TEXT NOT NULL,
	instrument_code TEXT,
	current_price   DOUBLE PRECISION,
	change_pct      DOUBLE PRECISION,
	turnover_sma20  DOUBLE PRECISION,
	tomcap          DOUBLE PRECISION,
	rs_3m           INTEGER,
	rs_6m           INTEGER,
	PRIMARY KEY (trade_date, symbol)
);
`

// ArchivedSnapshot is one stored snapshot header plus its raw rows
type ArchivedSnapshot struct {
	TradeDate     string
	PrevTradeDate string
	Version       contracts.Version
	RowCount      int
	Rows          json.RawMessage
	CreatedAt     time.Time
}

// ErrSnapshotNotFound is returned when no snapshot exists for a date
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Repository archives snapshots in Postgres
// ⭐ SSOT: 스냅샷 DB 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new snapshot repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the archive tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}
	return nil
}

// Save replaces the snapshot for its trade date
func (r *Repository) Save(ctx context.Context, snap *contracts.Snapshot) error {
	rowsJSON, err := json.Marshal(snap.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "DELETE FROM universe.snapshots WHERE trade_date = $1", snap.TradeDate)
	if err != nil {
		return fmt.Errorf("failed to delete old snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO universe.snapshots (
			trade_date, prev_trade_date, version_ts, row_count, rows
		) VALUES ($1, NULLIF($2::text, '')::date, $3, $4, $5)
	`, snap.TradeDate, snap.PrevTradeDate, snap.Version.Timestamp, snap.Count(), rowsJSON)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO universe.snapshot_rows (
			trade_date, symbol, instrument_code, current_price, change_pct,
			turnover_sma20, tomcap, rs_3m, rs_6m
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, row := range snap.Rows {
		pr, err := ToParquetRow(row)
		if err != nil {
			return err
		}
		batch.Queue(query,
			snap.TradeDate, pr.Symbol, nullString(pr.InstrumentCode), pr.CurrentPrice, pr.ChangePct,
			pr.TurnoverSMA20, pr.Tomcap, pr.RS3M, pr.RS6M,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert snapshot rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get returns the archived snapshot for a trade date (YYYY-MM-DD)
func (r *Repository) Get(ctx context.Context, tradeDate string) (*ArchivedSnapshot, error) {
	return r.scanOne(ctx, `
		SELECT trade_date::text, COALESCE(prev_trade_date::text, ''), version_ts, row_count, rows, created_at
		FROM universe.snapshots
		WHERE trade_date = $1
	`, tradeDate)
}

// Latest returns the most recent archived snapshot
func (r *Repository) Latest(ctx context.Context) (*ArchivedSnapshot, error) {
	return r.scanOne(ctx, `
		SELECT trade_date::text, COALESCE(prev_trade_date::text, ''), version_ts, row_count, rows, created_at
		FROM universe.snapshots
		ORDER BY trade_date DESC
		LIMIT 1
	`)
}

// ListDates returns archived trade dates, newest first
func (r *Repository) ListDates(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT trade_date::text FROM universe.snapshots
		ORDER BY trade_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot dates: %w", err)
	}
	return dates, nil
}

func (r *Repository) scanOne(ctx context.Context, query string, args ...interface{}) (*ArchivedSnapshot, error) {
	var s ArchivedSnapshot
	var rows []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.TradeDate, &s.PrevTradeDate, &s.Version.Timestamp, &s.RowCount, &rows, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	s.Rows = json.RawMessage(rows)
	return &s, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Name identifies the sink in logs
func (r *Repository) Name() string { return "postgres" }

// Write archives the snapshot
func (r *Repository) Write(ctx context.Context, snap *contracts.Snapshot) error {
	return r.Save(ctx, snap)
}
