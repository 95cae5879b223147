package s0_feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
)

// Fetcher retrieves one day of raw ticks
type Fetcher interface {
	FetchTicks(ctx context.Context, date time.Time) (*contracts.TickPayload, error)
}

// ResolverConfig holds resolver configuration
type ResolverConfig struct {
	LookbackDays   int           // max calendar days tried, start date included
	AttemptTimeout time.Duration // per fetch; 0 means no extra timeout
	Location       *time.Location
	Calendar       *Calendar // optional; closed days are skipped without a fetch
}

// Resolver walks backward from a start date to the first day with ticks
// ⭐ SSOT: 거래일 결정은 여기서만
type Resolver struct {
	fetcher Fetcher
	config  ResolverConfig
	logger  *logger.Logger
}

// Resolution is a resolved trading day and its raw payload
type Resolution struct {
	Date     time.Time
	Payload  *contracts.TickPayload
	Attempts int // fetches issued
	Skipped  int // days skipped by the calendar
}

// Day returns the resolved date as YYYY-MM-DD
func (r *Resolution) Day() string {
	return r.Date.Format(contracts.DateLayout)
}

// NewResolver creates a new Resolver
func NewResolver(fetcher Fetcher, cfg ResolverConfig, log *logger.Logger) *Resolver {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 30
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Resolver{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.WithField("module", "s0_resolver"),
	}
}

// Resolve returns the first date at or before start whose payload has a non-empty tick.
// Fetch failures and empty payloads both move one calendar day back.
// Exhausting the lookback returns contracts.ErrNoTradingDayFound.
func (r *Resolver) Resolve(ctx context.Context, start time.Time) (*Resolution, error) {
	day := r.truncate(start)
	res := &Resolution{}

	r.logger.WithField("start", day.Format(contracts.DateLayout)).Info("Searching for valid trading data")

	for i := 0; i < r.config.LookbackDays; i, day = i+1, day.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.config.Calendar != nil && r.config.Calendar.IsClosed(day) {
			res.Skipped++
			r.logger.WithField("date", day.Format(contracts.DateLayout)).Debug("Exchange closed, skipping")
			continue
		}

		res.Attempts++
		payload, err := r.fetch(ctx, day)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			r.logger.WithError(err).WithField("date", day.Format(contracts.DateLayout)).Warn("Fetch failed, looking back one day")
			continue
		case !payload.HasTicks():
			r.logger.WithField("date", day.Format(contracts.DateLayout)).Info("No trades, looking back one day")
			continue
		}

		res.Date = day
		res.Payload = payload
		r.logger.WithFields(map[string]interface{}{
			"date":     res.Day(),
			"attempts": res.Attempts,
			"skipped":  res.Skipped,
		}).Info("Found valid trading data")
		return res, nil
	}

	return nil, fmt.Errorf("%w: looked back %d days from %s",
		contracts.ErrNoTradingDayFound, r.config.LookbackDays, r.truncate(start).Format(contracts.DateLayout))
}

// ResolvePair resolves today from start, then the previous trading day
// independently from one calendar day before today's resolved date
func (r *Resolver) ResolvePair(ctx context.Context, start time.Time) (today, prev *Resolution, err error) {
	today, err = r.Resolve(ctx, start)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve trading day: %w", err)
	}

	prev, err = r.Resolve(ctx, today.Date.AddDate(0, 0, -1))
	if err != nil {
		return nil, nil, fmt.Errorf("resolve previous trading day: %w", err)
	}

	return today, prev, nil
}

// fetch applies the per-attempt timeout
func (r *Resolver) fetch(ctx context.Context, day time.Time) (*contracts.TickPayload, error) {
	if r.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.AttemptTimeout)
		defer cancel()
	}

	payload, err := r.fetcher.FetchTicks(ctx, day)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("fetcher returned no payload")
	}
	return payload, nil
}

// truncate drops the time of day in the exchange timezone
func (r *Resolver) truncate(t time.Time) time.Time {
	local := t.In(r.config.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.config.Location)
}
