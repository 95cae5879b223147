package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/logger"
	"github.com/wonny/universe/pkg/redis"
)

// CachePrefix namespaces every snapshot cache key
const CachePrefix = "universe"

// Notice is the message broadcast on redis.SnapshotChannel after a publish
type Notice struct {
	TradeDate string `json:"trade_date"`
	Timestamp int64  `json:"timestamp"`
	Count     int    `json:"count"`
}

// Publisher pushes the latest snapshot into the dashboard cache
type Publisher struct {
	client *redis.Client
	cache  *redis.Cache
	logger *logger.Logger
}

// NewPublisher creates a Publisher. A disabled client makes Publish a no-op.
func NewPublisher(client *redis.Client, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		cache:  redis.NewCache(client, CachePrefix),
		logger: log.WithField("module", "snapshot_publish"),
	}
}

// Cache returns the snapshot cache, shared with the API
func (p *Publisher) Cache() *redis.Cache {
	return p.cache
}

// Publish stores rows and version atomically, then notifies subscribers
func (p *Publisher) Publish(ctx context.Context, snap *contracts.Snapshot) error {
	if !p.client.Enabled() {
		return nil
	}

	rows, err := json.Marshal(snap.Rows)
	if err != nil {
		return fmt.Errorf("encode snapshot rows: %w", err)
	}

	values := map[string]interface{}{
		redis.LatestUniverseKey:           json.RawMessage(rows),
		redis.UniverseKey(snap.TradeDate): json.RawMessage(rows),
		redis.LatestVersionKey:            snap.Version,
	}
	if err := p.cache.SetMany(ctx, values, redis.TTLWeek); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}

	notice, err := json.Marshal(Notice{
		TradeDate: snap.TradeDate,
		Timestamp: snap.Version.Timestamp,
		Count:     snap.Count(),
	})
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	if err := p.client.Publish(ctx, redis.SnapshotChannel, notice); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"trade_date": snap.TradeDate,
		"count":      snap.Count(),
	}).Info("Snapshot published")

	return nil
}

// Name identifies the sink in logs
func (p *Publisher) Name() string { return "redis" }

// Write publishes the snapshot
func (p *Publisher) Write(ctx context.Context, snap *contracts.Snapshot) error {
	return p.Publish(ctx, snap)
}
