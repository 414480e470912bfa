package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/metrics"
)

const keyPrefix = "clientpulse:snapshot:"

// SnapshotCache is a Redis-backed cache for assembled account snapshots.
// Upstream fetches are the slow path; evaluations against an unchanged
// snapshot should not repeat them.
type SnapshotCache struct {
	client    *redis.Client
	collector metrics.Collector
	log       *logrus.Logger
	ttl       time.Duration
}

// NewSnapshotCache connects to Redis and verifies the connection.
func NewSnapshotCache(cfg config.RedisConfig, collector metrics.Collector, log *logrus.Logger) (*SnapshotCache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	ttl, err := time.ParseDuration(cfg.TTL)
	if err != nil {
		ttl = 5 * time.Minute
		log.WithError(err).Warn("Invalid redis.ttl, using default 5m")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if collector == nil {
		collector = metrics.Noop{}
	}

	log.WithFields(logrus.Fields{
		"address": cfg.Address,
		"db":      cfg.DB,
		"ttl":     ttl,
	}).Info("Snapshot cache initialized")

	return &SnapshotCache{client: rdb, collector: collector, log: log, ttl: ttl}, nil
}

// Get returns the cached snapshot for an account, or nil on a miss.
func (c *SnapshotCache) Get(ctx context.Context, accountID string) (*account.Snapshot, error) {
	data, err := c.client.Get(ctx, keyPrefix+accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		c.collector.RecordCache("get", false)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	var snap account.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.log.WithError(err).WithField("account_id", accountID).Warn("Dropping corrupt snapshot cache entry")
		c.client.Del(ctx, keyPrefix+accountID)
		c.collector.RecordCache("get", false)
		return nil, nil
	}
	c.collector.RecordCache("get", true)
	return &snap, nil
}

// Set stores a snapshot with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap *account.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+snap.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	c.collector.RecordCache("set", true)
	return nil
}

// Invalidate removes an account's cached snapshot.
func (c *SnapshotCache) Invalidate(ctx context.Context, accountID string) error {
	if err := c.client.Del(ctx, keyPrefix+accountID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
