package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/demandcast/backend-go/internal/config"
	"github.com/demandcast/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const reportKey = "report:latest_batch"

// ReportCache holds the aggregated batch report between forecast runs. The
// report is derived data, so the cache is invalidated whenever a new batch is
// persisted and repopulated on the next read.
type ReportCache interface {
	GetReport(ctx context.Context) (*domain.ReportPayload, bool, error)
	SetReport(ctx context.Context, payload domain.ReportPayload) error
	Invalidate(ctx context.Context) error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return &noopReportCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func (c *redisReportCache) GetReport(ctx context.Context) (*domain.ReportPayload, bool, error) {
	payload, err := c.client.Get(ctx, reportKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.ReportPayload
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false, fmt.Errorf("decode report cache: %w", err)
	}

	return &report, true, nil
}

func (c *redisReportCache) SetReport(ctx context.Context, report domain.ReportPayload) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}

	if err := c.client.Set(ctx, reportKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, reportKey).Err()
}

func (n *noopReportCache) GetReport(ctx context.Context) (*domain.ReportPayload, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetReport(ctx context.Context, report domain.ReportPayload) error {
	return nil
}

func (n *noopReportCache) Invalidate(ctx context.Context) error {
	return nil
}
