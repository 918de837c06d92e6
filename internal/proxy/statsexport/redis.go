// Package statsexport optionally mirrors a proxy's per-egress byte counters
// into Redis every second, for dashboards that aggregate stats across
// multiple kerneld instances; stats() itself remains an in-process atomic
// read and does not depend on this package.
package statsexport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kerneld-io/kerneld/internal/kerrors"
	"github.com/kerneld-io/kerneld/internal/proxy"
)

// Config configures the Redis mirror.
type Config struct {
	RedisURL  string        `mapstructure:"url"` // defaults to KERNELD_REDIS_URL, then redis://localhost:6379/0
	KeyPrefix string        `mapstructure:"key_prefix"` // defaults to "kerneld:proxy:stats:"
	Interval  time.Duration `mapstructure:"interval"`
}

// Exporter periodically writes every egress's {tx, rx} snapshot to Redis
// under one key per egress id.
type Exporter struct {
	client *redis.Client
	prefix string
}

// New creates an exporter, validating the Redis connection eagerly so
// misconfiguration surfaces at startup rather than on the first tick.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	opts, err := redis.ParseURL(resolveRedisURL(cfg))
	if err != nil {
		return nil, kerrors.Wrap(err, "statsexport: parsing redis URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, kerrors.Wrap(err, "statsexport: connecting to redis")
	}
	return &Exporter{client: client, prefix: resolvePrefix(cfg)}, nil
}

func resolveRedisURL(cfg Config) string {
	if cfg.RedisURL != "" {
		return cfg.RedisURL
	}
	if v := os.Getenv("KERNELD_REDIS_URL"); v != "" {
		return v
	}
	return "redis://localhost:6379/0"
}

func resolvePrefix(cfg Config) string {
	if cfg.KeyPrefix != "" {
		return cfg.KeyPrefix
	}
	return "kerneld:proxy:stats:"
}

func statsKey(prefix, egressID string) string {
	return fmt.Sprintf("%s%s", prefix, egressID)
}

func (e *Exporter) Close() error { return e.client.Close() }

// Run mirrors snapshot() every interval until ctx is canceled.
func (e *Exporter) Run(ctx context.Context, interval time.Duration, snapshot func() []proxy.Snapshot) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.exportOnce(ctx, snapshot())
		}
	}
}

func (e *Exporter) exportOnce(ctx context.Context, snaps []proxy.Snapshot) {
	pipe := e.client.Pipeline()
	for _, s := range snaps {
		encoded, err := json.Marshal(s)
		if err != nil {
			continue
		}
		pipe.Set(ctx, statsKey(e.prefix, s.EgressID), encoded, 0)
	}
	pipe.Exec(ctx)
}
