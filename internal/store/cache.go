package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shuttlesplit/api/internal/fees"
)

// ReportCache keeps computed fee reports keyed by a generation counter that
// every write bumps through Invalidate. Get returns the current generation
// even on a miss; callers pass it back to Set so a report computed before a
// write can never be served after it. A miss is ok == false with a nil
// error.
type ReportCache interface {
	Get(ctx context.Context) (rep fees.Report, gen int64, ok bool, err error)
	Set(ctx context.Context, gen int64, rep fees.Report) error
	Invalidate(ctx context.Context) error
}

const (
	genKey       = "shuttlesplit:fees:gen"
	reportPrefix = "shuttlesplit:fees:report"
)

type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	// variant separates reports computed with different rounding settings.
	variant string
}

func NewRedisReportCache(client *redis.Client, ttl time.Duration, opts fees.Options) *RedisReportCache {
	return &RedisReportCache{
		client:  client,
		ttl:     ttl,
		variant: fmt.Sprintf("%s:%d", opts.Rounding, opts.RoundingUnit),
	}
}

func (c *RedisReportCache) reportKey(gen int64) string {
	return fmt.Sprintf("%s:%s:%d", reportPrefix, c.variant, gen)
}

func (c *RedisReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading report generation: %w", err)
	}
	return gen, nil
}

func (c *RedisReportCache) Get(ctx context.Context) (fees.Report, int64, bool, error) {
	var rep fees.Report
	gen, err := c.generation(ctx)
	if err != nil {
		return rep, 0, false, err
	}

	data, err := c.client.Get(ctx, c.reportKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rep, gen, false, nil
	}
	if err != nil {
		return rep, gen, false, fmt.Errorf("reading cached report: %w", err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		return rep, gen, false, fmt.Errorf("decoding cached report: %w", err)
	}
	return rep, gen, true, nil
}

// Set stores rep under generation gen. A report computed before the latest
// Invalidate lands under a retired generation and is never read.
func (c *RedisReportCache) Set(ctx context.Context, gen int64, rep fees.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.reportKey(gen), data, c.ttl).Err()
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, genKey).Err()
}

// NopReportCache never stores anything. Used when Redis is not configured.
type NopReportCache struct{}

func (NopReportCache) Get(context.Context) (fees.Report, int64, bool, error) {
	return fees.Report{}, 0, false, nil
}

func (NopReportCache) Set(context.Context, int64, fees.Report) error { return nil }

func (NopReportCache) Invalidate(context.Context) error { return nil }
