// Package cache keeps fetched price series in Redis so repeated runs within a
// short window do not hit the market-data provider again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yn6733212/Market-Snapshot/internal/collector"
	"github.com/yn6733212/Market-Snapshot/internal/logging"
	"github.com/yn6733212/Market-Snapshot/internal/metrics"
	"github.com/yn6733212/Market-Snapshot/internal/model"
)

const keyPrefix = "snapshot:series"

// SeriesCache is a collector.Fetcher that serves series from Redis and falls
// back to Inner on a miss. Redis failures are logged and bypassed.
type SeriesCache struct {
	Inner   collector.Fetcher
	Client  *redis.Client
	TTL     time.Duration
	Log     *logrus.Logger
	Metrics *metrics.Metrics
}

// Connect opens a Redis client from a redis:// URL and checks it answers.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// New wraps inner with a Redis cache.
func New(inner collector.Fetcher, client *redis.Client, ttl time.Duration, log *logrus.Logger) *SeriesCache {
	if log == nil {
		log = logging.Discard()
	}
	return &SeriesCache{Inner: inner, Client: client, TTL: ttl, Log: log}
}

func (c *SeriesCache) Name() string { return c.Inner.Name() + "+redis" }

func (c *SeriesCache) key(ticker string, lookbackDays int) string {
	return fmt.Sprintf("%s:%s:%s:%d", keyPrefix, c.Inner.Name(), ticker, lookbackDays)
}

func (c *SeriesCache) FetchHistory(ctx context.Context, ticker string, lookbackDays int) (model.InstrumentSeries, error) {
	key := c.key(ticker, lookbackDays)
	log := c.Log.WithField("key", key)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s model.InstrumentSeries
		jerr := json.Unmarshal(raw, &s)
		if jerr == nil {
			c.Metrics.CacheLookup(true)
			return s, nil
		}
		log.WithError(jerr).Warn("Discarding undecodable cached series")
	case errors.Is(err, redis.Nil):
	default:
		log.WithError(err).Warn("Redis get failed, fetching directly")
	}
	c.Metrics.CacheLookup(false)

	s, err := c.Inner.FetchHistory(ctx, ticker, lookbackDays)
	if err != nil {
		return model.InstrumentSeries{}, err
	}
	if data, merr := json.Marshal(s); merr == nil {
		if serr := c.Client.Set(ctx, key, data, c.TTL).Err(); serr != nil {
			log.WithError(serr).Warn("Redis set failed")
		}
	}
	return s, nil
}
