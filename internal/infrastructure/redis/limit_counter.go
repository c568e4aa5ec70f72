package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
)

const counterTimeout = 500 * time.Millisecond

var _ httprate.LimitCounter = (*LimitCounter)(nil)

// LimitCounter keeps httprate's sliding-window counts in Redis so every
// replica enforces the same per-caller limit. Each window is one key that
// expires after two window lengths.
type LimitCounter struct {
	client       redis.UniversalClient
	prefix       string
	windowLength time.Duration
}

func NewLimitCounter(client redis.UniversalClient, prefix string) *LimitCounter {
	if prefix == "" {
		prefix = "paygate:ratelimit"
	}
	return &LimitCounter{client: client, prefix: prefix, windowLength: time.Minute}
}

func (c *LimitCounter) Config(requestLimit int, windowLength time.Duration) {
	c.windowLength = windowLength
}

func (c *LimitCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *LimitCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()

	k := c.windowKey(key, currentWindow)
	pipe := c.client.TxPipeline()
	pipe.IncrBy(ctx, k, int64(amount))
	pipe.Expire(ctx, k, 2*c.windowLength)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rate limit increment: %w", err)
	}
	return nil
}

func (c *LimitCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()

	values, err := c.client.MGet(ctx, c.windowKey(key, currentWindow), c.windowKey(key, previousWindow)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit get: %w", err)
	}

	curr, err := parseCount(values[0])
	if err != nil {
		return 0, 0, err
	}
	prev, err := parseCount(values[1])
	if err != nil {
		return 0, 0, err
	}
	return curr, prev, nil
}

func (c *LimitCounter) windowKey(key string, window time.Time) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, key, window.Unix())
}

// parseCount reads an MGET slot; missing keys come back as nil.
func parseCount(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("rate limit counter %q: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("rate limit counter: unexpected type %T", v)
	}
}
