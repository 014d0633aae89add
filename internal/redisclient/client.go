package redisclient

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Ping checks redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

const rateKeyPrefix = "ledgerhub:ratelimit:"

// Hit counts one request against key in a fixed window shared by every API
// instance. The window starts with the first hit; resetIn is the time left in
// it.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (count int, resetIn time.Duration, err error) {
	k := rateKeyPrefix + key

	pipe := c.redisdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.PTTL(ctx, k)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	resetIn = ttl.Val()
	if resetIn < 0 {
		resetIn = window
	}
	return int(incr.Val()), resetIn, nil
}
