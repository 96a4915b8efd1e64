package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const scanBatch = 100

// RedisOptions configures the Redis backend. URL takes precedence over Addr.
type RedisOptions struct {
	URL      string
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
	Logger   *zap.Logger
}

// RedisBackend implements Backend on go-redis. Data operations go through a
// circuit breaker so an unreachable server fails fast instead of stalling
// every request on its dial timeout.
type RedisBackend struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewRedisBackend creates the client without contacting the server.
func NewRedisBackend(opts RedisOptions) (*RedisBackend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var redisOpts *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisOpts = parsed
	} else {
		if opts.Addr == "" {
			return nil, errors.New("redis address is required")
		}
		redisOpts = &redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}
	if opts.Timeout > 0 {
		redisOpts.DialTimeout = opts.Timeout
		redisOpts.ReadTimeout = opts.Timeout
		redisOpts.WriteTimeout = opts.Timeout
	}
	redisOpts.MaxRetries = 3

	return &RedisBackend{
		client:  redis.NewClient(redisOpts),
		breaker: newBreaker(logger),
		logger:  logger,
	}, nil
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var found bool
	res, err := b.breaker.Execute(func() (interface{}, error) {
		val, err := b.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		found = true
		return val, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	return res.([]byte), true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.Set(ctx, key, value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %v: %w", keys, err)
	}
	return nil
}

// DeleteByPattern walks the keyspace with SCAN rather than KEYS so large
// keyspaces do not block the server. Matches are collected over the whole
// walk before any DEL, so deletes never disturb the cursor.
func (b *RedisBackend) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		var (
			cursor  uint64
			matched []string
		)
		seen := make(map[string]struct{})
		for {
			keys, next, err := b.client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return int64(0), err
			}
			for _, k := range keys {
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				matched = append(matched, k)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}

		var deleted int64
		for start := 0; start < len(matched); start += scanBatch {
			end := min(start+scanBatch, len(matched))
			n, err := b.client.Del(ctx, matched[start:end]...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
		return deleted, nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete pattern %q: %w", pattern, err)
	}
	return res.(int64), nil
}

// Ping bypasses the breaker so health checks observe the real server state.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (b *RedisBackend) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	b.logger.Info("cache: closing redis client")
	return b.client.Close()
}
