package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisProbe checks the Redis server holding score histories
type RedisProbe struct {
	client *redis.Client
	owned  bool
}

// NewRedisProbe wraps an existing client. The probe does not close it.
func NewRedisProbe(client *redis.Client) *RedisProbe {
	return &RedisProbe{client: client}
}

// DialRedisProbe opens a dedicated client for probing
func DialRedisProbe(address, password string, db int) *RedisProbe {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return &RedisProbe{client: client, owned: true}
}

// Name implements Probe
func (p *RedisProbe) Name() string {
	return "redis"
}

// HealthCheck pings the server
func (p *RedisProbe) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the client when the probe opened it
func (p *RedisProbe) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}
