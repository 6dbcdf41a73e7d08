package config

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// NewRedis connects the client used for daily ticket-code counters.
func NewRedis(ctx context.Context) (*redis.Client, error) {
	db, err := strconv.Atoi(GetEnv("REDIS_DB", "0"))
	if err != nil {
		db = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: GetEnv("REDIS_PASSWORD", ""),
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
