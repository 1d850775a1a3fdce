package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient создает клиент Redis и проверяет подключение.
// Redis в приложении необязателен (используется для rate limiting),
// поэтому вызывающая сторона сама решает, фатальна ли ошибка.
func NewRedisClient(addr, password string, db int) (redis.UniversalClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis configuration error: addr must be provided")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (addr: %s): %w", addr, err)
	}

	return client, nil
}
