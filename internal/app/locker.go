package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/locking"
)

const redisPingTimeout = 2 * time.Second

// initLocker выбирает стратегию блокировки товаров. Для redis возвращается
// клиент, который нужно закрыть при остановке.
func initLocker(ctx context.Context, cfg Config, logger *log.Entry) (locking.Locker, *redis.Client, error) {
	switch cfg.LockMode {
	case LockModeLocal:
		logger.Info("per-product locking: local")
		return locking.NewLocal(), nil, nil
	case LockModeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}

		locker, err := locking.NewRedis(client, cfg.LockTTL, logger.WithField("component", "redis-lock"))
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.WithField("addr", cfg.RedisAddr).Info("per-product locking: redis")
		return locker, client, nil
	default:
		// Последняя запись побеждает, как и без координации.
		return locking.Noop{}, nil, nil
	}
}
