package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	defaultLockTTL   = 5 * time.Second
	defaultRetryWait = 25 * time.Millisecond
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу.
// Сравнение и удаление выполняются в Redis атомарно: между ними ключ не
// может истечь и достаться другому процессу.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// redisStore описывает операции Redis, нужные блокировке.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	// CompareAndDelete удаляет key, если его значение равно owner.
	CompareAndDelete(ctx context.Context, key, owner string) (bool, error)
}

// clientStore адаптирует *redis.Client к redisStore.
type clientStore struct {
	client *redis.Client
}

func (s clientStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, value, ttl).Result()
}

func (s clientStore) CompareAndDelete(ctx context.Context, key, owner string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, s.client, []string{key}, owner).Int()
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// Redis: распределённая блокировка на SET NX PX с владельцем-токеном.
type Redis struct {
	store     redisStore
	ttl       time.Duration
	retryWait time.Duration
	logger    *log.Entry
}

// NewRedis создаёт блокировку поверх клиента go-redis.
func NewRedis(client *redis.Client, ttl time.Duration, logger *log.Entry) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	return newRedisWithStore(clientStore{client: client}, ttl, logger), nil
}

func newRedisWithStore(store redisStore, ttl time.Duration, logger *log.Entry) *Redis {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = log.WithField("component", "redis-lock")
	}
	return &Redis{store: store, ttl: ttl, retryWait: defaultRetryWait, logger: logger}
}

// Lock повторяет SETNX, пока ключ не освободится или не истечёт контекст.
func (l *Redis) Lock(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()
	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retryWait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Контекст вызова мог уже истечь; освобождаем независимо от него.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := l.release(releaseCtx, key, owner); err != nil {
			l.logger.WithError(err).WithField("key", key).Warn("failed to release lock")
		}
	}, nil
}

// release удаляет ключ, только если владелец всё ещё совпадает.
func (l *Redis) release(ctx context.Context, key, owner string) error {
	deleted, err := l.store.CompareAndDelete(ctx, key, owner)
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if !deleted {
		l.logger.WithField("key", key).Warn("lock expired before release")
	}
	return nil
}

var _ Locker = (*Redis)(nil)
