package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// EnvPrefix: префикс переменных окружения консоли.
const EnvPrefix = "STOREOPS"

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	LockModeNone  = "none"
	LockModeLocal = "local"
	LockModeRedis = "redis"
)

// Config описывает настройки запуска консоли.
// Значения по умолчанию задаёт DefaultConfig, Load перекрывает их окружением.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	StorageDriver       string `envconfig:"STORAGE_DRIVER"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate bool   `envconfig:"POSTGRES_AUTO_MIGRATE"`

	KafkaBrokers  []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic    string   `envconfig:"KAFKA_TOPIC"`
	KafkaDLQTopic string   `envconfig:"KAFKA_DLQ_TOPIC"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS"`
	OutboxRetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY"`

	LockMode  string        `envconfig:"LOCK_MODE"`
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	LockTTL   time.Duration `envconfig:"LOCK_TTL"`

	OrdersConsumeStock bool `envconfig:"ORDERS_CONSUME_STOCK"`
	SeedDemoData       bool `envconfig:"SEED_DEMO_DATA"`
}

// DefaultConfig возвращает настройки для локального запуска без внешних зависимостей.
// SeedDemoData включён, потому что по умолчанию хранилище в памяти.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		LogLevel:            "info",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          "storeops.inventory.events",
		KafkaDLQTopic:       "storeops.inventory.dlq",
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		LockMode:            LockModeNone,
		LockTTL:             5 * time.Second,
		SeedDemoData:        true,
	}
}

// Load читает STOREOPS_* поверх DefaultConfig и проверяет результат.
func Load() (Config, error) {
	cfg := DefaultConfig()
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.normalize()
	// Демо-данные по умолчанию только для памяти: в пустую боевую базу их не пишем.
	if _, set := os.LookupEnv(EnvPrefix + "_SEED_DEMO_DATA"); !set {
		cfg.SeedDemoData = cfg.StorageDriver == StorageDriverMemory
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.LockMode = strings.ToLower(strings.TrimSpace(c.LockMode))
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s_LOG_LEVEL: %w", EnvPrefix, err)
	}

	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%s_POSTGRES_DSN is required for postgres storage", EnvPrefix)
		}
	default:
		return fmt.Errorf("unsupported %s_STORAGE_DRIVER %q", EnvPrefix, c.StorageDriver)
	}

	switch c.LockMode {
	case LockModeNone, LockModeLocal:
	case LockModeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%s_REDIS_ADDR is required for redis lock mode", EnvPrefix)
		}
	default:
		return fmt.Errorf("unsupported %s_LOCK_MODE %q", EnvPrefix, c.LockMode)
	}

	if c.OutboxBatchSize <= 0 || c.OutboxMaxAttempts <= 0 || c.OutboxPollInterval <= 0 {
		return fmt.Errorf("outbox batch size, max attempts and poll interval must be positive")
	}
	return nil
}

// KafkaEnabled сообщает, что события нужно публиковать в Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
