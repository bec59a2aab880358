package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/storage/memory"
	"github.com/vladislavdragonenkov/storeops/internal/storage/postgres"
)

// repositories: набор хранилищ одного бэкенда.
type repositories struct {
	driver      string
	products    domain.ProductRepository
	orders      domain.OrderRepository
	adjustments domain.StockAdjustmentRepository
	outbox      domain.OutboxRepository
	ping        func(ctx context.Context) error
	close       func() error
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*repositories, error) {
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		return initPostgres(ctx, cfg, logger)
	case StorageDriverMemory, "":
		store := memory.NewStore()
		logger.Info("using in-memory storage")
		return &repositories{
			driver:      StorageDriverMemory,
			products:    memory.NewProductRepository(store),
			orders:      memory.NewOrderRepository(store),
			adjustments: memory.NewStockAdjustmentRepository(store),
			outbox:      memory.NewOutboxRepository(store),
			ping:        func(context.Context) error { return nil },
			close:       store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initPostgres(ctx context.Context, cfg Config, logger *log.Entry) (*repositories, error) {
	store, err := postgres.Open(ctx, cfg.PostgresDSN, logger.WithField("storage", StorageDriverPostgres))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	} else {
		status, err := store.SchemaStatus(ctx)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("check schema: %w", err)
		}
		if !status.UpToDate() {
			logger.WithField("pending", status.Pending).Warn("postgres schema has pending migrations")
		}
	}

	logger.Info("using postgres storage")
	return &repositories{
		driver:      StorageDriverPostgres,
		products:    postgres.NewProductRepository(store),
		orders:      postgres.NewOrderRepository(store),
		adjustments: postgres.NewStockAdjustmentRepository(store),
		outbox:      postgres.NewOutboxRepository(store),
		ping:        store.Ping,
		close:       store.Close,
	}, nil
}
