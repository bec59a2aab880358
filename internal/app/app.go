package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storeops/internal/health"
	"github.com/vladislavdragonenkov/storeops/internal/httpapi"
	"github.com/vladislavdragonenkov/storeops/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storeops/internal/metrics"
	"github.com/vladislavdragonenkov/storeops/internal/service/catalog"
	"github.com/vladislavdragonenkov/storeops/internal/service/dashboard"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
	"github.com/vladislavdragonenkov/storeops/internal/service/orders"
	"github.com/vladislavdragonenkov/storeops/internal/service/outbox"
	"github.com/vladislavdragonenkov/storeops/internal/service/workflow"
	"github.com/vladislavdragonenkov/storeops/internal/version"
)

const (
	shutdownTimeout   = 5 * time.Second
	outboxStaleAfter  = 5 * time.Minute
	readHeaderTimeout = 5 * time.Second
)

// Console: собранное приложение: API, health-проверки и outbox worker.
type Console struct {
	API    http.Handler
	Health *healthcheck.Handler
	Worker *outbox.Worker

	repos    *repositories
	producer *kafka.Producer
	redis    *redis.Client
	logger   *log.Entry
}

// Build собирает зависимости консоли по конфигурации. Вызывающий обязан Close.
func Build(ctx context.Context, cfg Config, logger *log.Entry) (*Console, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	repos, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Console{repos: repos, logger: logger}

	locker, redisClient, err := initLocker(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.redis = redisClient

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		// Консоль работает и без брокера: события остаются в outbox.
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
	}
	c.producer = producer

	inventoryMetrics := metrics.NewInventoryMetrics()
	emitter := outbox.NewEmitter(repos.outbox, logger.WithField("component", "outbox-emitter"))

	coordinator := inventory.NewCoordinator(repos.products, repos.adjustments, logger.WithField("component", "inventory"),
		inventory.WithLocker(locker),
		inventory.WithMetrics(inventoryMetrics),
		inventory.WithEmitter(emitter),
	)
	orderOpts := []orders.Option{orders.WithEmitter(emitter), orders.WithMetrics(inventoryMetrics)}
	if cfg.OrdersConsumeStock {
		orderOpts = append(orderOpts, orders.WithStockConsumption(coordinator))
	}
	catalogSvc := catalog.NewService(repos.products, logger.WithField("component", "catalog"))
	orderSvc := orders.NewService(repos.products, repos.orders, logger.WithField("component", "orders"), orderOpts...)
	workflowSvc := workflow.NewService(repos.orders, emitter, logger.WithField("component", "order-workflow"),
		workflow.WithMetrics(inventoryMetrics),
	)
	dashboardSvc := dashboard.NewService(repos.products, repos.orders, repos.adjustments, inventoryMetrics,
		logger.WithField("component", "dashboard"))

	c.API = httpapi.NewRouter(httpapi.Services{
		Catalog:   catalogSvc,
		Orders:    orderSvc,
		Workflow:  workflowSvc,
		Inventory: coordinator,
		Dashboard: dashboardSvc,
	}, logger.WithField("component", "http"))

	publisher, dlq := eventPublishers(cfg, producer, logger)
	c.Worker = outbox.NewWorker(repos.outbox, publisher,
		outbox.WithLogger(logger.WithField("component", "outbox-worker")),
		outbox.WithDLQPublisher(dlq),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)

	c.Health = healthcheck.NewHandler(version.Get().Version)
	c.Health.Register("storage", true, repos.ping)
	c.Health.Register("outbox", false, outboxBacklogCheck(repos))
	if redisClient != nil {
		c.Health.Register("redis", false, func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.SeedDemoData {
		s := seeder{
			products:  repos.products,
			catalog:   catalogSvc,
			inventory: coordinator,
			orders:    orderSvc,
			workflow:  workflowSvc,
			logger:    logger.WithField("component", "seed"),
		}
		if err := s.Seed(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	return c, nil
}

// outboxBacklogCheck переводит сервис в degraded, если события давно не публикуются.
func outboxBacklogCheck(repos *repositories) healthcheck.CheckFunc {
	return func(ctx context.Context) error {
		stats, err := repos.outbox.Stats(ctx)
		if err != nil {
			return err
		}
		if stats.PendingCount > 0 && time.Since(stats.OldestPendingAt) > outboxStaleAfter {
			return fmt.Errorf("%d pending events, oldest since %s", stats.PendingCount, stats.OldestPendingAt.Format(time.RFC3339))
		}
		return nil
	}
}

// OpsHandler отдаёт /metrics, /healthz, /livez и /readyz.
func (c *Console) OpsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", c.Health)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", c.Health.ReadinessHandler)
	return mux
}

// Close освобождает брокер, redis и хранилище. Повторный вызов безопасен.
func (c *Console) Close() {
	closeKafka(c.producer, c.logger)
	c.producer = nil

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.WithError(err).Warn("failed to close redis client")
		}
		c.redis = nil
	}

	if c.repos != nil && c.repos.close != nil {
		if err := c.repos.close(); err != nil {
			c.logger.WithError(err).Warn("failed to close storage")
		}
		c.repos = nil
	}
}

// Run поднимает консоль и блокируется до отмены ctx или ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithField("build", version.String()).Info("starting store operations console")

	console, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer console.Close()

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		console.Worker.Run(workerCtx)
	}()
	defer func() {
		stopWorker()
		<-workerDone
	}()

	opsSrv := startOpsServer(ctx, cfg.MetricsAddr, logger, console.OpsHandler())

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		shutdownHTTP(opsSrv, logger)
		return err
	}
	apiSrv := &http.Server{Handler: console.API, ReadHeaderTimeout: readHeaderTimeout}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", lis.Addr())
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(opsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(opsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startOpsServer запускает HTTP-обработчик метрик и health-проверок.
func startOpsServer(ctx context.Context, addr string, logger *log.Entry, handler http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: readHeaderTimeout}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("ops server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
