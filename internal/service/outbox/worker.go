package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

// Причины, по которым событие уходит в DLQ.
const (
	ReasonPublishFailed = "publish_failed"
	ReasonUnroutable    = "unroutable"
)

// unknownEventLabel ограничивает кардинальность метрик для посторонних типов.
const unknownEventLabel = "unknown"

// eventAggregates: какой агрегат порождает каждый тип события.
var eventAggregates = map[string]string{
	domain.EventStockAdjusted:      domain.AggregateProduct,
	domain.EventLowStockReached:    domain.AggregateProduct,
	domain.EventOrderCreated:       domain.AggregateOrder,
	domain.EventOrderStatusChanged: domain.AggregateOrder,
}

var (
	outboxPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeops_outbox_publish_attempts_total",
		Help: "Outbox publish attempts by event type and result.",
	}, []string{"event_type", "result"})
	outboxDeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storeops_outbox_dead_letters_total",
		Help: "Events routed to the dead letter queue by event type and reason.",
	}, []string{"event_type", "reason"})
	outboxPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storeops_outbox_pending_records",
		Help: "Current number of pending records in transactional outbox.",
	})
	outboxOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storeops_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox record.",
	})
)

// DeadLetter: тело сообщения, которое уходит в DLQ.
type DeadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	Reason         string          `json:"reason"`
	Attempts       int             `json:"attempts"`
	Error          string          `json:"error"`
	DeadLetteredAt time.Time       `json:"dead_lettered_at"`
}

// DeadLetterEventType: тип события в DLQ, по нему потребители отличают
// брошенный StockAdjusted от брошенного OrderCreated без разбора тела.
func DeadLetterEventType(eventType string) string {
	return eventType + ".dead_letter"
}

// WorkerOptions задаёт параметры outbox worker.
type WorkerOptions struct {
	Logger         *log.Entry
	DLQPublisher   domain.OutboxPublisher
	PollInterval   time.Duration
	BatchSize      int
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option настраивает Worker.
type Option func(*WorkerOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(opts *WorkerOptions) {
		opts.Logger = logger
	}
}

// WithDLQPublisher задаёт publisher для событий, которые не удалось доставить.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(opts *WorkerOptions) {
		opts.DLQPublisher = publisher
	}
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.PollInterval = interval
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(opts *WorkerOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMaxAttempts задаёт число попыток публикации одного события.
func WithMaxAttempts(maxAttempts int) Option {
	return func(opts *WorkerOptions) {
		opts.MaxAttempts = maxAttempts
	}
}

// WithRetryBaseDelay задаёт первую паузу между попытками; дальше она удваивается.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(opts *WorkerOptions) {
		opts.RetryBaseDelay = delay
	}
}

// Worker доставляет события склада и заказов из outbox в брокер.
//
// Событие с неизвестным типом или чужим агрегатом сразу уходит в DLQ
// с причиной ReasonUnroutable, без попыток публикации. Остальные
// публикуются с повторами; после исчерпания попыток событие помечается
// failed и уходит в DLQ с причиной ReasonPublishFailed.
type Worker struct {
	repo           domain.OutboxRepository
	publisher      domain.OutboxPublisher
	dlqPublisher   domain.OutboxPublisher
	logger         *log.Entry
	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
	now            func() time.Time
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	opts := WorkerOptions{
		PollInterval:   defaultPollInterval,
		BatchSize:      defaultBatchSize,
		MaxAttempts:    defaultMaxAttempts,
		RetryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "outbox-worker")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBaseDelay < 0 {
		opts.RetryBaseDelay = 0
	}

	return &Worker{
		repo:           repo,
		publisher:      publisher,
		dlqPublisher:   opts.DLQPublisher,
		logger:         logger,
		pollInterval:   opts.PollInterval,
		batchSize:      opts.BatchSize,
		maxAttempts:    opts.MaxAttempts,
		retryBaseDelay: opts.RetryBaseDelay,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Run опрашивает outbox с интервалом pollInterval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// batchReport считает исходы батча по типам событий.
type batchReport map[string]map[string]int

func (r batchReport) add(eventType, result string) {
	if r[eventType] == nil {
		r[eventType] = make(map[string]int)
	}
	r[eventType][result]++
}

// ProcessOnce выбирает один батч pending-событий и доставляет его.
func (w *Worker) ProcessOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	w.refreshBacklogMetrics(ctx)

	events, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return
	}
	if len(events) == 0 {
		return
	}

	report := make(batchReport)
	for _, event := range events {
		if ctx.Err() != nil {
			break
		}
		report.add(eventLabel(event.EventType), w.deliver(ctx, event))
	}

	fields := make(log.Fields, len(report))
	for eventType, results := range report {
		fields[eventType] = results
	}
	w.logger.WithFields(fields).Debug("outbox batch processed")

	w.refreshBacklogMetrics(ctx)
}

// deliver проводит одно событие до sent или failed и возвращает исход.
func (w *Worker) deliver(ctx context.Context, event domain.OutboxMessage) string {
	entry := w.logger.WithFields(log.Fields{
		"outbox_id":    event.ID,
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	})

	if err := routable(event); err != nil {
		entry.WithError(err).Error("outbox event cannot be routed")
		w.deadLetter(ctx, entry, event, ReasonUnroutable, 0, err)
		return ReasonUnroutable
	}

	attempts, err := w.publishWithRetry(ctx, event)
	if err != nil {
		if ctx.Err() != nil {
			// Событие остаётся pending и уйдёт в следующем запуске.
			return "interrupted"
		}
		entry.WithError(err).WithField("attempts", attempts).Error("outbox publish failed after retries")
		w.deadLetter(ctx, entry, event, ReasonPublishFailed, attempts, err)
		return ReasonPublishFailed
	}

	if err := w.repo.MarkSent(ctx, event.ID); err != nil {
		entry.WithError(err).Warn("failed to mark outbox as sent")
	}
	return "sent"
}

// routable проверяет, что тип события известен и пришёл от своего агрегата.
func routable(event domain.OutboxMessage) error {
	aggregate, ok := eventAggregates[event.EventType]
	if !ok {
		return fmt.Errorf("unknown event type %q", event.EventType)
	}
	if event.AggregateType != aggregate {
		return fmt.Errorf("event %s expects aggregate %q, got %q", event.EventType, aggregate, event.AggregateType)
	}
	return nil
}

func eventLabel(eventType string) string {
	if _, ok := eventAggregates[eventType]; ok {
		return eventType
	}
	return unknownEventLabel
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) (int, error) {
	label := eventLabel(event.EventType)
	var lastErr error

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		err := w.publisher.Publish(event)
		if err == nil {
			outboxPublishAttempts.WithLabelValues(label, "sent").Inc()
			return attempt, nil
		}
		lastErr = err
		outboxPublishAttempts.WithLabelValues(label, "retry_error").Inc()

		if attempt == w.maxAttempts {
			break
		}
		if delay := w.retryBackoff(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return w.maxAttempts, fmt.Errorf("publish %s failed after %d attempts: %w", event.EventType, w.maxAttempts, lastErr)
}

// deadLetter публикует событие в DLQ и помечает его failed в outbox.
func (w *Worker) deadLetter(ctx context.Context, entry *log.Entry, event domain.OutboxMessage, reason string, attempts int, cause error) {
	label := eventLabel(event.EventType)
	outboxDeadLetters.WithLabelValues(label, reason).Inc()

	if err := w.publishToDLQ(event, reason, attempts, cause); err != nil {
		entry.WithError(err).Warn("failed to publish to DLQ")
		outboxPublishAttempts.WithLabelValues(label, "dlq_failed").Inc()
	}
	if err := w.repo.MarkFailed(ctx, event.ID); err != nil {
		entry.WithError(err).Warn("failed to mark outbox as failed")
	}
}

func (w *Worker) publishToDLQ(event domain.OutboxMessage, reason string, attempts int, cause error) error {
	if w.dlqPublisher == nil {
		return nil
	}

	payload := json.RawMessage(event.Payload)
	if !json.Valid(payload) {
		// DLQ должна принять даже битое тело; сохраняем его строкой.
		quoted, _ := json.Marshal(string(event.Payload))
		payload = quoted
	}

	body, err := json.Marshal(DeadLetter{
		OutboxID:       event.ID,
		AggregateType:  event.AggregateType,
		AggregateID:    event.AggregateID,
		EventType:      event.EventType,
		Payload:        payload,
		Reason:         reason,
		Attempts:       attempts,
		Error:          cause.Error(),
		DeadLetteredAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	dead := domain.OutboxMessage{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     DeadLetterEventType(event.EventType),
		Payload:       body,
	}
	if err := w.dlqPublisher.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

func (w *Worker) refreshBacklogMetrics(ctx context.Context) {
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	outboxPendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		outboxOldestPendingAge.Set(0)
		return
	}
	outboxOldestPendingAge.Set(max(w.now().Sub(stats.OldestPendingAt).Seconds(), 0))
}

// retryBackoff: base, 2*base, 4*base... с насыщением на переполнении.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 {
		return 0
	}
	const maxDuration = time.Duration(1<<63 - 1)
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}
