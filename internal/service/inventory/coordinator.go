// Package inventory координирует запись корректировки остатка и обновление товара.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/locking"
	"github.com/vladislavdragonenkov/storeops/internal/metrics"
	"github.com/vladislavdragonenkov/storeops/internal/service/outbox"
	"github.com/vladislavdragonenkov/storeops/internal/stock"
)

// AdjustmentRequest: запрос на изменение остатка товара.
type AdjustmentRequest struct {
	ProductID int64
	Quantity  int
	Reason    domain.AdjustmentReason
}

// Result описывает итог применённой корректировки.
type Result struct {
	Adjustment    domain.StockAdjustment
	Product       domain.Product
	Level         stock.Level
	NegativeStock bool
}

// Coordinator выполняет последовательность record-then-apply:
// сначала запись в журнал, затем обновление остатка товара.
type Coordinator struct {
	products    domain.ProductRepository
	adjustments domain.StockAdjustmentRepository
	locker      locking.Locker
	metrics     *metrics.InventoryMetrics
	emitter     *outbox.Emitter
	logger      *log.Entry
}

// Option настраивает Coordinator.
type Option func(*Coordinator)

// WithLocker включает сериализацию изменений остатка по товару.
func WithLocker(locker locking.Locker) Option {
	return func(c *Coordinator) {
		if locker != nil {
			c.locker = locker
		}
	}
}

// WithMetrics подключает метрики складских операций.
func WithMetrics(m *metrics.InventoryMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithEmitter подключает публикацию событий через outbox.
func WithEmitter(emitter *outbox.Emitter) Option {
	return func(c *Coordinator) {
		c.emitter = emitter
	}
}

// NewCoordinator создаёт координатор. По умолчанию блокировок нет (last-write-wins).
func NewCoordinator(
	products domain.ProductRepository,
	adjustments domain.StockAdjustmentRepository,
	logger *log.Entry,
	opts ...Option,
) *Coordinator {
	if logger == nil {
		logger = log.WithField("component", "inventory-coordinator")
	}
	c := &Coordinator{
		products:    products,
		adjustments: adjustments,
		locker:      locking.Noop{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply проверяет запрос, записывает корректировку и применяет её к остатку.
// Невалидный запрос и неизвестный товар не оставляют следов в хранилище.
// Если запись в журнал сохранена, а товар обновить не удалось, возвращается
// *domain.PartialApplyError; повторить можно через RetryStockWrite.
func (c *Coordinator) Apply(ctx context.Context, req AdjustmentRequest) (Result, error) {
	started := time.Now()

	adj := domain.StockAdjustment{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	}
	if errs := adj.Validate(); len(errs) > 0 {
		return Result{}, errors.Join(errs...)
	}

	unlock, err := c.locker.Lock(ctx, locking.ProductKey(req.ProductID))
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	product, err := c.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{}, domain.ProductReference(req.ProductID)
		}
		return Result{}, err
	}

	recorded, err := c.adjustments.Create(ctx, adj)
	if err != nil {
		return Result{}, err
	}

	result, err := c.writeStock(ctx, recorded, product)
	if err != nil {
		return result, err
	}
	c.settle(ctx, recorded)

	c.metrics.RecordAdjustment(string(recorded.Reason), time.Since(started))
	return result, nil
}

// RetryStockWrite повторяет только применение изменения к остатку для уже
// записанной корректировки. Новая запись в журнал не создаётся.
// Корректировка, уже применённая к остатку, отклоняется с ErrInvalidTransition.
func (c *Coordinator) RetryStockWrite(ctx context.Context, partial *domain.PartialApplyError) (Result, error) {
	if partial == nil {
		return Result{}, domain.NewValidationError("adjustment", "nothing to retry")
	}

	// Товар берём из журнала: ProductID в запросе мог прийти от клиента.
	recorded, err := c.adjustments.GetByID(ctx, partial.AdjustmentID)
	if err != nil {
		return Result{}, err
	}

	unlock, err := c.locker.Lock(ctx, locking.ProductKey(recorded.ProductID))
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	// Проверка под блокировкой товара: два повтора не применят изменение дважды.
	pending, err := c.adjustments.StockWritePending(ctx, recorded.ID)
	if err != nil {
		return Result{}, err
	}
	if !pending {
		return Result{}, fmt.Errorf("%w: adjustment %d is already applied to stock", domain.ErrInvalidTransition, recorded.ID)
	}

	product, err := c.products.GetByID(ctx, recorded.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{}, domain.ProductReference(recorded.ProductID)
		}
		return Result{}, err
	}

	result, err := c.writeStock(ctx, recorded, product)
	if err != nil {
		return result, err
	}
	c.settle(ctx, recorded)

	c.logger.WithFields(log.Fields{
		"adjustment_id": recorded.ID,
		"product_id":    recorded.ProductID,
	}).Info("pending stock write retried")
	return result, nil
}

// settle снимает отметку ожидающей записи после успешного обновления остатка.
// Ошибку не возвращаем: остаток уже изменён, а отказ вызвал бы повтор.
func (c *Coordinator) settle(ctx context.Context, recorded domain.StockAdjustment) {
	if _, err := c.adjustments.MarkStockApplied(ctx, recorded.ID); err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"adjustment_id": recorded.ID,
			"product_id":    recorded.ProductID,
		}).Error("stock applied but pending marker was not cleared")
	}
}

func (c *Coordinator) writeStock(ctx context.Context, recorded domain.StockAdjustment, product domain.Product) (Result, error) {
	change := stock.ApplyDelta(product.Stock, recorded.Quantity)
	fields := log.Fields{
		"adjustment_id": recorded.ID,
		"product_id":    product.ID,
		"delta":         recorded.Quantity,
		"reason":        recorded.Reason,
	}

	newStock := change.NewStock
	updated, err := c.products.Update(ctx, product.ID, domain.ProductPatch{Stock: &newStock})
	if err != nil {
		c.metrics.RecordPartialApply()
		c.logger.WithError(err).WithFields(fields).Error("stock adjustment recorded but product update failed")
		return Result{Adjustment: recorded, Product: product}, &domain.PartialApplyError{
			AdjustmentID: recorded.ID,
			ProductID:    product.ID,
			Delta:        recorded.Quantity,
			Err:          err,
		}
	}

	level := stock.Classify(updated.Stock, updated.LowStockThreshold)
	result := Result{
		Adjustment:    recorded,
		Product:       updated,
		Level:         level,
		NegativeStock: change.Negative,
	}

	if change.Negative {
		c.metrics.RecordNegativeStock()
		c.logger.WithFields(fields).WithField("new_stock", change.NewStock).Warn("product stock went negative")
	}

	c.emitter.Emit(ctx, domain.AggregateProduct, updated.ID, domain.EventStockAdjusted, map[string]any{
		"adjustment_id":  recorded.ID,
		"sku":            updated.SKU,
		"quantity":       recorded.Quantity,
		"reason":         string(recorded.Reason),
		"previous_stock": change.Previous,
		"new_stock":      change.NewStock,
		"level":          string(level),
	})

	wasLow := stock.IsLow(change.Previous, product.LowStockThreshold)
	if level == stock.LevelLow && !wasLow {
		c.metrics.RecordLowStockReached()
		c.emitter.Emit(ctx, domain.AggregateProduct, updated.ID, domain.EventLowStockReached, map[string]any{
			"sku":       updated.SKU,
			"stock":     updated.Stock,
			"threshold": updated.LowStockThreshold,
		})
	}

	c.logger.WithFields(fields).WithField("new_stock", updated.Stock).Debug("stock adjustment applied")
	return result, nil
}
