// Package orders оформляет заказы: сборка из каталога, сохранение, события.
package orders

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/metrics"
	"github.com/vladislavdragonenkov/storeops/internal/service/composer"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
	"github.com/vladislavdragonenkov/storeops/internal/service/outbox"
)

// StockApplier применяет корректировку остатка (реализуется inventory.Coordinator).
type StockApplier interface {
	Apply(ctx context.Context, req inventory.AdjustmentRequest) (inventory.Result, error)
}

// Service оформляет и удаляет заказы.
type Service struct {
	products domain.ProductRepository
	orders   domain.OrderRepository
	stock    StockApplier
	emitter  *outbox.Emitter
	metrics  *metrics.InventoryMetrics
	logger   *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithStockConsumption включает списание остатка по позициям созданного заказа.
func WithStockConsumption(applier StockApplier) Option {
	return func(s *Service) {
		s.stock = applier
	}
}

// WithEmitter подключает outbox.
func WithEmitter(emitter *outbox.Emitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// WithMetrics подключает счётчик созданных заказов.
func WithMetrics(m *metrics.InventoryMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService конструирует сервис заказов.
func NewService(products domain.ProductRepository, orders domain.OrderRepository, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "orders")
	}
	s := &Service{products: products, orders: orders, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Place собирает заказ по текущим ценам товаров и сохраняет его.
// Ошибки списания остатка не откатывают заказ: они логируются, заказ возвращается.
func (s *Service) Place(ctx context.Context, input composer.Input) (domain.Order, error) {
	catalog, err := s.pricedProducts(ctx, input.Items)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := composer.Compose(input, catalog)
	if err != nil {
		return domain.Order{}, err
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, err
	}
	s.metrics.RecordOrderCreated()

	s.logger.WithFields(log.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"items":        len(created.Items),
		"total":        created.TotalAmount.StringFixed(2),
	}).Info("order placed")

	s.emitter.Emit(ctx, domain.AggregateOrder, created.ID, domain.EventOrderCreated, map[string]any{
		"order_number":  created.OrderNumber,
		"customer_name": created.CustomerName,
		"total_amount":  created.TotalAmount.StringFixed(2),
		"items":         len(created.Items),
	})

	if s.stock != nil {
		s.consumeStock(ctx, created)
	}
	return created, nil
}

// pricedProducts загружает только товары из корзины. GetAll при недоступном
// хранилище отдаёт пустой список, и отказ выглядел бы как ссылка на
// несуществующий товар; GetByID возвращает ErrBackendUnavailable как есть.
func (s *Service) pricedProducts(ctx context.Context, items []composer.ItemRequest) ([]domain.Product, error) {
	seen := make(map[int64]struct{}, len(items))
	catalog := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}

		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Compose вернёт ReferenceError для этой позиции.
				continue
			}
			return nil, fmt.Errorf("load product %d: %w", item.ProductID, err)
		}
		catalog = append(catalog, product)
	}
	return catalog, nil
}

func (s *Service) consumeStock(ctx context.Context, order domain.Order) {
	for _, item := range order.Items {
		_, err := s.stock.Apply(ctx, inventory.AdjustmentRequest{
			ProductID: item.ProductID,
			Quantity:  -item.Quantity,
			Reason:    domain.ReasonOther,
		})
		if err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_number": order.OrderNumber,
				"product_id":   item.ProductID,
				"quantity":     item.Quantity,
			}).Error("failed to consume stock for order line")
		}
	}
}

// Get возвращает заказ по ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Delete удаляет заказ. Остаток товаров не восстанавливается.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.orders.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("order_id", id).Info("order deleted")
	return nil
}
