package workflow

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/metrics"
	"github.com/vladislavdragonenkov/storeops/internal/service/outbox"
)

// SetStatus переводит заказ по линейной цепочке pending → processing → shipped → delivered.
// Разрешены переходы вперёд (в том числе через статус) и на тот же статус;
// движение назад и любой переход из delivered возвращают ErrInvalidTransition.
func SetStatus(order domain.Order, next domain.OrderStatus) (domain.Order, error) {
	if !next.Valid() {
		return order, domain.NewValidationError("status", fmt.Sprintf("unknown value %q", next))
	}
	if order.Status.Terminal() {
		return order, fmt.Errorf("%w: order %s is already %s", domain.ErrInvalidTransition, order.OrderNumber, order.Status)
	}
	if next.Rank() < order.Status.Rank() {
		return order, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}
	order.Status = next
	return order, nil
}

// ForceStatus назначает любой известный статус без проверки порядка.
// Нужен для сценариев ручного исправления, где статус выбирается из меню.
func ForceStatus(order domain.Order, next domain.OrderStatus) (domain.Order, error) {
	if !next.Valid() {
		return order, domain.NewValidationError("status", fmt.Sprintf("unknown value %q", next))
	}
	order.Status = next
	return order, nil
}

// Service применяет переходы к сохранённым заказам.
type Service struct {
	orders  domain.OrderRepository
	emitter *outbox.Emitter
	metrics *metrics.InventoryMetrics
	logger  *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithMetrics подключает счётчик переходов статусов.
func WithMetrics(m *metrics.InventoryMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService конструирует сервис статусов заказа.
func NewService(orders domain.OrderRepository, emitter *outbox.Emitter, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.WithField("component", "order-workflow")
	}
	s := &Service{orders: orders, emitter: emitter, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advance загружает заказ, проверяет переход и сохраняет новый статус.
func (s *Service) Advance(ctx context.Context, orderID int64, next domain.OrderStatus) (domain.Order, error) {
	return s.transition(ctx, orderID, next, SetStatus, false)
}

// Force сохраняет статус в обход линейной проверки.
func (s *Service) Force(ctx context.Context, orderID int64, next domain.OrderStatus) (domain.Order, error) {
	return s.transition(ctx, orderID, next, ForceStatus, true)
}

func (s *Service) transition(
	ctx context.Context,
	orderID int64,
	next domain.OrderStatus,
	apply func(domain.Order, domain.OrderStatus) (domain.Order, error),
	forced bool,
) (domain.Order, error) {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	moved, err := apply(current, next)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"from":     current.Status,
			"to":       next,
		}).Info("status transition rejected")
		return current, err
	}
	if moved.Status == current.Status {
		return current, nil
	}

	if forced {
		s.logger.WithFields(log.Fields{
			"order_id": orderID,
			"from":     current.Status,
			"to":       next,
		}).Warn("order status forced")
	}

	status := moved.Status
	updated, err := s.orders.Update(ctx, orderID, domain.OrderPatch{Status: &status})
	if err != nil {
		return current, fmt.Errorf("persist order status: %w", err)
	}
	s.metrics.RecordStatusTransition(string(current.Status), string(updated.Status), forced)

	s.emitter.Emit(ctx, domain.AggregateOrder, updated.ID, domain.EventOrderStatusChanged, map[string]any{
		"order_number": updated.OrderNumber,
		"from":         string(current.Status),
		"status":       string(updated.Status),
		"forced":       forced,
	})
	return updated, nil
}
