package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа после создания.
type OrderStatus string

const (
	// OrderStatusPending: заказ принят, исполнение не начато.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing: заказ собирается.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped: заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered: заказ доставлен, терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

// OrderStatuses возвращает статусы в порядке жизненного цикла.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered}
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// Rank возвращает позицию статуса в линейном порядке (-1 для неизвестного).
func (s OrderStatus) Rank() int {
	rank, ok := orderStatusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered
}

// OrderLineItem: позиция заказа; имя и цена зафиксированы на момент создания.
type OrderLineItem struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Order агрегирует покупателя, позиции и итоговую сумму.
type Order struct {
	ID              int64
	OrderNumber     string
	CustomerName    string
	CustomerAddress string
	Items           []OrderLineItem
	TotalAmount     decimal.Decimal
	Status          OrderStatus
	CreatedAt       time.Time
}

// OrderPatch: частичное обновление заказа. Позиции и сумма неизменяемы.
type OrderPatch struct {
	Status *OrderStatus
}

// Apply переносит заданные поля патча в заказ.
func (p OrderPatch) Apply(order *Order) {
	if p.Status != nil {
		order.Status = *p.Status
	}
}

// FormatOrderNumber строит отображаемый номер заказа: ORD-0007, ORD-12345.
func FormatOrderNumber(id int64) string {
	return fmt.Sprintf("ORD-%04d", id)
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error
	if strings.TrimSpace(o.CustomerName) == "" {
		errs = append(errs, NewValidationError("customer_name", "is required"))
	}
	if strings.TrimSpace(o.CustomerAddress) == "" {
		errs = append(errs, NewValidationError("customer_address", "is required"))
	}
	if len(o.Items) == 0 {
		errs = append(errs, NewValidationError("items", "must contain at least one item"))
	}
	if o.TotalAmount.IsNegative() {
		errs = append(errs, NewValidationError("total_amount", "must be non-negative"))
	}
	if !o.Status.Valid() {
		errs = append(errs, NewValidationError("status", fmt.Sprintf("unknown value %q", o.Status)))
	}

	// Сверяем сумму заказа с суммой позиций.
	calc := decimal.Zero
	for i, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero"))
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must be non-negative"))
		}
		calc = calc.Add(item.Subtotal)
	}
	if !calc.Round(2).Equal(o.TotalAmount) {
		errs = append(errs, NewValidationError("total_amount", "does not match items sum"))
	}
	return errs
}
