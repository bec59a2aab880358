package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics содержит метрики складских операций и заказов.
type InventoryMetrics struct {
	adjustments    *prometheus.CounterVec
	negativeStock  prometheus.Counter
	partialApplies prometheus.Counter
	lowStockEvents prometheus.Counter

	ordersCreated     prometheus.Counter
	statusTransitions *prometheus.CounterVec

	applyDuration    prometheus.Histogram
	lowStockProducts prometheus.Gauge
}

// NewInventoryMetrics регистрирует метрики в глобальном registry.
func NewInventoryMetrics() *InventoryMetrics {
	return NewInventoryMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewInventoryMetricsWithRegisterer регистрирует метрики в переданном registry.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewInventoryMetricsWithRegisterer(registerer prometheus.Registerer) *InventoryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &InventoryMetrics{
		adjustments: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeops_stock_adjustments_total",
			Help: "Total number of applied stock adjustments by reason",
		}, []string{"reason"}),
		negativeStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeops_stock_negative_total",
			Help: "Total number of adjustments that left a product with negative stock",
		}),
		partialApplies: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeops_stock_partial_apply_total",
			Help: "Total number of adjustments recorded without the matching stock update",
		}),
		lowStockEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeops_stock_low_reached_total",
			Help: "Total number of times a product crossed into the low stock level",
		}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storeops_orders_created_total",
			Help: "Total number of orders placed",
		}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storeops_order_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"from", "to", "forced"}),
		applyDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storeops_stock_apply_duration_seconds",
			Help:    "Duration of the record-then-apply stock adjustment sequence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		lowStockProducts: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storeops_low_stock_products",
			Help: "Number of products at or below their low stock threshold",
		}),
	}
}

// RecordAdjustment учитывает применённую корректировку.
func (m *InventoryMetrics) RecordAdjustment(reason string, duration time.Duration) {
	if m == nil {
		return
	}
	m.adjustments.WithLabelValues(reason).Inc()
	m.applyDuration.Observe(duration.Seconds())
}

// RecordNegativeStock увеличивает счётчик ухода остатка в минус.
func (m *InventoryMetrics) RecordNegativeStock() {
	if m == nil {
		return
	}
	m.negativeStock.Inc()
}

// RecordPartialApply увеличивает счётчик частично применённых корректировок.
func (m *InventoryMetrics) RecordPartialApply() {
	if m == nil {
		return
	}
	m.partialApplies.Inc()
}

// RecordLowStockReached увеличивает счётчик переходов в уровень low.
func (m *InventoryMetrics) RecordLowStockReached() {
	if m == nil {
		return
	}
	m.lowStockEvents.Inc()
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *InventoryMetrics) RecordOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

// RecordStatusTransition учитывает смену статуса заказа.
func (m *InventoryMetrics) RecordStatusTransition(from, to string, forced bool) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to, strconv.FormatBool(forced)).Inc()
}

// SetLowStockProducts выставляет текущее число товаров с низким остатком.
func (m *InventoryMetrics) SetLowStockProducts(count int) {
	if m == nil {
		return
	}
	m.lowStockProducts.Set(float64(count))
}
