// Package dashboard собирает read-модели консоли: сводку, поиск и историю.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/metrics"
	"github.com/vladislavdragonenkov/storeops/internal/stock"
)

const (
	topProductsLimit       = 3
	recentOrdersLimit      = 5
	recentAdjustmentsLimit = 5

	// UnknownProductName подставляется для корректировок удалённых товаров.
	UnknownProductName = "Unknown Product"
)

// AdjustmentView: корректировка с именем товара на момент чтения.
type AdjustmentView struct {
	domain.StockAdjustment
	ProductName string
}

// Summary: агрегаты для главной страницы.
type Summary struct {
	TotalRevenue      decimal.Decimal
	TodayOrders       int
	LowStockCount     int
	TotalProducts     int
	TotalOrders       int
	TopProducts       []domain.Product
	RecentOrders      []domain.Order
	RecentAdjustments []AdjustmentView
}

// ProductFilter: параметры поиска по каталогу.
type ProductFilter struct {
	Query string
	// Level пустой означает «все уровни».
	Level stock.Level
}

// Service читает репозитории и строит представления.
type Service struct {
	products    domain.ProductRepository
	orders      domain.OrderRepository
	adjustments domain.StockAdjustmentRepository
	metrics     *metrics.InventoryMetrics
	logger      *log.Entry
	now         func() time.Time
}

// NewService конструирует сервис дашборда.
func NewService(
	products domain.ProductRepository,
	orders domain.OrderRepository,
	adjustments domain.StockAdjustmentRepository,
	m *metrics.InventoryMetrics,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "dashboard")
	}
	return &Service{
		products:    products,
		orders:      orders,
		adjustments: adjustments,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary считает выручку, заказы за сегодня, товары с низким остатком
// и последние записи.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	orders, err := s.orders.GetAll(ctx)
	if err != nil {
		return Summary{}, err
	}
	adjustments, err := s.adjustments.GetAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		TotalRevenue:  decimal.Zero,
		TotalProducts: len(products),
		TotalOrders:   len(orders),
	}

	now := s.now()
	year, month, day := now.Date()
	for _, order := range orders {
		summary.TotalRevenue = summary.TotalRevenue.Add(order.TotalAmount)
		y, m, d := order.CreatedAt.In(now.Location()).Date()
		if y == year && m == month && d == day {
			summary.TodayOrders++
		}
	}
	for _, product := range products {
		if stock.IsLow(product.Stock, product.LowStockThreshold) {
			summary.LowStockCount++
		}
	}
	s.metrics.SetLowStockProducts(summary.LowStockCount)

	byStock := append([]domain.Product(nil), products...)
	sort.SliceStable(byStock, func(i, j int) bool { return byStock[i].Stock > byStock[j].Stock })
	summary.TopProducts = head(byStock, topProductsLimit)

	recent := append([]domain.Order(nil), orders...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	summary.RecentOrders = head(recent, recentOrdersLimit)

	names := make(map[int64]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}
	summary.RecentAdjustments = head(enrich(newestFirst(adjustments), names), recentAdjustmentsLimit)

	return summary, nil
}

// SearchProducts ищет по подстроке в имени или SKU без учёта регистра
// и фильтрует по уровню запаса.
func (s *Service) SearchProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	result := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if query != "" &&
			!strings.Contains(strings.ToLower(product.Name), query) &&
			!strings.Contains(strings.ToLower(product.SKU), query) {
			continue
		}
		if filter.Level != "" && stock.Classify(product.Stock, product.LowStockThreshold) != filter.Level {
			continue
		}
		result = append(result, product)
	}
	return result, nil
}

// SearchOrders ищет по номеру заказа или имени покупателя.
func (s *Service) SearchOrders(ctx context.Context, query string) ([]domain.Order, error) {
	orders, err := s.orders.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return orders, nil
	}
	result := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if strings.Contains(strings.ToLower(order.OrderNumber), query) ||
			strings.Contains(strings.ToLower(order.CustomerName), query) {
			result = append(result, order)
		}
	}
	return result, nil
}

// Adjustments возвращает весь журнал от новых к старым с именами товаров.
func (s *Service) Adjustments(ctx context.Context) ([]AdjustmentView, error) {
	products, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.adjustments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}
	return enrich(newestFirst(adjustments), names), nil
}

// ProductHistory возвращает корректировки одного товара, новые первыми.
// Товар может быть уже удалён: история по ID всё равно отдаётся.
func (s *Service) ProductHistory(ctx context.Context, productID int64) ([]domain.StockAdjustment, error) {
	adjustments, err := s.adjustments.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.StockAdjustment, 0)
	for _, adj := range adjustments {
		if adj.ProductID == productID {
			result = append(result, adj)
		}
	}
	return newestFirst(result), nil
}

func newestFirst(adjustments []domain.StockAdjustment) []domain.StockAdjustment {
	sorted := append([]domain.StockAdjustment(nil), adjustments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

func enrich(adjustments []domain.StockAdjustment, names map[int64]string) []AdjustmentView {
	views := make([]AdjustmentView, 0, len(adjustments))
	for _, adj := range adjustments {
		name, ok := names[adj.ProductID]
		if !ok {
			name = UnknownProductName
		}
		views = append(views, AdjustmentView{StockAdjustment: adj, ProductName: name})
	}
	return views
}

func head[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
