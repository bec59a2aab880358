package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/service/catalog"
	"github.com/vladislavdragonenkov/storeops/internal/service/composer"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
	"github.com/vladislavdragonenkov/storeops/internal/service/orders"
	"github.com/vladislavdragonenkov/storeops/internal/service/workflow"
)

func intPtr(v int) *int { return &v }

var demoProducts = []catalog.ProductInput{
	{Name: "Wireless Mouse", SKU: "WM-001", Price: decimal.RequireFromString("24.99"), Stock: 45},
	{Name: "Mechanical Keyboard", SKU: "MK-002", Price: decimal.RequireFromString("89.50"), Stock: 12, LowStockThreshold: intPtr(15)},
	{Name: "USB-C Hub", SKU: "UH-003", Price: decimal.RequireFromString("39.00"), Stock: 8},
	{Name: "27\" Monitor", SKU: "MN-004", Price: decimal.RequireFromString("249.99"), Stock: 22, LowStockThreshold: intPtr(5)},
	{Name: "Laptop Stand", SKU: "LS-005", Price: decimal.RequireFromString("34.95"), Stock: 30},
}

// seeder наполняет пустое хранилище демонстрационными данными через те же
// сервисы, что и API, поэтому журнал корректировок и outbox согласованы.
type seeder struct {
	products  domain.ProductRepository
	catalog   *catalog.Service
	inventory *inventory.Coordinator
	orders    *orders.Service
	workflow  *workflow.Service
	logger    *log.Entry
}

// Seed ничего не делает, если в каталоге уже есть товары.
func (s seeder) Seed(ctx context.Context) error {
	existing, err := s.products.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		s.logger.WithField("products", len(existing)).Debug("catalog is not empty, demo seed skipped")
		return nil
	}

	ids := make(map[string]int64, len(demoProducts))
	for _, input := range demoProducts {
		product, err := s.catalog.Create(ctx, input)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", input.SKU, err)
		}
		ids[product.SKU] = product.ID
	}

	adjustments := []inventory.AdjustmentRequest{
		{ProductID: ids["MK-002"], Quantity: 10, Reason: domain.ReasonRestock},
		{ProductID: ids["UH-003"], Quantity: -2, Reason: domain.ReasonDamage},
	}
	for _, req := range adjustments {
		if _, err := s.inventory.Apply(ctx, req); err != nil {
			return fmt.Errorf("seed adjustment for product %d: %w", req.ProductID, err)
		}
	}

	first, err := s.orders.Place(ctx, composer.Input{
		CustomerName:    "Ada Lovelace",
		CustomerAddress: "12 St James's Square, London",
		Items: []composer.ItemRequest{
			{ProductID: ids["WM-001"], Quantity: 2},
			{ProductID: ids["UH-003"], Quantity: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("seed order: %w", err)
	}
	second, err := s.orders.Place(ctx, composer.Input{
		CustomerName:    "Grace Hopper",
		CustomerAddress: "1 Navy Yard, Arlington",
		Items:           []composer.ItemRequest{{ProductID: ids["MN-004"], Quantity: 1}},
	})
	if err != nil {
		return fmt.Errorf("seed order: %w", err)
	}
	if _, err := s.workflow.Advance(ctx, second.ID, domain.OrderStatusProcessing); err != nil {
		return fmt.Errorf("seed order status: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"products": len(demoProducts),
		"orders":   []string{first.OrderNumber, second.OrderNumber},
	}).Info("demo data seeded")
	return nil
}
