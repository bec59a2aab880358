package composer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// currencyPlaces: точность денежных сумм.
const currencyPlaces = 2

// ItemRequest: строка корзины: товар и количество.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// Input: данные для сборки заказа.
type Input struct {
	CustomerName    string
	CustomerAddress string
	Items           []ItemRequest
}

// Compose собирает заказ из корзины и снимка каталога. Имя и цена товара
// фиксируются в позициях; ID и номер заказа назначает репозиторий.
// Позиция с неизвестным товаром не пропускается, а приводит к ReferenceError.
func Compose(input Input, catalog []domain.Product) (domain.Order, error) {
	name := strings.TrimSpace(input.CustomerName)
	if name == "" {
		return domain.Order{}, domain.NewValidationError("customer_name", "is required")
	}
	address := strings.TrimSpace(input.CustomerAddress)
	if address == "" {
		return domain.Order{}, domain.NewValidationError("customer_address", "is required")
	}
	if len(input.Items) == 0 {
		return domain.Order{}, domain.NewValidationError("items", "must contain at least one item")
	}
	for idx, item := range input.Items {
		if item.Quantity <= 0 {
			return domain.Order{}, domain.NewValidationError(fmt.Sprintf("items[%d].quantity", idx), "must be greater than zero")
		}
	}

	byID := make(map[int64]domain.Product, len(catalog))
	for _, product := range catalog {
		byID[product.ID] = product
	}

	lines := make([]domain.OrderLineItem, 0, len(input.Items))
	total := decimal.Zero
	for _, item := range input.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			return domain.Order{}, domain.ProductReference(item.ProductID)
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, domain.OrderLineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	return domain.Order{
		CustomerName:    name,
		CustomerAddress: address,
		Items:           lines,
		TotalAmount:     RoundCurrency(total),
		Status:          domain.OrderStatusPending,
	}, nil
}

// RoundCurrency округляет сумму до копеек, половину вверх.
// Суммы заказа неотрицательны, поэтому округление от нуля совпадает с half-up.
func RoundCurrency(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(currencyPlaces)
}

// OrderNumber строит отображаемый идентификатор заказа по его ID.
func OrderNumber(id int64) string {
	return domain.FormatOrderNumber(id)
}
