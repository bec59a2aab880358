package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold применяется, если порог не задан при создании товара.
const DefaultLowStockThreshold = 10

// Product: позиция каталога с текущим остатком.
type Product struct {
	ID                int64
	Name              string
	SKU               string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold int
	ImageURL          string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProductPatch: частичное обновление товара; nil-поля не меняются.
type ProductPatch struct {
	Name              *string
	SKU               *string
	Price             *decimal.Decimal
	Stock             *int
	LowStockThreshold *int
	ImageURL          *string
}

// Apply переносит заданные поля патча в товар.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.SKU != nil {
		product.SKU = *p.SKU
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Stock != nil {
		product.Stock = *p.Stock
	}
	if p.LowStockThreshold != nil {
		product.LowStockThreshold = *p.LowStockThreshold
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.SKU == nil && p.Price == nil &&
		p.Stock == nil && p.LowStockThreshold == nil && p.ImageURL == nil
}

// Validate проверяет инварианты товара каталога.
func (p *Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, NewValidationError("name", "is required"))
	}
	if strings.TrimSpace(p.SKU) == "" {
		errs = append(errs, NewValidationError("sku", "is required"))
	}
	if p.Price.IsNegative() {
		errs = append(errs, NewValidationError("price", "must be non-negative"))
	}
	if p.LowStockThreshold < 0 {
		errs = append(errs, NewValidationError("low_stock_threshold", "must be non-negative"))
	}
	return errs
}
