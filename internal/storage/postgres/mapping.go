package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// Колонки таблиц в порядке scanTargets соответствующих записей.
const (
	productColumns    = "id, name, sku, price, stock, low_stock_threshold, image_url, created_at, updated_at"
	orderColumns      = "id, order_number, customer_name, customer_address, total_amount, status, created_at"
	orderItemColumns  = "order_id, line_no, product_id, product_name, quantity, unit_price, subtotal"
	adjustmentColumns = "id, product_id, quantity, reason, created_at"
)

// productRecord: строка таблицы products.
type productRecord struct {
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

func productRecordFrom(p domain.Product) productRecord {
	return productRecord{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		ImageURL:          p.ImageURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (r *productRecord) scanTargets() []any {
	return []any{&r.ID, &r.Name, &r.SKU, &r.Price, &r.Stock, &r.LowStockThreshold, &r.ImageURL, &r.CreatedAt, &r.UpdatedAt}
}

func (r productRecord) values() []any {
	return []any{r.ID, r.Name, r.SKU, r.Price, r.Stock, r.LowStockThreshold, r.ImageURL, r.CreatedAt, r.UpdatedAt}
}

func (r productRecord) toDomain() domain.Product {
	return domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		SKU:               r.SKU,
		Price:             r.Price,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
		ImageURL:          r.ImageURL,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
}

// orderRecord: строка таблицы orders без позиций.
type orderRecord struct {
	ID              int64
	OrderNumber     string
	CustomerName    string
	CustomerAddress string
	TotalAmount     decimal.Decimal
	Status          string
	CreatedAt       time.Time
}

func orderRecordFrom(o domain.Order) orderRecord {
	return orderRecord{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerAddress: o.CustomerAddress,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
}

func (r *orderRecord) scanTargets() []any {
	return []any{&r.ID, &r.OrderNumber, &r.CustomerName, &r.CustomerAddress, &r.TotalAmount, &r.Status, &r.CreatedAt}
}

func (r orderRecord) values() []any {
	return []any{r.ID, r.OrderNumber, r.CustomerName, r.CustomerAddress, r.TotalAmount, r.Status, r.CreatedAt}
}

func (r orderRecord) toDomain(items []orderItemRecord) domain.Order {
	lines := make([]domain.OrderLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.toDomain())
	}
	return domain.Order{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		CustomerName:    r.CustomerName,
		CustomerAddress: r.CustomerAddress,
		Items:           lines,
		TotalAmount:     r.TotalAmount,
		Status:          domain.OrderStatus(r.Status),
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

// orderItemRecord: строка order_items; LineNo сохраняет порядок корзины.
type orderItemRecord struct {
	OrderID     int64
	LineNo      int
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

func orderItemRecordsFrom(orderID int64, items []domain.OrderLineItem) []orderItemRecord {
	records := make([]orderItemRecord, 0, len(items))
	for idx, item := range items {
		records = append(records, orderItemRecord{
			OrderID:     orderID,
			LineNo:      idx + 1,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return records
}

func (r *orderItemRecord) scanTargets() []any {
	return []any{&r.OrderID, &r.LineNo, &r.ProductID, &r.ProductName, &r.Quantity, &r.UnitPrice, &r.Subtotal}
}

func (r orderItemRecord) values() []any {
	return []any{r.OrderID, r.LineNo, r.ProductID, r.ProductName, r.Quantity, r.UnitPrice, r.Subtotal}
}

func (r orderItemRecord) toDomain() domain.OrderLineItem {
	return domain.OrderLineItem{
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Subtotal:    r.Subtotal,
	}
}

// adjustmentRecord: строка stock_adjustments; Timestamp хранится в created_at.
type adjustmentRecord struct {
	ID        int64
	ProductID int64
	Quantity  int
	Reason    string
	CreatedAt time.Time
}

func adjustmentRecordFrom(a domain.StockAdjustment) adjustmentRecord {
	return adjustmentRecord{
		ID:        a.ID,
		ProductID: a.ProductID,
		Quantity:  a.Quantity,
		Reason:    string(a.Reason),
		CreatedAt: a.Timestamp,
	}
}

func (r *adjustmentRecord) scanTargets() []any {
	return []any{&r.ID, &r.ProductID, &r.Quantity, &r.Reason, &r.CreatedAt}
}

func (r adjustmentRecord) values() []any {
	return []any{r.ID, r.ProductID, r.Quantity, r.Reason, r.CreatedAt}
}

func (r adjustmentRecord) toDomain() domain.StockAdjustment {
	return domain.StockAdjustment{
		ID:        r.ID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Reason:    domain.AdjustmentReason(r.Reason),
		Timestamp: r.CreatedAt.UTC(),
	}
}

// columnValue: пара колонка/значение для UPDATE.
type columnValue struct {
	Column string
	Value  any
}

// productPatchColumns переводит патч товара в колонки. Порядок фиксирован.
func productPatchColumns(patch domain.ProductPatch) []columnValue {
	cols := make([]columnValue, 0, 6)
	if patch.Name != nil {
		cols = append(cols, columnValue{"name", *patch.Name})
	}
	if patch.SKU != nil {
		cols = append(cols, columnValue{"sku", *patch.SKU})
	}
	if patch.Price != nil {
		cols = append(cols, columnValue{"price", *patch.Price})
	}
	if patch.Stock != nil {
		cols = append(cols, columnValue{"stock", *patch.Stock})
	}
	if patch.LowStockThreshold != nil {
		cols = append(cols, columnValue{"low_stock_threshold", *patch.LowStockThreshold})
	}
	if patch.ImageURL != nil {
		cols = append(cols, columnValue{"image_url", *patch.ImageURL})
	}
	return cols
}

// orderPatchColumns переводит патч заказа в колонки.
func orderPatchColumns(patch domain.OrderPatch) []columnValue {
	cols := make([]columnValue, 0, 1)
	if patch.Status != nil {
		cols = append(cols, columnValue{"status", string(*patch.Status)})
	}
	return cols
}

// buildUpdate собирает `UPDATE table SET a = $1, ... WHERE id = $N RETURNING columns`.
func buildUpdate(table string, cols []columnValue, id int64, returning string) (string, []any) {
	assignments := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for idx, col := range cols {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col.Column, idx+1))
		args = append(args, col.Value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(assignments, ", "), len(args), returning)
	return query, args
}

// placeholders возвращает "$1,$2,...,$n".
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}
