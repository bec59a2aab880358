package postgres

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

func TestProductRecord_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	product := domain.Product{
		ID:                7,
		Name:              "Widget",
		SKU:               "W-7",
		Price:             decimal.RequireFromString("12.34"),
		Stock:             -3,
		LowStockThreshold: 4,
		ImageURL:          "https://img/w7.png",
		CreatedAt:         created,
		UpdatedAt:         created.Add(time.Hour),
	}

	got := productRecordFrom(product).toDomain()
	if !got.Price.Equal(product.Price) {
		t.Fatalf("price mismatch: %s vs %s", got.Price, product.Price)
	}
	got.Price = product.Price
	if !reflect.DeepEqual(got, product) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, product)
	}
}

func TestRecordColumnsMatchTargets(t *testing.T) {
	cases := []struct {
		name    string
		columns string
		targets int
		values  int
	}{
		{"products", productColumns, len((&productRecord{}).scanTargets()), len(productRecord{}.values())},
		{"orders", orderColumns, len((&orderRecord{}).scanTargets()), len(orderRecord{}.values())},
		{"order_items", orderItemColumns, len((&orderItemRecord{}).scanTargets()), len(orderItemRecord{}.values())},
		{"stock_adjustments", adjustmentColumns, len((&adjustmentRecord{}).scanTargets()), len(adjustmentRecord{}.values())},
	}

	for _, tc := range cases {
		columns := len(strings.Split(tc.columns, ","))
		if columns != tc.targets || columns != tc.values {
			t.Fatalf("%s: %d columns, %d scan targets, %d values", tc.name, columns, tc.targets, tc.values)
		}
	}
}

func TestProductRecord_ScanTargetsOrder(t *testing.T) {
	var rec productRecord
	targets := rec.scanTargets()

	*(targets[0].(*int64)) = 1
	*(targets[1].(*string)) = "name"
	*(targets[2].(*string)) = "sku"
	*(targets[3].(*decimal.Decimal)) = decimal.NewFromInt(5)
	*(targets[4].(*int)) = 9
	*(targets[5].(*int)) = 3
	*(targets[6].(*string)) = "img"

	if rec.ID != 1 || rec.Name != "name" || rec.SKU != "sku" || rec.Stock != 9 || rec.LowStockThreshold != 3 || rec.ImageURL != "img" {
		t.Fatalf("scan targets map to wrong fields: %+v", rec)
	}
	if !rec.Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("price target mismatch: %s", rec.Price)
	}
}

func TestOrderRecord_RoundTripKeepsLineOrder(t *testing.T) {
	order := domain.Order{
		ID:              3,
		OrderNumber:     "ORD-0003",
		CustomerName:    "Jane",
		CustomerAddress: "1 Main St",
		Items: []domain.OrderLineItem{
			{ProductID: 2, ProductName: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("1.50"), Subtotal: decimal.RequireFromString("1.50")},
			{ProductID: 1, ProductName: "A", Quantity: 2, UnitPrice: decimal.RequireFromString("2.00"), Subtotal: decimal.RequireFromString("4.00")},
		},
		TotalAmount: decimal.RequireFromString("5.50"),
		Status:      domain.OrderStatusShipped,
		CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	items := orderItemRecordsFrom(order.ID, order.Items)
	if items[0].LineNo != 1 || items[1].LineNo != 2 || items[1].OrderID != 3 {
		t.Fatalf("unexpected line numbering: %+v", items)
	}

	got := orderRecordFrom(order).toDomain(items)
	if got.OrderNumber != order.OrderNumber || got.Status != order.Status || got.CustomerAddress != order.CustomerAddress {
		t.Fatalf("order header mismatch: %+v", got)
	}
	if !got.TotalAmount.Equal(order.TotalAmount) || !got.CreatedAt.Equal(order.CreatedAt) {
		t.Fatalf("order totals/time mismatch: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].ProductName != "B" || got.Items[1].Quantity != 2 {
		t.Fatalf("line order lost: %+v", got.Items)
	}
	if !got.Items[1].Subtotal.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("subtotal mismatch: %s", got.Items[1].Subtotal)
	}
}

func TestAdjustmentRecord_RoundTrip(t *testing.T) {
	adj := domain.StockAdjustment{
		ID:        5,
		ProductID: 9,
		Quantity:  -4,
		Reason:    domain.ReasonTheft,
		Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	rec := adjustmentRecordFrom(adj)
	if rec.Reason != "theft" || !rec.CreatedAt.Equal(adj.Timestamp) {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if got := rec.toDomain(); !reflect.DeepEqual(got, adj) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestProductPatchColumns(t *testing.T) {
	name := "N"
	sku := "S"
	price := decimal.RequireFromString("1.25")
	stockLevel := 4
	threshold := 2
	image := "I"

	cases := []struct {
		name  string
		patch domain.ProductPatch
		want  []string
	}{
		{"empty", domain.ProductPatch{}, []string{}},
		{"name", domain.ProductPatch{Name: &name}, []string{"name"}},
		{"sku", domain.ProductPatch{SKU: &sku}, []string{"sku"}},
		{"price", domain.ProductPatch{Price: &price}, []string{"price"}},
		{"stock", domain.ProductPatch{Stock: &stockLevel}, []string{"stock"}},
		{"threshold", domain.ProductPatch{LowStockThreshold: &threshold}, []string{"low_stock_threshold"}},
		{"image", domain.ProductPatch{ImageURL: &image}, []string{"image_url"}},
		{"all", domain.ProductPatch{
			Name: &name, SKU: &sku, Price: &price, Stock: &stockLevel, LowStockThreshold: &threshold, ImageURL: &image,
		}, []string{"name", "sku", "price", "stock", "low_stock_threshold", "image_url"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cols := productPatchColumns(tc.patch)
			got := make([]string, 0, len(cols))
			for _, col := range cols {
				got = append(got, col.Column)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	cols := productPatchColumns(domain.ProductPatch{Stock: &stockLevel})
	if cols[0].Value != 4 {
		t.Fatalf("expected stock value 4, got %v", cols[0].Value)
	}
}

func TestOrderPatchColumns(t *testing.T) {
	if cols := orderPatchColumns(domain.OrderPatch{}); len(cols) != 0 {
		t.Fatalf("expected no columns, got %v", cols)
	}
	status := domain.OrderStatusDelivered
	cols := orderPatchColumns(domain.OrderPatch{Status: &status})
	if len(cols) != 1 || cols[0].Column != "status" || cols[0].Value != "delivered" {
		t.Fatalf("unexpected columns: %+v", cols)
	}
}

func TestBuildUpdate(t *testing.T) {
	query, args := buildUpdate("products", []columnValue{{"name", "N"}, {"stock", 3}}, 42, productColumns)

	want := "UPDATE products SET name = $1, stock = $2 WHERE id = $3 RETURNING " + productColumns
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 3 || args[2] != int64(42) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "$1,$2,$3" {
		t.Fatalf("unexpected placeholders: %s", got)
	}
}
