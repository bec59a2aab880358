package composer

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

func widgetCatalog() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Widget", SKU: "W-1", Price: decimal.RequireFromString("9.99"), Stock: 50, LowStockThreshold: 10},
		{ID: 2, Name: "Gadget", SKU: "G-1", Price: decimal.RequireFromString("0.125"), Stock: 5, LowStockThreshold: 10},
	}
}

func TestCompose_SingleLine(t *testing.T) {
	order, err := Compose(Input{
		CustomerName:    "Jane",
		CustomerAddress: "1 Main St",
		Items:           []ItemRequest{{ProductID: 1, Quantity: 3}},
	}, widgetCatalog()[:1])
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	want := decimal.RequireFromString("29.97")
	if !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(order.Items))
	}
	line := order.Items[0]
	if !line.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, line.Subtotal)
	}
	if line.ProductName != "Widget" || !line.UnitPrice.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected snapshot: %+v", line)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("composed order violates invariants: %v", errs)
	}
}

func TestCompose_TrimsCustomerFields(t *testing.T) {
	order, err := Compose(Input{
		CustomerName:    "  Jane  ",
		CustomerAddress: "\t1 Main St\n",
		Items:           []ItemRequest{{ProductID: 1, Quantity: 1}},
	}, widgetCatalog())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if order.CustomerName != "Jane" || order.CustomerAddress != "1 Main St" {
		t.Fatalf("expected trimmed fields, got %q / %q", order.CustomerName, order.CustomerAddress)
	}
}

func TestCompose_RoundsTotalHalfUp(t *testing.T) {
	// 0.125 * 1 = 0.125 -> 0.13
	order, err := Compose(Input{
		CustomerName:    "Jane",
		CustomerAddress: "1 Main St",
		Items:           []ItemRequest{{ProductID: 2, Quantity: 1}},
	}, widgetCatalog())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("0.13")) {
		t.Fatalf("expected 0.13, got %s", order.TotalAmount)
	}
}

func TestCompose_MultipleLinesKeepOrder(t *testing.T) {
	order, err := Compose(Input{
		CustomerName:    "Jane",
		CustomerAddress: "1 Main St",
		Items: []ItemRequest{
			{ProductID: 2, Quantity: 4},
			{ProductID: 1, Quantity: 2},
		},
	}, widgetCatalog())
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if order.Items[0].ProductID != 2 || order.Items[1].ProductID != 1 {
		t.Fatalf("line order not preserved: %+v", order.Items)
	}
	// 0.5 + 19.98
	if !order.TotalAmount.Equal(decimal.RequireFromString("20.48")) {
		t.Fatalf("expected 20.48, got %s", order.TotalAmount)
	}
}

func TestCompose_UnknownProduct(t *testing.T) {
	_, err := Compose(Input{
		CustomerName:    "Jane",
		CustomerAddress: "1 Main St",
		Items: []ItemRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 1},
		},
	}, widgetCatalog())

	if !errors.Is(err, domain.ErrReference) {
		t.Fatalf("expected ErrReference, got %v", err)
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound in chain, got %v", err)
	}
	var ref *domain.ReferenceError
	if !errors.As(err, &ref) || ref.ID != 99 {
		t.Fatalf("expected reference to product 99, got %v", err)
	}
}

func TestCompose_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		input Input
	}{
		{name: "empty name", input: Input{CustomerName: "  ", CustomerAddress: "a", Items: []ItemRequest{{ProductID: 1, Quantity: 1}}}},
		{name: "empty address", input: Input{CustomerName: "a", CustomerAddress: "", Items: []ItemRequest{{ProductID: 1, Quantity: 1}}}},
		{name: "no items", input: Input{CustomerName: "a", CustomerAddress: "b"}},
		{name: "zero quantity", input: Input{CustomerName: "a", CustomerAddress: "b", Items: []ItemRequest{{ProductID: 1, Quantity: 0}}}},
		{name: "negative quantity on unknown product", input: Input{CustomerName: "a", CustomerAddress: "b", Items: []ItemRequest{{ProductID: 99, Quantity: -1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compose(tc.input, widgetCatalog())
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestOrderNumber(t *testing.T) {
	if got := OrderNumber(7); got != "ORD-0007" {
		t.Fatalf("expected ORD-0007, got %s", got)
	}
	if got := OrderNumber(12345); got != "ORD-12345" {
		t.Fatalf("expected ORD-12345, got %s", got)
	}
}
