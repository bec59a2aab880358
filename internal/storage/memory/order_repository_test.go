package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/storage/memory"
)

func newOrder() domain.Order {
	return domain.Order{
		CustomerName:    "Jane Doe",
		CustomerAddress: "1 Main St",
		Items: []domain.OrderLineItem{
			{
				ProductID:   1,
				ProductName: "Widget",
				Quantity:    3,
				UnitPrice:   decimal.RequireFromString("9.99"),
				Subtotal:    decimal.RequireFromString("29.97"),
			},
		},
		TotalAmount: decimal.RequireFromString("29.97"),
	}
}

func TestOrderRepository_CreateAssignsNumberAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(memory.NewStore())

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}
	if created.OrderNumber != "ORD-0001" {
		t.Fatalf("expected ORD-0001, got %s", created.OrderNumber)
	}
	if created.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	stored, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.TotalAmount.Equal(created.TotalAmount) {
		t.Fatalf("expected total %s, got %s", created.TotalAmount, stored.TotalAmount)
	}
}

func TestOrderRepository_ItemsAreCopied(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(memory.NewStore())

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	fetched, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	fetched.Items[0].Quantity = 100

	again, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if again.Items[0].Quantity != 3 {
		t.Fatalf("stored items mutated through returned copy: %d", again.Items[0].Quantity)
	}
}

func TestOrderRepository_GetAllNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})
	repo := memory.NewOrderRepository(store)

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, newOrder()); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	orders, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	if orders[0].ID != 3 || orders[2].ID != 1 {
		t.Fatalf("expected newest first, got ids %d..%d", orders[0].ID, orders[2].ID)
	}
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(memory.NewStore())

	created, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	status := domain.OrderStatusShipped
	updated, err := repo.Update(ctx, created.ID, domain.OrderPatch{Status: &status})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}
	if updated.OrderNumber != created.OrderNumber {
		t.Fatalf("order number must not change: %s", updated.OrderNumber)
	}

	if _, err := repo.Update(ctx, 999, domain.OrderPatch{Status: &status}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_DeleteAndReuseMaxPlusOne(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOrderRepository(memory.NewStore())

	for i := 0; i < 2; i++ {
		if _, err := repo.Create(ctx, newOrder()); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	ok, err := repo.Delete(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("delete failed: ok=%v err=%v", ok, err)
	}
	if _, err := repo.GetByID(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	next, err := repo.Create(ctx, newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if next.ID != 2 {
		t.Fatalf("expected id max+1 = 2, got %d", next.ID)
	}

	if ok, err := repo.Delete(ctx, 42); ok || !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected not found on missing delete, got ok=%v err=%v", ok, err)
	}
}
