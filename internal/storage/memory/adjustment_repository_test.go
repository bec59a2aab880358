package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/storage/memory"
)

func TestStockAdjustmentRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockAdjustmentRepository(memory.NewStore())

	first, err := repo.Create(ctx, domain.StockAdjustment{ProductID: 1, Quantity: 10, Reason: domain.ReasonRestock})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if first.ID != 1 || first.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned, got %+v", first)
	}

	if _, err := repo.Create(ctx, domain.StockAdjustment{ProductID: 1, Quantity: -2, Reason: domain.ReasonDamage}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != 1 || all[1].Quantity != -2 {
		t.Fatalf("unexpected journal: %+v", all)
	}
}

func TestStockAdjustmentRepository_DanglingProductIsStored(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockAdjustmentRepository(memory.NewStore())

	adj, err := repo.Create(ctx, domain.StockAdjustment{ProductID: 404, Quantity: 1, Reason: domain.ReasonOther})
	if err != nil {
		t.Fatalf("repository must not validate references, got %v", err)
	}

	stored, err := repo.GetByID(ctx, adj.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ProductID != 404 {
		t.Fatalf("expected product id 404, got %d", stored.ProductID)
	}

	if ok, err := repo.Delete(ctx, 77); ok || !errors.Is(err, domain.ErrAdjustmentNotFound) {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
}

func TestStockAdjustmentRepository_PendingStockWrite(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStockAdjustmentRepository(memory.NewStore())

	adj, err := repo.Create(ctx, domain.StockAdjustment{ProductID: 1, Quantity: -45, Reason: domain.ReasonDamage})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	pending, err := repo.StockWritePending(ctx, adj.ID)
	if err != nil || !pending {
		t.Fatalf("new adjustment must wait for stock write, got pending=%v err=%v", pending, err)
	}

	cleared, err := repo.MarkStockApplied(ctx, adj.ID)
	if err != nil || !cleared {
		t.Fatalf("expected marker to be cleared, got %v err=%v", cleared, err)
	}
	cleared, err = repo.MarkStockApplied(ctx, adj.ID)
	if err != nil || cleared {
		t.Fatalf("second clear must report false, got %v err=%v", cleared, err)
	}
	if pending, _ := repo.StockWritePending(ctx, adj.ID); pending {
		t.Fatal("adjustment must not be pending after MarkStockApplied")
	}

	if _, err := repo.StockWritePending(ctx, 99); !errors.Is(err, domain.ErrAdjustmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.MarkStockApplied(ctx, 99); !errors.Is(err, domain.ErrAdjustmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
