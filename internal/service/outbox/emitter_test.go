package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

type recordingOutboxRepo struct {
	stubOutboxRepo
	enqueued []domain.OutboxMessage
	err      error
}

func (r *recordingOutboxRepo) Enqueue(_ context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if r.err != nil {
		return domain.OutboxMessage{}, r.err
	}
	r.enqueued = append(r.enqueued, msg)
	return msg, nil
}

func TestEmitter_EmitEnqueuesPayload(t *testing.T) {
	repo := &recordingOutboxRepo{}
	emitter := NewEmitter(repo, nil)

	emitter.Emit(context.Background(), domain.AggregateProduct, 7, domain.EventStockAdjusted, map[string]any{
		"delta": -45,
	})

	if len(repo.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued message, got %d", len(repo.enqueued))
	}
	msg := repo.enqueued[0]
	if msg.AggregateType != "product" || msg.AggregateID != "7" || msg.EventType != "StockAdjusted" {
		t.Fatalf("unexpected message: %+v", msg)
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if payload["product_id"] != float64(7) {
		t.Fatalf("expected product_id=7, got %v", payload["product_id"])
	}
	if payload["delta"] != float64(-45) {
		t.Fatalf("expected delta=-45, got %v", payload["delta"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatal("expected ts in payload")
	}
}

func TestEmitter_EnqueueErrorIsSwallowed(t *testing.T) {
	repo := &recordingOutboxRepo{err: errors.New("outbox down")}
	emitter := NewEmitter(repo, nil)

	// Не должно паниковать и не должно ничего сохранить.
	emitter.Emit(context.Background(), domain.AggregateOrder, 1, domain.EventOrderCreated, nil)

	if len(repo.enqueued) != 0 {
		t.Fatalf("expected nothing enqueued, got %d", len(repo.enqueued))
	}
}

func TestEmitter_NilSafe(t *testing.T) {
	var emitter *Emitter
	emitter.Emit(context.Background(), domain.AggregateOrder, 1, domain.EventOrderCreated, nil)

	NewEmitter(nil, nil).Emit(context.Background(), domain.AggregateOrder, 1, domain.EventOrderCreated, nil)
}
