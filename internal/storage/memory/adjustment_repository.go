package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// adjustmentRepositoryInMemory хранит журнал корректировок в памяти.
type adjustmentRepositoryInMemory struct {
	store *Store
}

// NewStockAdjustmentRepository создаёт in-memory журнал корректировок.
func NewStockAdjustmentRepository(store *Store) domain.StockAdjustmentRepository {
	return &adjustmentRepositoryInMemory{store: store}
}

// GetAll возвращает корректировки в хронологическом порядке.
func (r *adjustmentRepositoryInMemory) GetAll(_ context.Context) ([]domain.StockAdjustment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.StockAdjustment, 0, len(r.store.adjustments))
	for _, adj := range r.store.adjustments {
		result = append(result, adj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *adjustmentRepositoryInMemory) GetByID(_ context.Context, id int64) (domain.StockAdjustment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	adj, ok := r.store.adjustments[id]
	if !ok {
		return domain.StockAdjustment{}, domain.ErrAdjustmentNotFound
	}
	return adj, nil
}

// Create добавляет запись в журнал и назначает ID и Timestamp.
func (r *adjustmentRepositoryInMemory) Create(_ context.Context, adj domain.StockAdjustment) (domain.StockAdjustment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	adj.ID = nextID(r.store.adjustments)
	adj.Timestamp = r.store.now()
	r.store.adjustments[adj.ID] = adj
	r.store.pendingStock[adj.ID] = struct{}{}
	return adj, nil
}

func (r *adjustmentRepositoryInMemory) Delete(_ context.Context, id int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.adjustments[id]; !ok {
		return false, domain.ErrAdjustmentNotFound
	}
	delete(r.store.adjustments, id)
	delete(r.store.pendingStock, id)
	return true, nil
}

func (r *adjustmentRepositoryInMemory) StockWritePending(_ context.Context, id int64) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if _, ok := r.store.adjustments[id]; !ok {
		return false, domain.ErrAdjustmentNotFound
	}
	_, pending := r.store.pendingStock[id]
	return pending, nil
}

func (r *adjustmentRepositoryInMemory) MarkStockApplied(_ context.Context, id int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.adjustments[id]; !ok {
		return false, domain.ErrAdjustmentNotFound
	}
	if _, pending := r.store.pendingStock[id]; !pending {
		return false, nil
	}
	delete(r.store.pendingStock, id)
	return true, nil
}

var _ domain.StockAdjustmentRepository = (*adjustmentRepositoryInMemory)(nil)
