package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// Store: явный владелец всех in-memory коллекций. Создаётся при старте
// приложения и передаётся репозиториям; глобального состояния нет.
type Store struct {
	mu           sync.RWMutex
	products     map[int64]domain.Product
	orders       map[int64]domain.Order
	adjustments  map[int64]domain.StockAdjustment
	pendingStock map[int64]struct{} // корректировки, ещё не применённые к остатку
	outbox       map[string]*outboxRecord
	now          func() time.Time
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		products:     make(map[int64]domain.Product),
		orders:       make(map[int64]domain.Order),
		adjustments:  make(map[int64]domain.StockAdjustment),
		pendingStock: make(map[int64]struct{}),
		outbox:       make(map[string]*outboxRecord),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock подменяет источник времени (для тестов).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Close освобождает коллекции при остановке приложения.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make(map[int64]domain.Product)
	s.orders = make(map[int64]domain.Order)
	s.adjustments = make(map[int64]domain.StockAdjustment)
	s.pendingStock = make(map[int64]struct{})
	s.outbox = make(map[string]*outboxRecord)
	return nil
}

// nextID возвращает max(существующих ID) + 1.
func nextID[V any](items map[int64]V) int64 {
	var maxID int64
	for id := range items {
		if id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}
