package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// productRepositoryInMemory: in-memory реализация ProductRepository поверх Store.
type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает репозиторий товаров для локальной разработки и тестов.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

// GetAll возвращает товары, упорядоченные по ID.
func (r *productRepositoryInMemory) GetAll(_ context.Context) ([]domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.store.products))
	for _, product := range r.store.products {
		result = append(result, product)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *productRepositoryInMemory) GetByID(_ context.Context, id int64) (domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Create назначает ID и метки времени.
func (r *productRepositoryInMemory) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := r.store.now()
	product.ID = nextID(r.store.products)
	product.CreatedAt = now
	product.UpdatedAt = now
	r.store.products[product.ID] = product
	return product, nil
}

// Update применяет патч и всегда обновляет UpdatedAt.
func (r *productRepositoryInMemory) Update(_ context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	product, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	patch.Apply(&product)
	product.UpdatedAt = r.store.now()
	r.store.products[id] = product
	return product, nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return false, domain.ErrProductNotFound
	}
	delete(r.store.products, id)
	return true, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
