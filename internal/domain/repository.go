package domain

import "context"

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// GetAll возвращает все товары; при недоступности хранилища, пустой список.
	GetAll(ctx context.Context) ([]Product, error)
	// GetByID возвращает товар или ErrProductNotFound.
	GetByID(ctx context.Context, id int64) (Product, error)
	// Create назначает ID (max+1), CreatedAt/UpdatedAt и возвращает сохранённую запись.
	Create(ctx context.Context, product Product) (Product, error)
	// Update применяет патч, обновляет UpdatedAt и возвращает результат.
	Update(ctx context.Context, id int64, patch ProductPatch) (Product, error)
	// Delete удаляет товар без каскада на заказы и корректировки.
	Delete(ctx context.Context, id int64) (bool, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// GetAll возвращает заказы от новых к старым; при недоступности хранилища, пустой список.
	GetAll(ctx context.Context) ([]Order, error)
	// GetByID возвращает заказ или ErrOrderNotFound.
	GetByID(ctx context.Context, id int64) (Order, error)
	// Create назначает ID, OrderNumber и CreatedAt.
	Create(ctx context.Context, order Order) (Order, error)
	// Update применяет патч статуса и возвращает результат.
	Update(ctx context.Context, id int64, patch OrderPatch) (Order, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// StockAdjustmentRepository: append-only журнал корректировок, Update намеренно отсутствует.
type StockAdjustmentRepository interface {
	GetAll(ctx context.Context) ([]StockAdjustment, error)
	GetByID(ctx context.Context, id int64) (StockAdjustment, error)
	// Create назначает ID и Timestamp. Вместе с записью ставится отметка
	// ожидающего применения к остатку.
	Create(ctx context.Context, adjustment StockAdjustment) (StockAdjustment, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// StockWritePending сообщает, что корректировка ещё не применена к остатку товара.
	StockWritePending(ctx context.Context, id int64) (bool, error)
	// MarkStockApplied снимает отметку; false, если её уже не было.
	MarkStockApplied(ctx context.Context, id int64) (bool, error)
}
