package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

type orderRepository struct {
	store  *Store
	logger *log.Entry
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store, logger: store.logger.WithField("repository", "orders")}
}

// GetAll возвращает заказы от новых к старым вместе с позициями.
func (r *orderRepository) GetAll(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return degrade[domain.Order](r.logger, "list orders", err)
	}
	defer rows.Close()

	records := make([]orderRecord, 0)
	for rows.Next() {
		var rec orderRecord
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return degrade[domain.Order](r.logger, "iterate order rows", err)
	}
	rows.Close()

	items, err := r.loadAllItems(ctx)
	if err != nil {
		return degrade[domain.Order](r.logger, "list order items", err)
	}

	orders := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, rec.toDomain(items[rec.ID]))
	}
	return orders, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rec orderRecord
	err := r.store.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).
		Scan(rec.scanTargets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, wrap("select order", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return rec.toDomain(items), nil
}

// Create назначает ID, номер заказа и время создания; заказ и позиции
// пишутся в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, wrap("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id, err := nextID(ctx, tx, "orders")
	if err != nil {
		return domain.Order{}, wrap("create order", err)
	}

	order.ID = id
	order.OrderNumber = domain.FormatOrderNumber(id)
	order.CreatedAt = r.store.now()
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (`+placeholders(7)+`)`,
		orderRecordFrom(order).values()...,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, fmt.Errorf("insert order %s: duplicate order number: %w", order.OrderNumber, err)
		}
		return domain.Order{}, wrap("insert order", err)
	}

	for _, item := range orderItemRecordsFrom(order.ID, order.Items) {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (`+orderItemColumns+`) VALUES (`+placeholders(7)+`)`,
			item.values()...,
		); err != nil {
			return domain.Order{}, wrap("insert order item", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Order{}, wrap("commit create order", err)
	}
	return order, nil
}

func (r *orderRepository) Update(ctx context.Context, id int64, patch domain.OrderPatch) (domain.Order, error) {
	cols := orderPatchColumns(patch)
	if len(cols) == 0 {
		return r.GetByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args := buildUpdate("orders", cols, id, orderColumns)
	var rec orderRecord
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(rec.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, wrap("update order", err)
	}

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return rec.toDomain(items), nil
}

// Delete удаляет заказ; позиции удаляются каскадно.
func (r *orderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.store.db, "orders", id, domain.ErrOrderNotFound)
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int64) ([]orderItemRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, orderID)
	if err != nil {
		return nil, wrap("load order items", err)
	}
	defer rows.Close()

	items := make([]orderItemRecord, 0)
	for rows.Next() {
		var item orderItemRecord
		if err := rows.Scan(item.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("iterate order items", err)
	}
	return items, nil
}

func (r *orderRepository) loadAllItems(ctx context.Context) (map[int64][]orderItemRecord, error) {
	rows, err := r.store.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+`
		FROM order_items
		ORDER BY order_id, line_no
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[int64][]orderItemRecord)
	for rows.Next() {
		var item orderItemRecord
		if err := rows.Scan(item.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

var _ domain.OrderRepository = (*orderRepository)(nil)
