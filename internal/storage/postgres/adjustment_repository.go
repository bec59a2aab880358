package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

type adjustmentRepository struct {
	store  *Store
	logger *log.Entry
}

// NewStockAdjustmentRepository создаёт PostgreSQL-журнал корректировок.
// Обновления записей нет: журнал только дополняется.
func NewStockAdjustmentRepository(store *Store) domain.StockAdjustmentRepository {
	return &adjustmentRepository{store: store, logger: store.logger.WithField("repository", "stock_adjustments")}
}

func (r *adjustmentRepository) GetAll(ctx context.Context) ([]domain.StockAdjustment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments ORDER BY id`)
	if err != nil {
		return degrade[domain.StockAdjustment](r.logger, "list stock adjustments", err)
	}
	defer rows.Close()

	result := make([]domain.StockAdjustment, 0)
	for rows.Next() {
		var rec adjustmentRecord
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan stock adjustment: %w", err)
		}
		result = append(result, rec.toDomain())
	}
	if err := rows.Err(); err != nil {
		return degrade[domain.StockAdjustment](r.logger, "iterate stock adjustments", err)
	}
	return result, nil
}

func (r *adjustmentRepository) GetByID(ctx context.Context, id int64) (domain.StockAdjustment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rec adjustmentRecord
	err := r.store.db.QueryRowContext(ctx, `SELECT `+adjustmentColumns+` FROM stock_adjustments WHERE id = $1`, id).
		Scan(rec.scanTargets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockAdjustment{}, domain.ErrAdjustmentNotFound
		}
		return domain.StockAdjustment{}, wrap("select stock adjustment", err)
	}
	return rec.toDomain(), nil
}

func (r *adjustmentRepository) Create(ctx context.Context, adj domain.StockAdjustment) (domain.StockAdjustment, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StockAdjustment{}, wrap("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id, err := nextID(ctx, tx, "stock_adjustments")
	if err != nil {
		return domain.StockAdjustment{}, wrap("create stock adjustment", err)
	}
	adj.ID = id
	adj.Timestamp = r.store.now()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO stock_adjustments (`+adjustmentColumns+`) VALUES (`+placeholders(5)+`)`,
		adjustmentRecordFrom(adj).values()...,
	); err != nil {
		return domain.StockAdjustment{}, wrap("insert stock adjustment", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO pending_stock_writes (adjustment_id, product_id, created_at) VALUES ($1, $2, $3)`,
		adj.ID, adj.ProductID, adj.Timestamp,
	); err != nil {
		return domain.StockAdjustment{}, wrap("insert pending stock write", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.StockAdjustment{}, wrap("commit stock adjustment", err)
	}
	return adj, nil
}

func (r *adjustmentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.store.db, "stock_adjustments", id, domain.ErrAdjustmentNotFound)
}

func (r *adjustmentRepository) StockWritePending(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists, pending bool
	err := r.store.db.QueryRowContext(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM stock_adjustments WHERE id = $1),
			EXISTS (SELECT 1 FROM pending_stock_writes WHERE adjustment_id = $1)
	`, id).Scan(&exists, &pending)
	if err != nil {
		return false, wrap("select pending stock write", err)
	}
	if !exists {
		return false, domain.ErrAdjustmentNotFound
	}
	return pending, nil
}

func (r *adjustmentRepository) MarkStockApplied(ctx context.Context, id int64) (bool, error) {
	pending, err := r.StockWritePending(ctx, id)
	if err != nil || !pending {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.store.db.ExecContext(ctx, `DELETE FROM pending_stock_writes WHERE adjustment_id = $1`, id)
	if err != nil {
		return false, wrap("delete pending stock write", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrap("rows affected", err)
	}
	return affected > 0, nil
}

var _ domain.StockAdjustmentRepository = (*adjustmentRepository)(nil)
