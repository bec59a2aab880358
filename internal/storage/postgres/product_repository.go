package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

type productRepository struct {
	store  *Store
	logger *log.Entry
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{store: store, logger: store.logger.WithField("repository", "products")}
}

// GetAll при недоступной базе возвращает пустой список и пишет предупреждение.
func (r *productRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.store.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return degrade[domain.Product](r.logger, "list products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var rec productRecord
		if err := rows.Scan(rec.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, rec.toDomain())
	}
	if err := rows.Err(); err != nil {
		return degrade[domain.Product](r.logger, "iterate product rows", err)
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rec productRecord
	err := r.store.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(rec.scanTargets()...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, wrap("select product", err)
	}
	return rec.toDomain(), nil
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, wrap("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id, err := nextID(ctx, tx, "products")
	if err != nil {
		return domain.Product{}, wrap("create product", err)
	}

	now := r.store.now()
	product.ID = id
	product.CreatedAt = now
	product.UpdatedAt = now
	rec := productRecordFrom(product)

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (`+placeholders(9)+`)`,
		rec.values()...,
	); err != nil {
		return domain.Product{}, wrap("insert product", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Product{}, wrap("commit create product", err)
	}
	return product, nil
}

// Update применяет патч и всегда обновляет updated_at.
func (r *productRepository) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cols := append(productPatchColumns(patch), columnValue{"updated_at", r.store.now()})
	query, args := buildUpdate("products", cols, id, productColumns)

	var rec productRecord
	if err := r.store.db.QueryRowContext(ctx, query, args...).Scan(rec.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, wrap("update product", err)
	}
	return rec.toDomain(), nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return deleteByID(ctx, r.store.db, "products", id, domain.ErrProductNotFound)
}

// degrade превращает ошибку недоступности базы в пустой результат.
func degrade[T any](logger *log.Entry, op string, err error) ([]T, error) {
	err = classify(err)
	if domain.IsBackendUnavailable(err) {
		logger.WithError(err).Warn(op + ": backend unavailable, returning empty result")
		return []T{}, nil
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

func deleteByID(ctx context.Context, db *sql.DB, table string, id int64, notFound error) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
	if err != nil {
		return false, wrap("delete from "+table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrap("rows affected", err)
	}
	if affected == 0 {
		return false, notFound
	}
	return true, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
