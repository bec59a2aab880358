// Package catalog управляет товарами каталога: создание, правка, удаление.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// ProductInput: данные для создания товара.
type ProductInput struct {
	Name              string
	SKU               string
	Price             decimal.Decimal
	Stock             int
	LowStockThreshold *int
	ImageURL          string
}

// Service проверяет товары перед сохранением в репозиторий.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService конструирует сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{products: products, logger: logger}
}

// Create валидирует и сохраняет новый товар. Порог по умолчанию 10.
func (s *Service) Create(ctx context.Context, input ProductInput) (domain.Product, error) {
	threshold := domain.DefaultLowStockThreshold
	if input.LowStockThreshold != nil {
		threshold = *input.LowStockThreshold
	}
	product := domain.Product{
		Name:              strings.TrimSpace(input.Name),
		SKU:               strings.TrimSpace(input.SKU),
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: threshold,
		ImageURL:          strings.TrimSpace(input.ImageURL),
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.logger.WithFields(log.Fields{"product_id": created.ID, "sku": created.SKU}).Info("product created")
	return created, nil
}

// Update применяет патч, если результат остаётся валидным товаром.
func (s *Service) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	current, err := s.products.GetByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	patch = trimPatch(patch)
	candidate := current
	patch.Apply(&candidate)
	if errs := candidate.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	return s.products.Update(ctx, id, patch)
}

// Get возвращает товар по ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// Delete удаляет товар. Заказы и корректировки со ссылкой на него остаются.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}

func trimPatch(patch domain.ProductPatch) domain.ProductPatch {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed
	}
	patch.Name = trim(patch.Name)
	patch.SKU = trim(patch.SKU)
	patch.ImageURL = trim(patch.ImageURL)
	return patch
}
