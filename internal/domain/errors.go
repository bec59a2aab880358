package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: некорректный или отсутствующий обязательный ввод.
	ErrValidation = errors.New("validation failed")
	// ErrReference: ссылка на несуществующий товар или заказ.
	ErrReference = errors.New("dangling reference")
	// ErrInvalidTransition: недопустимый переход статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrNotFound: запись с указанным идентификатором отсутствует в репозитории.
	ErrNotFound = errors.New("not found")
	// ErrBackendUnavailable: хранилище недоступно.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrProductNotFound возвращается, если товар не найден в репозитории.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrAdjustmentNotFound возвращается, если корректировка остатка не найдена.
	ErrAdjustmentNotFound = fmt.Errorf("stock adjustment %w", ErrNotFound)
)

// ValidationError описывает конкретное нарушенное правило ввода.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

// Is позволяет сопоставлять ошибку с ErrValidation через errors.Is.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError: короткий конструктор для валидаторов.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ReferenceError фиксирует висячую ссылку на сущность.
type ReferenceError struct {
	Entity string
	ID     int64
	Err    error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %d", ErrReference, e.Entity, e.ID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrReference
}

// Unwrap возвращает исходную not-found ошибку (например, ErrProductNotFound).
func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// ProductReference строит ReferenceError для отсутствующего товара.
func ProductReference(id int64) error {
	return &ReferenceError{Entity: "product", ID: id, Err: ErrProductNotFound}
}

// PartialApplyError возвращается координатором склада, когда запись корректировки
// сохранена, а обновление остатка товара нет.
type PartialApplyError struct {
	AdjustmentID int64
	ProductID    int64
	Delta        int
	Err          error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("stock adjustment %d recorded but product %d stock update (delta %d) failed: %v",
		e.AdjustmentID, e.ProductID, e.Delta, e.Err)
}

func (e *PartialApplyError) Unwrap() error {
	return e.Err
}

// IsNotFound проверяет, относится ли ошибка к семейству not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBackendUnavailable проверяет, что хранилище было недоступно.
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
