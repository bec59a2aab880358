package domain

import "time"

// AdjustmentReason: закрытый набор причин корректировки остатка.
type AdjustmentReason string

const (
	ReasonRestock    AdjustmentReason = "restock"
	ReasonDamage     AdjustmentReason = "damage"
	ReasonTheft      AdjustmentReason = "theft"
	ReasonReturn     AdjustmentReason = "return"
	ReasonCorrection AdjustmentReason = "correction"
	ReasonOther      AdjustmentReason = "other"
)

// Valid проверяет принадлежность причины закрытому набору.
func (r AdjustmentReason) Valid() bool {
	switch r {
	case ReasonRestock, ReasonDamage, ReasonTheft, ReasonReturn, ReasonCorrection, ReasonOther:
		return true
	default:
		return false
	}
}

// StockAdjustment: запись append-only журнала изменений остатка.
// Quantity > 0 увеличивает остаток, < 0 уменьшает; ноль недопустим.
type StockAdjustment struct {
	ID        int64
	ProductID int64
	Quantity  int
	Reason    AdjustmentReason
	Timestamp time.Time
}

// Validate проверяет инварианты корректировки.
func (a *StockAdjustment) Validate() []error {
	var errs []error
	if a.Quantity == 0 {
		errs = append(errs, NewValidationError("quantity", "must not be zero"))
	}
	if !a.Reason.Valid() {
		errs = append(errs, NewValidationError("reason", "must be one of restock, damage, theft, return, correction, other"))
	}
	return errs
}
