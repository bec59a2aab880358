package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

func TestClassify(t *testing.T) {
	partial := &domain.PartialApplyError{
		AdjustmentID: 3,
		ProductID:    7,
		Delta:        -2,
		Err:          fmt.Errorf("%w: timeout", domain.ErrBackendUnavailable),
	}

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", domain.NewValidationError("name", "is required"), http.StatusBadRequest, codeValidation},
		{"joined validation", errors.Join(domain.NewValidationError("a", "x"), domain.NewValidationError("b", "y")), http.StatusBadRequest, codeValidation},
		{"reference before not found", domain.ProductReference(5), http.StatusUnprocessableEntity, codeReference},
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, codeNotFound},
		{"transition", fmt.Errorf("%w: shipped -> pending", domain.ErrInvalidTransition), http.StatusConflict, codeTransition},
		{"partial before unavailable", partial, http.StatusBadGateway, codePartialApply},
		{"unavailable", fmt.Errorf("select: %w", domain.ErrBackendUnavailable), http.StatusServiceUnavailable, codeUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := classify(tc.err)
			if status != tc.status || body.Code != tc.code {
				t.Fatalf("expected %d/%s, got %d/%s", tc.status, tc.code, status, body.Code)
			}
		})
	}
}

func TestClassify_PartialApplyDetails(t *testing.T) {
	_, body := classify(&domain.PartialApplyError{AdjustmentID: 3, ProductID: 7, Delta: -2})
	details, ok := body.Details.(partialApplyDetails)
	if !ok {
		t.Fatalf("expected partialApplyDetails, got %T", body.Details)
	}
	if details.AdjustmentID != 3 || details.ProductID != 7 || details.Delta != -2 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("create product: %w", errors.Join(
		domain.NewValidationError("name", "is required"),
		domain.NewValidationError("price", "must be non-negative"),
	))

	fields := fieldErrors(err)
	if len(fields) != 2 || fields[0].Field != "name" || fields[1].Field != "price" {
		t.Fatalf("unexpected field errors: %+v", fields)
	}
}
