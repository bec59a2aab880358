package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
)

// Коды ошибок в теле ответа.
const (
	codeValidation   = "validation_error"
	codeNotFound     = "not_found"
	codeTransition   = "invalid_transition"
	codeReference    = "dangling_reference"
	codePartialApply = "partial_apply"
	codeUnavailable  = "backend_unavailable"
	codeInternal     = "internal_error"
)

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type partialApplyDetails struct {
	AdjustmentID int64 `json:"adjustmentId"`
	ProductID    int64 `json:"productId"`
	Delta        int   `json:"delta"`
}

// classify сопоставляет доменную ошибку с HTTP-статусом и кодом ответа.
// Порядок важен: PartialApplyError и ReferenceError оборачивают более общие ошибки.
func classify(err error) (int, apiError) {
	var partial *domain.PartialApplyError
	switch {
	case errors.As(err, &partial):
		return http.StatusBadGateway, apiError{
			Code:    codePartialApply,
			Message: err.Error(),
			Details: partialApplyDetails{
				AdjustmentID: partial.AdjustmentID,
				ProductID:    partial.ProductID,
				Delta:        partial.Delta,
			},
		}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, apiError{Code: codeValidation, Message: err.Error(), Details: fieldErrors(err)}
	case errors.Is(err, domain.ErrReference):
		return http.StatusUnprocessableEntity, apiError{Code: codeReference, Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, apiError{Code: codeNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, apiError{Code: codeTransition, Message: err.Error()}
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, apiError{Code: codeUnavailable, Message: "storage backend is unavailable"}
	default:
		return http.StatusInternalServerError, apiError{Code: codeInternal, Message: "unexpected error"}
	}
}

// fieldErrors разворачивает errors.Join и собирает все ValidationError.
func fieldErrors(err error) []fieldError {
	var out []fieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*domain.ValidationError); ok {
			out = append(out, fieldError{Field: ve.Field, Reason: ve.Reason})
			return
		}
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	status, body := classify(err)
	entry := logger.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}
