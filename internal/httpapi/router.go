// Package httpapi публикует операции консоли по HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/service/catalog"
	"github.com/vladislavdragonenkov/storeops/internal/service/composer"
	"github.com/vladislavdragonenkov/storeops/internal/service/dashboard"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
)

const maxBodyBytes = 1 << 20

// Catalog: операции каталога.
type Catalog interface {
	Create(ctx context.Context, input catalog.ProductInput) (domain.Product, error)
	Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Orders: создание, чтение и удаление заказов.
type Orders interface {
	Place(ctx context.Context, input composer.Input) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

// Workflow: смена статуса заказа.
type Workflow interface {
	Advance(ctx context.Context, orderID int64, next domain.OrderStatus) (domain.Order, error)
	Force(ctx context.Context, orderID int64, next domain.OrderStatus) (domain.Order, error)
}

// Inventory: корректировки остатка.
type Inventory interface {
	Apply(ctx context.Context, req inventory.AdjustmentRequest) (inventory.Result, error)
	RetryStockWrite(ctx context.Context, partial *domain.PartialApplyError) (inventory.Result, error)
}

// Dashboard: агрегаты, поиск и история.
type Dashboard interface {
	Summary(ctx context.Context) (dashboard.Summary, error)
	SearchProducts(ctx context.Context, filter dashboard.ProductFilter) ([]domain.Product, error)
	SearchOrders(ctx context.Context, query string) ([]domain.Order, error)
	Adjustments(ctx context.Context) ([]dashboard.AdjustmentView, error)
	ProductHistory(ctx context.Context, productID int64) ([]domain.StockAdjustment, error)
}

// Services собирает зависимости роутера.
type Services struct {
	Catalog   Catalog
	Orders    Orders
	Workflow  Workflow
	Inventory Inventory
	Dashboard Dashboard
}

type handler struct {
	svc    Services
	logger *log.Entry
}

// NewRouter строит chi-роутер API консоли.
func NewRouter(svc Services, logger *log.Entry) http.Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		recoverer(logger),
		requestLogger(logger),
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getProduct)
				r.Patch("/", h.updateProduct)
				r.Delete("/", h.deleteProduct)
				r.Get("/adjustments", h.productHistory)
			})
		})

		r.Route("/adjustments", func(r chi.Router) {
			r.Get("/", h.listAdjustments)
			r.Post("/", h.createAdjustment)
			r.Post("/retry", h.retryAdjustment)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.createOrder)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getOrder)
				r.Delete("/", h.deleteOrder)
				r.Post("/status", h.advanceOrder)
				r.Post("/status/force", h.forceOrder)
			})
		})

		r.Get("/dashboard", h.summary)
	})

	return r
}

// requestLogger пишет одну строку на запрос с итоговым статусом.
func requestLogger(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set(middleware.RequestIDHeader, middleware.GetReqID(r.Context()))
			start := nowFunc()
			next.ServeHTTP(ww, r)

			logger.WithFields(log.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": nowFunc().Sub(start).Milliseconds(),
			}).Info("http request")
		})
	}
}

func recoverer(logger *log.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					writeError(w, logger.WithField("request_id", middleware.GetReqID(r.Context())), fmt.Errorf("panic: %v", rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) log(r *http.Request) *log.Entry {
	return h.logger.WithField("request_id", middleware.GetReqID(r.Context()))
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, h.log(r), err)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", fmt.Sprintf("must be a positive integer, got %q", raw))
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "is required")
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}
