package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/service/catalog"
	"github.com/vladislavdragonenkov/storeops/internal/service/composer"
	"github.com/vladislavdragonenkov/storeops/internal/service/dashboard"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
	"github.com/vladislavdragonenkov/storeops/internal/stock"
)

var nowFunc = time.Now

// listProducts поддерживает ?q= (имя или SKU) и ?level=low|medium|high|all.
func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := dashboard.ProductFilter{Query: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("level"); raw != "" && raw != "all" {
		level, ok := stock.ParseLevel(raw)
		if !ok {
			h.fail(w, r, domain.NewValidationError("level", "must be one of low, medium, high, all"))
			return
		}
		filter.Level = level
	}

	products, err := h.svc.Dashboard.SearchProducts(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, productsFrom(products))
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.svc.Catalog.Create(r.Context(), catalog.ProductInput{
		Name:              req.Name,
		SKU:               req.SKU,
		Price:             req.Price,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		ImageURL:          req.ImageURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, productFrom(product))
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	product, err := h.svc.Catalog.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, productFrom(product))
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateProductRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.svc.Catalog.Update(r.Context(), id, req.patch())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, productFrom(product))
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Catalog.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) productHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.svc.Dashboard.ProductHistory(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]adjustmentResponse, 0, len(history))
	for _, adj := range history {
		out = append(out, adjustmentFrom(adj))
	}
	writeData(w, http.StatusOK, out)
}

func (h *handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Dashboard.Adjustments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, adjustmentViewsFrom(views))
}

func (h *handler) createAdjustment(w http.ResponseWriter, r *http.Request) {
	var req createAdjustmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.svc.Inventory.Apply(r.Context(), inventory.AdjustmentRequest{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, adjustmentResultFrom(res))
}

// retryAdjustment повторяет только запись остатка для уже сохранённой корректировки.
// Тело совпадает с details ответа 502 partial_apply.
func (h *handler) retryAdjustment(w http.ResponseWriter, r *http.Request) {
	var req retryAdjustmentRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.AdjustmentID <= 0 {
		h.fail(w, r, domain.NewValidationError("adjustmentId", "is required"))
		return
	}

	res, err := h.svc.Inventory.RetryStockWrite(r.Context(), &domain.PartialApplyError{
		AdjustmentID: req.AdjustmentID,
		ProductID:    req.ProductID,
		Delta:        req.Delta,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, adjustmentResultFrom(res))
}

// listOrders поддерживает ?q= по номеру заказа или имени покупателя.
func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Dashboard.SearchOrders(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ordersFrom(orders))
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	input := composer.Input{
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		Items:           make([]composer.ItemRequest, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, composer.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.svc.Orders.Place(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, orderFrom(order))
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.svc.Orders.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, orderFrom(order))
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Orders.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) advanceOrder(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.svc.Workflow.Advance)
}

func (h *handler) forceOrder(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, h.svc.Workflow.Force)
}

func (h *handler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id int64, next domain.OrderStatus) (domain.Order, error),
) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := apply(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, orderFrom(order))
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Dashboard.Summary(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, summaryFrom(summary))
}
