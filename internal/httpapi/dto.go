package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeops/internal/domain"
	"github.com/vladislavdragonenkov/storeops/internal/service/dashboard"
	"github.com/vladislavdragonenkov/storeops/internal/service/inventory"
	"github.com/vladislavdragonenkov/storeops/internal/stock"
)

type productResponse struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
	Level             stock.Level     `json:"level"`
	ImageURL          string          `json:"imageUrl,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func productFrom(p domain.Product) productResponse {
	return productResponse{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Level:             stock.Classify(p.Stock, p.LowStockThreshold),
		ImageURL:          p.ImageURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func productsFrom(items []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(items))
	for _, p := range items {
		out = append(out, productFrom(p))
	}
	return out
}

type createProductRequest struct {
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	LowStockThreshold *int            `json:"lowStockThreshold"`
	ImageURL          string          `json:"imageUrl"`
}

type updateProductRequest struct {
	Name              *string          `json:"name"`
	SKU               *string          `json:"sku"`
	Price             *decimal.Decimal `json:"price"`
	Stock             *int             `json:"stock"`
	LowStockThreshold *int             `json:"lowStockThreshold"`
	ImageURL          *string          `json:"imageUrl"`
}

func (r updateProductRequest) patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:              r.Name,
		SKU:               r.SKU,
		Price:             r.Price,
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
		ImageURL:          r.ImageURL,
	}
}

type orderItemResponse struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	CustomerName    string              `json:"customerName"`
	CustomerAddress string              `json:"customerAddress"`
	Items           []orderItemResponse `json:"items"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	Status          domain.OrderStatus  `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func orderFrom(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
		})
	}
	return orderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.CustomerName,
		CustomerAddress: o.CustomerAddress,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}

func ordersFrom(items []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(items))
	for _, o := range items {
		out = append(out, orderFrom(o))
	}
	return out
}

type createOrderRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerAddress string `json:"customerAddress"`
	Items           []struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	} `json:"items"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type adjustmentResponse struct {
	ID          int64                   `json:"id"`
	ProductID   int64                   `json:"productId"`
	ProductName string                  `json:"productName,omitempty"`
	Quantity    int                     `json:"quantity"`
	Reason      domain.AdjustmentReason `json:"reason"`
	Timestamp   time.Time               `json:"timestamp"`
}

func adjustmentFrom(a domain.StockAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:        a.ID,
		ProductID: a.ProductID,
		Quantity:  a.Quantity,
		Reason:    a.Reason,
		Timestamp: a.Timestamp,
	}
}

func adjustmentViewsFrom(items []dashboard.AdjustmentView) []adjustmentResponse {
	out := make([]adjustmentResponse, 0, len(items))
	for _, view := range items {
		resp := adjustmentFrom(view.StockAdjustment)
		resp.ProductName = view.ProductName
		out = append(out, resp)
	}
	return out
}

type createAdjustmentRequest struct {
	ProductID int64                   `json:"productId"`
	Quantity  int                     `json:"quantity"`
	Reason    domain.AdjustmentReason `json:"reason"`
}

type retryAdjustmentRequest struct {
	AdjustmentID int64 `json:"adjustmentId"`
	ProductID    int64 `json:"productId"`
	Delta        int   `json:"delta"`
}

type adjustmentResultResponse struct {
	Adjustment    adjustmentResponse `json:"adjustment"`
	Product       productResponse    `json:"product"`
	Level         stock.Level        `json:"level"`
	NegativeStock bool               `json:"negativeStock"`
}

func adjustmentResultFrom(res inventory.Result) adjustmentResultResponse {
	return adjustmentResultResponse{
		Adjustment:    adjustmentFrom(res.Adjustment),
		Product:       productFrom(res.Product),
		Level:         res.Level,
		NegativeStock: res.NegativeStock,
	}
}

type summaryResponse struct {
	TotalRevenue      decimal.Decimal      `json:"totalRevenue"`
	TodayOrders       int                  `json:"todayOrders"`
	LowStockCount     int                  `json:"lowStockCount"`
	TotalProducts     int                  `json:"totalProducts"`
	TotalOrders       int                  `json:"totalOrders"`
	TopProducts       []productResponse    `json:"topProducts"`
	RecentOrders      []orderResponse      `json:"recentOrders"`
	RecentAdjustments []adjustmentResponse `json:"recentAdjustments"`
}

func summaryFrom(s dashboard.Summary) summaryResponse {
	return summaryResponse{
		TotalRevenue:      s.TotalRevenue,
		TodayOrders:       s.TodayOrders,
		LowStockCount:     s.LowStockCount,
		TotalProducts:     s.TotalProducts,
		TotalOrders:       s.TotalOrders,
		TopProducts:       productsFrom(s.TopProducts),
		RecentOrders:      ordersFrom(s.RecentOrders),
		RecentAdjustments: adjustmentViewsFrom(s.RecentAdjustments),
	}
}
