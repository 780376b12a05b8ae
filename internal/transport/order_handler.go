package transport

import (
	"net/http"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LineItemRequest is one product line of an order or sale
type LineItemRequest struct {
	Product    uuid.UUID       `json:"product" validate:"required"`
	Price      decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity   int             `json:"quantity" validate:"gt=0,lte=2147483647"`
	TotalPrice decimal.Decimal `json:"totalPrice" validate:"gt=0"`
}

// lineItems converts request lines; nil stays nil so updates can tell
// "unchanged" from "empty"
func lineItems(reqs []LineItemRequest) domain.LineItems {
	if reqs == nil {
		return nil
	}
	items := make(domain.LineItems, 0, len(reqs))
	for _, li := range reqs {
		items = append(items, domain.LineItem{
			ProductID:  li.Product,
			Price:      li.Price,
			Quantity:   li.Quantity,
			TotalPrice: li.TotalPrice,
		})
	}
	return items
}

// CreateOrderRequest represents the order creation payload
type CreateOrderRequest struct {
	OrderDate  *time.Time        `json:"orderDate"`
	TotalPrice *decimal.Decimal  `json:"totalPrice"`
	Products   []LineItemRequest `json:"products" validate:"required,min=1,dive"`
}

// UpdateOrderRequest represents the order PATCH payload
type UpdateOrderRequest struct {
	OrderDate  *time.Time        `json:"orderDate"`
	TotalPrice *decimal.Decimal  `json:"totalPrice"`
	Products   []LineItemRequest `json:"products" validate:"omitempty,dive"`
}

var orderFields = []string{"orderDate", "totalPrice", "products"}

// OrderHandler handles HTTP requests for the caller's supplier orders
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes mounts /api/orders on an authenticated router
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create stores the order and adds its quantities to stock
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	input := service.OrderInput{TotalPrice: req.TotalPrice, LineItems: lineItems(req.Products)}
	if req.OrderDate != nil {
		input.OrderDate = *req.OrderDate
	}

	order, err := h.orderService.Create(r.Context(), ownerID(r), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created", zap.Int64("order_id", order.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	orders, total, err := h.orderService.List(r.Context(), ownerID(r), opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, orders, total)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderService.Get(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Update applies the PATCH; replacing products moves stock by the difference
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req UpdateOrderRequest
	if err := decodePatch(r, orderFields, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderService.Update(r.Context(), ownerID(r), id, service.OrderUpdate{
		OrderDate:  req.OrderDate,
		TotalPrice: req.TotalPrice,
		LineItems:  lineItems(req.Products),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// Delete removes the order and takes its quantities back out of stock
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	order, err := h.orderService.Delete(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Order deleted", zap.Int64("order_id", order.ID))
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
