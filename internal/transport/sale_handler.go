package transport

import (
	"net/http"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateSaleRequest represents the sale creation payload
type CreateSaleRequest struct {
	Customer        uuid.UUID         `json:"customer" validate:"required"`
	SaleDate        *time.Time        `json:"saleDate"`
	IsThirteenDozen bool              `json:"isThirteenDozen"`
	Owes            bool              `json:"owes"`
	PartialPayment  decimal.Decimal   `json:"partialPayment" validate:"gte=0"`
	TotalPrice      *decimal.Decimal  `json:"totalPrice"`
	Products        []LineItemRequest `json:"products" validate:"required,min=1,dive"`
}

// UpdateSaleRequest represents the sale PATCH payload
type UpdateSaleRequest struct {
	Customer        *uuid.UUID        `json:"customer"`
	SaleDate        *time.Time        `json:"saleDate"`
	IsThirteenDozen *bool             `json:"isThirteenDozen"`
	Owes            *bool             `json:"owes"`
	PartialPayment  *decimal.Decimal  `json:"partialPayment"`
	TotalPrice      *decimal.Decimal  `json:"totalPrice"`
	Products        []LineItemRequest `json:"products" validate:"omitempty,dive"`
}

var saleFields = []string{"customer", "saleDate", "isThirteenDozen", "owes", "partialPayment", "totalPrice", "products"}

// SaleHandler handles HTTP requests for the caller's sales
type SaleHandler struct {
	saleService service.SaleService
	logger      *zap.Logger
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService service.SaleService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{saleService: saleService, logger: logger}
}

// RegisterRoutes mounts /api/sales on an authenticated router
func (h *SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// Create stores the sale; it fails with 409 when any line exceeds stock
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	input := service.SaleInput{
		CustomerID:      req.Customer,
		IsThirteenDozen: req.IsThirteenDozen,
		Owes:            req.Owes,
		PartialPayment:  req.PartialPayment,
		TotalPrice:      req.TotalPrice,
		LineItems:       lineItems(req.Products),
	}
	if req.SaleDate != nil {
		input.SaleDate = *req.SaleDate
	}

	sale, err := h.saleService.Create(r.Context(), ownerID(r), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Sale created", zap.Int64("sale_id", sale.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, sale)
}

// List also accepts customer to narrow the page to one customer
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	filter := repository.SaleFilter{ListOptions: opts}
	if raw := r.URL.Query().Get("customer"); raw != "" {
		if filter.CustomerID, err = uuidParam(raw, "customer"); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}

	sales, total, err := h.saleService.List(r.Context(), ownerID(r), filter)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, sales, total)
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	sale, err := h.saleService.Get(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req UpdateSaleRequest
	if err := decodePatch(r, saleFields, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	sale, err := h.saleService.Update(r.Context(), ownerID(r), id, service.SaleUpdate{
		CustomerID:      req.Customer,
		SaleDate:        req.SaleDate,
		IsThirteenDozen: req.IsThirteenDozen,
		Owes:            req.Owes,
		PartialPayment:  req.PartialPayment,
		TotalPrice:      req.TotalPrice,
		LineItems:       lineItems(req.Products),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}

// Delete removes the sale and returns its quantities to stock
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	sale, err := h.saleService.Delete(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Sale deleted", zap.Int64("sale_id", sale.ID))
	middleware.RespondWithJSON(w, http.StatusOK, sale)
}
