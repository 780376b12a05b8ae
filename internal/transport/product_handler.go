package transport

import (
	"net/http"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name         string          `json:"name" validate:"required,product_type"`
	Presentation string          `json:"presentation" validate:"required,presentation"`
	Weight       decimal.Decimal `json:"weight" validate:"gt=0"`
	BasePrice    decimal.Decimal `json:"basePrice" validate:"gt=0"`
	SellingPrice decimal.Decimal `json:"sellingPrice" validate:"gt=0"`
	Stock        int             `json:"stock" validate:"gte=0,lte=2147483647"`
}

// UpdateProductRequest represents the product PATCH payload
type UpdateProductRequest struct {
	BasePrice    *decimal.Decimal `json:"basePrice"`
	SellingPrice *decimal.Decimal `json:"sellingPrice"`
	Stock        *int             `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
}

var productFields = []string{"basePrice", "sellingPrice", "stock"}

// ProductResponse adds the display name to a product
type ProductResponse struct {
	*domain.Product
	FullName string `json:"fullName"`
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{Product: p, FullName: p.FullName()}
}

// ProductHandler handles HTTP requests for the caller's products
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// RegisterRoutes mounts /api/products on an authenticated router
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/movements", h.Movements)
	})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	product, err := h.productService.Create(r.Context(), ownerID(r), service.ProductInput{
		Name:         domain.ProductType(req.Name),
		Presentation: domain.Presentation(req.Presentation),
		Weight:       req.Weight,
		BasePrice:    req.BasePrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, newProductResponse(product))
}

// List supports presentation in addition to the common list parameters
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	presentation := strings.TrimSpace(r.URL.Query().Get("presentation"))
	if presentation != "" && !domain.IsValidPresentation(presentation) {
		respondError(w, h.logger, domain.ValidationErrors{{Field: "presentation", Message: "invalid presentation"}})
		return
	}

	products, total, err := h.productService.List(r.Context(), ownerID(r), repository.ProductFilter{
		Presentation: presentation,
		ListOptions:  opts,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, newProductResponse(p))
	}
	respondList(w, out, total)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	product, err := h.productService.Get(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Update changes prices or stock; a stock change is recorded as an adjustment
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req UpdateProductRequest
	if err := decodePatch(r, productFields, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	product, err := h.productService.Update(r.Context(), ownerID(r), id, service.ProductUpdate{
		BasePrice:    req.BasePrice,
		SellingPrice: req.SellingPrice,
		Stock:        req.Stock,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	product, err := h.productService.Delete(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, newProductResponse(product))
}

// Movements lists the stock ledger of one product
func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	movements, total, err := h.productService.Movements(r.Context(), ownerID(r), id, opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, movements, total)
}
