package transport

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateCustomerRequest represents the customer creation payload
type CreateCustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address" validate:"required"`
	StoreName   string `json:"storeName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,numeric"`
	Locality    string `json:"locality" validate:"omitempty,locality"`
	Town        string `json:"town"`
	IDNumber    string `json:"idNumber"`
}

// UpdateCustomerRequest represents the customer PATCH payload
type UpdateCustomerRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Address     *string `json:"address" validate:"omitempty,min=1"`
	StoreName   *string `json:"storeName" validate:"omitempty,min=1"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,numeric"`
	Locality    *string `json:"locality" validate:"omitempty,locality"`
	Town        *string `json:"town"`
	IDNumber    *string `json:"idNumber"`
}

var customerFields = []string{"name", "email", "address", "storeName", "phoneNumber", "locality", "town", "idNumber"}

// CustomerHandler handles HTTP requests for the caller's customers
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, logger: logger}
}

// RegisterRoutes mounts /api/customers on an authenticated router
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/customers", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	customer, err := h.customerService.Create(r.Context(), ownerID(r), service.CustomerInput{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		StoreName:   req.StoreName,
		PhoneNumber: req.PhoneNumber,
		Locality:    req.Locality,
		Town:        req.Town,
		IDNumber:    req.IDNumber,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Customer created", zap.String("customer_id", customer.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	customers, total, err := h.customerService.List(r.Context(), ownerID(r), opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, customers, total)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	customer, err := h.customerService.Get(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req UpdateCustomerRequest
	if err := decodePatch(r, customerFields, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	customer, err := h.customerService.Update(r.Context(), ownerID(r), id, service.CustomerUpdate{
		Name:        req.Name,
		Email:       req.Email,
		Address:     req.Address,
		StoreName:   req.StoreName,
		PhoneNumber: req.PhoneNumber,
		Locality:    req.Locality,
		Town:        req.Town,
		IDNumber:    req.IDNumber,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, customer)
}

// Delete removes the customer and its sales, returning their stock
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	customer, err := h.customerService.Delete(r.Context(), ownerID(r), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("Customer deleted", zap.String("customer_id", customer.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, customer)
}
