package transport

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// UtilsHandler serves the enumerations clients build their forms from
type UtilsHandler struct{}

func NewUtilsHandler() *UtilsHandler {
	return &UtilsHandler{}
}

func (h *UtilsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/utils", func(r chi.Router) {
		r.Get("/localities", h.Localities)
		r.Get("/presentations", h.Presentations)
		r.Get("/product-types", h.ProductTypes)
	})
}

func (h *UtilsHandler) Localities(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, domain.Localities)
}

func (h *UtilsHandler) Presentations(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, domain.Presentations)
}

func (h *UtilsHandler) ProductTypes(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, domain.ProductTypes)
}
