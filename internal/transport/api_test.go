package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"backoffice/internal/clock"
	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/middleware"
	"backoffice/internal/repository/memory"
	"backoffice/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// api serves every handler over one memory store, signed tokens checked by
// the real auth middleware
type api struct {
	t      *testing.T
	store  *memory.Store
	users  service.UserService
	router http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.New()
	clk := clock.New()
	logger := zap.NewNop()
	reconciler := inventory.NewReconciler(clk, logger, nil)
	users := service.NewUserService(store.Users(), store.RefreshTokens(), service.NewLogMailer(logger), clk, logger, service.AuthConfig{
		JWTSecret: testSecret,
		WebURL:    "http://localhost:3000",
	})
	auth := middleware.AuthMiddleware(testSecret, logger)

	r := chi.NewRouter()
	NewUserHandler(users, logger).RegisterRoutes(r, auth)
	NewUtilsHandler().RegisterRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		NewProductHandler(service.NewProductService(store, store, clk, logger), logger).RegisterRoutes(r)
		NewCustomerHandler(service.NewCustomerService(store, store, reconciler, clk, logger), logger).RegisterRoutes(r)
		NewOrderHandler(service.NewOrderService(store, store, reconciler, clk, logger), logger).RegisterRoutes(r)
		NewSaleHandler(service.NewSaleService(store, store, reconciler, clk, logger), logger).RegisterRoutes(r)
	})

	return &api{t: t, store: store, users: users, router: r}
}

// signUp registers and activates an account, returning its access token
func (a *api) signUp(email string) string {
	a.t.Helper()
	ctx := context.Background()
	_, err := a.users.Register(ctx, "Owner", email, "Galletas2024!")
	require.NoError(a.t, err)
	u, err := a.store.Users().FindByEmail(ctx, email)
	require.NoError(a.t, err)
	access, _, _, err := a.users.Activate(ctx, u.ActivationToken)
	require.NoError(a.t, err)
	return access
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// decode reads a JSON response body into a fresh T
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

// createProduct posts a product with the given weight and stock
func (a *api) createProduct(token string, weight, stock int) domain.Product {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/products", token, map[string]interface{}{
		"name":         domain.ProductTypeMinigalleta,
		"presentation": domain.PresentationSobre,
		"weight":       weight,
		"basePrice":    800,
		"sellingPrice": 1200,
		"stock":        stock,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Product](a.t, w)
}

func (a *api) createCustomer(token string) domain.Customer {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/customers", token, map[string]interface{}{
		"name":      "Rosa",
		"storeName": "Tienda Rosa",
		"address":   "Calle 45 # 12-30",
		"locality":  "Chapinero",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Customer](a.t, w)
}

func (a *api) stock(token, productID string) int {
	a.t.Helper()
	w := a.do(http.MethodGet, "/api/products/"+productID, token, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[domain.Product](a.t, w).Stock
}

func line(productID string, qty int) map[string]interface{} {
	return map[string]interface{}{
		"product":    productID,
		"price":      1000,
		"quantity":   qty,
		"totalPrice": qty * 1000,
	}
}

func totalCount(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	n, err := strconv.Atoi(w.Header().Get("X-Total-Count"))
	require.NoError(t, err)
	return n
}

func propertyParameters() *gopter.TestParameters {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 15
	return params
}
