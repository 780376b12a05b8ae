package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"backoffice/internal/domain"
	"backoffice/internal/inventory"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// invalidUpdatesError lists PATCH fields that may not be changed
type invalidUpdatesError struct {
	fields []string
}

func (e *invalidUpdatesError) Error() string {
	return "invalid fields to update " + strings.Join(e.fields, ",")
}

// respondError maps service and domain errors onto HTTP responses
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		verrs       domain.ValidationErrors
		notFound    *inventory.ProductNotFoundError
		noStock     *inventory.InsufficientStockError
		overStock   *inventory.StockLimitError
		badUpdates  *invalidUpdatesError
		middlewareV = middleware.FormatValidationErrors(err)
	)

	switch {
	case len(middlewareV) > 0:
		middleware.RespondWithValidationErrors(w, middlewareV)
	case errors.As(err, &verrs):
		middleware.RespondWithValidationErrors(w, verrs)
	case errors.As(err, &badUpdates):
		middleware.RespondWithError(w, http.StatusBadRequest, badUpdates.Error())
	case errors.Is(err, errInvalidBody):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, notFound.Error(), map[string]interface{}{
			"product": notFound.ProductID,
		})
	case errors.As(err, &noStock):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, noStock.Error(), map[string]interface{}{
			"product":   noStock.ProductID,
			"available": noStock.Available,
			"requested": noStock.Requested,
		})
	case errors.As(err, &overStock):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, overStock.Error(), map[string]interface{}{
			"product":   overStock.ProductID,
			"available": overStock.Available,
			"adding":    overStock.Adding,
		})
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, repository.ErrCustomerNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, repository.ErrSaleNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "sale not found")
	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, repository.ErrProductAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "product already exists")
	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, "user with this email already exists")
	case errors.Is(err, service.ErrWeakPassword):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrAccountInactive):
		middleware.RespondWithError(w, http.StatusForbidden, "account has not been activated")
	case errors.Is(err, service.ErrTokenExpired):
		middleware.RespondWithError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, service.ErrInvalidToken):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid token")
	default:
		logger.Error("Request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes and validates a JSON body
func decodeBody(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	err := middleware.DecodeAndValidate(r, dst)
	if err != nil && len(middleware.FormatValidationErrors(err)) == 0 {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return err
}

// decodePatch rejects bodies naming fields outside allowed, then decodes and
// validates the rest into dst
func decodePatch(r *http.Request, allowed []string, dst interface{}) error {
	raw, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	var invalid []string
	for name := range fields {
		if !slices.Contains(allowed, name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return &invalidUpdatesError{fields: invalid}
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))
	return decodeBody(r, dst)
}

// listOptions reads limit, skip, sortBy=field:dir and textQuery
func listOptions(r *http.Request) (repository.ListOptions, error) {
	q := r.URL.Query()
	opts := repository.ListOptions{TextQuery: strings.TrimSpace(q.Get("textQuery"))}
	opts.SortBy, opts.SortOrder = repository.ParseSort(q.Get("sortBy"))

	var err error
	if opts.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}
	if opts.Skip, err = intParam(q.Get("skip"), "skip"); err != nil {
		return opts, err
	}
	return opts, nil
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.ValidationErrors{{Field: name, Message: "must be a non-negative integer"}}
	}
	return n, nil
}

func uuidParam(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ValidationErrors{{Field: name, Message: "invalid id"}}
	}
	return id, nil
}

func int64Param(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ValidationErrors{{Field: name, Message: "invalid id"}}
	}
	return id, nil
}

// respondList writes a page and the unpaged count in X-Total-Count
func respondList(w http.ResponseWriter, items interface{}, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// ownerID returns the authenticated owner; routes using it sit behind AuthMiddleware
func ownerID(r *http.Request) uuid.UUID {
	id, _ := middleware.GetUserID(r.Context())
	return id
}
