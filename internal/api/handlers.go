package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/shopease-backend/internal/account"
	"github.com/example/shopease-backend/internal/api/middleware"
	"github.com/example/shopease-backend/internal/auth"
	"github.com/example/shopease-backend/internal/cart"
	"github.com/example/shopease-backend/internal/catalog"
	"github.com/example/shopease-backend/internal/order"
)

// Handlers serves the catalog, cart, order and profile endpoints
type Handlers struct {
	catalogSvc *catalog.Service
	cartSvc    *cart.Service
	orderSvc   *order.Service
	accountSvc *account.Service
}

func NewHandlers(catalogSvc *catalog.Service, cartSvc *cart.Service, orderSvc *order.Service, accountSvc *account.Service) *Handlers {
	return &Handlers{
		catalogSvc: catalogSvc,
		cartSvc:    cartSvc,
		orderSvc:   orderSvc,
		accountSvc: accountSvc,
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service sentinel errors to HTTP statuses. The
// message string is surfaced verbatim.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrUserNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, account.ErrNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidSortField),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, catalog.ErrCategoryRequired),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, auth.ErrPasswordTooShort):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, account.ErrEmailTaken):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, account.ErrInvalidCredentials):
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// isSelf reports whether the authenticated user is userID or an admin
func isSelf(r *http.Request, userID string) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.UserID == userID || claims.Role == account.RoleAdmin
}
