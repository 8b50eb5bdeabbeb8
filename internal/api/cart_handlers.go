package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Cart Handlers

// AddToCartRequest is the add-to-cart payload. Size and color stay nil when
// omitted, which matters for variant matching.
type AddToCartRequest struct {
	UserID        string  `json:"user_id"`
	ProductID     string  `json:"product_id"`
	Quantity      int     `json:"quantity"`
	SelectedSize  *string `json:"selected_size,omitempty"`
	SelectedColor *string `json:"selected_color,omitempty"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := extractPathParam(r.URL.Path, "/api/cart/")
	if !isSelf(r, userID) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	items, err := h.cartSvc.GetItems(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !isSelf(r, req.UserID) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	item, err := h.cartSvc.AddToCart(r.Context(), req.UserID, req.ProductID, req.Quantity, req.SelectedSize, req.SelectedColor)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// ownsCartItem checks that the line belongs to the authenticated user
// before a mutation addressed by line id.
func (h *Handlers) ownsCartItem(w http.ResponseWriter, r *http.Request, id string) bool {
	item, err := h.cartSvc.GetItem(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return false
	}
	if !isSelf(r, item.UserID) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/cart/update/")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondJSONError(w, "invalid quantity", http.StatusBadRequest)
		return
	}
	if !h.ownsCartItem(w, r, id) {
		return
	}

	item, removed, err := h.cartSvc.UpdateItem(r.Context(), id, quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if removed {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/cart/remove/")
	if !h.ownsCartItem(w, r, id) {
		return
	}

	if err := h.cartSvc.RemoveItem(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := extractPathParam(r.URL.Path, "/api/cart/clear/")
	if !isSelf(r, userID) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.cartSvc.ClearCart(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (h *Handlers) GetCartItemCount(w http.ResponseWriter, r *http.Request) {
	userID := extractPathParam(r.URL.Path, "/api/cart/count/")
	if !isSelf(r, userID) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	count, err := h.cartSvc.ItemCount(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, count)
}
