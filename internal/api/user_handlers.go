package api

import (
	"net/http"
	"strings"
)

// User Handlers

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/users/")
	if !isSelf(r, id) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	user, err := h.accountSvc.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *Handlers) GetUserAddresses(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/users/")
	id = strings.TrimSuffix(id, "/addresses")
	if !isSelf(r, id) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	addresses, err := h.accountSvc.Addresses(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}
