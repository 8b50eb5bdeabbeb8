package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/shopease-backend/internal/catalog"
)

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 12)
	sortBy := r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = "name"
	}
	sortDir := r.URL.Query().Get("sortDir")
	if sortDir == "" {
		sortDir = "asc"
	}

	products, err := h.catalogSvc.ListActive(r.Context(), page, size, sortBy, sortDir)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	product, err := h.catalogSvc.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		term = r.URL.Query().Get("query")
	}
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 12)

	products, err := h.catalogSvc.Search(r.Context(), term, page, size)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := extractPathParam(r.URL.Path, "/api/products/category/")
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 12)

	products, err := h.catalogSvc.ByCategory(r.Context(), category, page, size)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProductsByPriceRange(w http.ResponseWriter, r *http.Request) {
	minCents, err := parsePriceCents(r.URL.Query().Get("minPrice"))
	if err != nil {
		respondJSONError(w, "invalid minPrice", http.StatusBadRequest)
		return
	}
	maxCents, err := parsePriceCents(r.URL.Query().Get("maxPrice"))
	if err != nil {
		respondJSONError(w, "invalid maxPrice", http.StatusBadRequest)
		return
	}

	products, err := h.catalogSvc.ByPriceRange(r.Context(), minCents, maxCents)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 8)

	products, err := h.catalogSvc.Featured(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogSvc.Categories(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetProductStock(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	id = strings.TrimSuffix(id, "/stock")

	stock, err := h.catalogSvc.Stock(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stock)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.catalogSvc.Create(r.Context(), &p)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = id

	updated, err := h.catalogSvc.Update(r.Context(), &p)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	if err := h.catalogSvc.SoftDelete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// parsePriceCents converts a decimal price query parameter to cents
func parsePriceCents(value string) (int64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}
