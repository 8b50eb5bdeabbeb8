package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/shopease-backend/internal/account"
	"github.com/example/shopease-backend/internal/api/middleware"
	"github.com/example/shopease-backend/internal/auth"
)

// RouterConfig wires the handlers and the token service into the router
type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	Tokens       *auth.TokenService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.Auth(cfg.Tokens)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(middleware.RequireRole(account.RoleAdmin)(h))
	}

	// Auth
	mux.HandleFunc("/api/auth/signup", postOnly(cfg.AuthHandlers.Signup))
	mux.HandleFunc("/api/auth/login", postOnly(cfg.AuthHandlers.Login))
	mux.HandleFunc("/api/auth/logout", postOnly(cfg.AuthHandlers.Logout))

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetProducts(w, r)
		case http.MethodPost:
			requireAdmin(cfg.Handlers.CreateProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/products/")
		switch {
		case rest == "search" && r.Method == http.MethodGet:
			cfg.Handlers.SearchProducts(w, r)
		case rest == "categories" && r.Method == http.MethodGet:
			cfg.Handlers.GetCategories(w, r)
		case rest == "featured" && r.Method == http.MethodGet:
			cfg.Handlers.GetFeaturedProducts(w, r)
		case rest == "price-range" && r.Method == http.MethodGet:
			cfg.Handlers.GetProductsByPriceRange(w, r)
		case strings.HasPrefix(rest, "category/") && r.Method == http.MethodGet:
			cfg.Handlers.GetProductsByCategory(w, r)
		case strings.HasSuffix(rest, "/stock") && r.Method == http.MethodGet:
			cfg.Handlers.GetProductStock(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			requireAdmin(cfg.Handlers.UpdateProduct).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			requireAdmin(cfg.Handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	// Cart
	mux.Handle("/api/cart/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/cart/")
		switch {
		case rest == "add" && r.Method == http.MethodPost:
			cfg.Handlers.AddToCart(w, r)
		case strings.HasPrefix(rest, "update/") && r.Method == http.MethodPut:
			cfg.Handlers.UpdateCartItem(w, r)
		case strings.HasPrefix(rest, "remove/") && r.Method == http.MethodDelete:
			cfg.Handlers.RemoveFromCart(w, r)
		case strings.HasPrefix(rest, "clear/") && r.Method == http.MethodDelete:
			cfg.Handlers.ClearCart(w, r)
		case strings.HasPrefix(rest, "count/") && r.Method == http.MethodGet:
			cfg.Handlers.GetCartItemCount(w, r)
		case r.Method == http.MethodGet:
			cfg.Handlers.GetCart(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	// Users
	mux.Handle("/api/users/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/addresses") {
			cfg.Handlers.GetUserAddresses(w, r)
			return
		}
		cfg.Handlers.GetUser(w, r)
	})))

	// Orders
	mux.Handle("/api/orders", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			cfg.Handlers.GetOrders(w, r)
		case http.MethodPost:
			cfg.Handlers.PlaceOrder(w, r)
		default:
			methodNotAllowed(w)
		}
	})))

	mux.Handle("/api/orders/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		cfg.Handlers.GetOrder(w, r)
	})))

	return withLogging(mux)
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
