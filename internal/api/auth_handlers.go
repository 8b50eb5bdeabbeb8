package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/shopease-backend/internal/account"
)

// AuthHandlers handles signup, login and logout
type AuthHandlers struct {
	accountSvc *account.Service
}

func NewAuthHandlers(accountSvc *account.Service) *AuthHandlers {
	return &AuthHandlers{accountSvc: accountSvc}
}

// SignupRequest is the registration payload
type SignupRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token plus the user fields the
// storefront shows
type LoginResponse struct {
	Token     string `json:"token"`
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		respondJSONError(w, "email is required", http.StatusBadRequest)
		return
	}

	user, err := h.accountSvc.Signup(r.Context(), req.FirstName, req.LastName, req.Email, req.Password, req.PhoneNumber)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.accountSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
	})
}

// Logout is a client-side token discard; the server only acknowledges
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
