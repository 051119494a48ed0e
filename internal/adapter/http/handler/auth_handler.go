package handler

import (
	"context"
	"net/http"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/adapter/http/middleware"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// AuthService defines the identity operations the handler needs.
type AuthService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error)
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a user. Only an authenticated operator may create
// another operator; everyone else becomes a customer.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := req.ToUseCaseInput()
	if input.Role != "" && input.Role != domain.RoleCustomer {
		caller, ok := middleware.GetUserFromContext(r.Context())
		if !ok || !caller.Role.CanOperate() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "only operators can grant the operator role")
			return
		}
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthFromResult(result))
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AuthFromResult(result))
}
