package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/adapter/http/middleware"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// AccountService defines the account operations the handler needs.
type AccountService interface {
	LinkAccount(ctx context.Context, input usecase.LinkAccountInput) (*domain.Account, error)
	GetMyAccount(ctx context.Context, ownerID string) (*domain.Account, error)
	ResolveHandle(ctx context.Context, handle string) (*domain.DirectoryEntry, error)
	ListDirectory(ctx context.Context, input usecase.ListDirectoryInput) ([]domain.DirectoryEntry, error)
}

// AccountHandler handles account HTTP requests.
type AccountHandler struct {
	accountService AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// callerID is the authenticated user, or empty when auth is disabled.
func callerID(r *http.Request) string {
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		return user.ID
	}
	return ""
}

// Link handles POST /accounts.
func (h *AccountHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	account, err := h.accountService.LinkAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Me handles GET /accounts/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.GetMyAccount(r.Context(), callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Resolve handles GET /accounts/{handle}.
func (h *AccountHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	entry, err := h.accountService.ResolveHandle(r.Context(), chi.URLParam(r, "handle"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// Directory handles GET /accounts.
func (h *AccountHandler) Directory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.accountService.ListDirectory(r.Context(), usecase.ListDirectoryInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DirectoryResponse{
		Accounts: entries,
		Limit:    limit,
		Offset:   offset,
	})
}
