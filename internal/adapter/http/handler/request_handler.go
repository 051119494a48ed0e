package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// MoneyRequestService defines the money request operations the handler needs.
type MoneyRequestService interface {
	CreateRequest(ctx context.Context, input usecase.CreateRequestInput) (*domain.MoneyRequest, error)
	ListRequests(ctx context.Context, input usecase.ListRequestsInput) ([]*domain.MoneyRequest, error)
}

// MoneyRequestHandler handles money request HTTP requests.
type MoneyRequestHandler struct {
	requestService MoneyRequestService
}

// NewMoneyRequestHandler creates a new MoneyRequestHandler.
func NewMoneyRequestHandler(requestService MoneyRequestService) *MoneyRequestHandler {
	return &MoneyRequestHandler{requestService: requestService}
}

// Create handles POST /requests.
func (h *MoneyRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMoneyRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.requestService.CreateRequest(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MoneyRequestFromDomain(created))
}

// List handles GET /requests?handle=&status=. Status defaults to OPEN;
// status=ALL returns every status.
func (h *MoneyRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.MoneyRequestStatus(strings.ToUpper(r.URL.Query().Get("status")))
	switch status {
	case "":
		status = domain.MoneyRequestStatusOpen
	case "ALL":
		status = ""
	}

	reqs, err := h.requestService.ListRequests(r.Context(), usecase.ListRequestsInput{
		RequesterHandle: r.URL.Query().Get("handle"),
		Status:          status,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MoneyRequestsFromDomain(reqs))
}
