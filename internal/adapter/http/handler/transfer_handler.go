package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/adapter/http/middleware"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// TransferService defines the transfer operations the handler needs.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	GetTransfer(ctx context.Context, id string) (*domain.TransferRecord, error)
	ListTransfersByHandle(ctx context.Context, input usecase.ListTransfersInput) ([]*domain.TransferRecord, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]*domain.TransferRecord, error)
}

// TransferHandler handles transfer HTTP requests.
type TransferHandler struct {
	transferService TransferService
	logger          zerolog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService TransferService, logger zerolog.Logger) *TransferHandler {
	return &TransferHandler{transferService: transferService, logger: logger}
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(callerID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.transferService.Transfer(r.Context(), input)
	if err != nil {
		if status, code := mapDomainError(err); status >= http.StatusInternalServerError {
			h.logger.Error().Err(err).Str("code", code).
				Str("sender", input.SenderHandle).
				Str("receiver", input.ReceiverHandle).
				Msg("transfer failed")
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}

// Get handles GET /transfers/{id}.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.transferService.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(record))
}

// ListByHandle handles GET /accounts/{handle}/transfers.
func (h *TransferHandler) ListByHandle(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	input := usecase.ListTransfersInput{
		Handle: chi.URLParam(r, "handle"),
		Limit:  limit,
		Offset: offset,
	}
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		input.ViewerID = user.ID
		input.ViewerIsOperator = user.Role.CanOperate()
	}

	records, err := h.transferService.ListTransfersByHandle(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransfersResponse{
		Transfers: dto.TransfersFromDomain(records),
		Limit:     limit,
		Offset:    offset,
	})
}

// Flagged handles GET /transfers/flagged.
func (h *TransferHandler) Flagged(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.transferService.ListFlagged(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransfersResponse{
		Transfers: dto.TransfersFromDomain(records),
		Limit:     limit,
		Offset:    offset,
	})
}
