package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
)

// MoneyRequestUseCase manages the request ledger.
// Requests are informational; they never move money or touch balances.
type MoneyRequestUseCase struct {
	txManager   TransactionManager
	requestRepo MoneyRequestRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewMoneyRequestUseCase creates a new MoneyRequestUseCase.
func NewMoneyRequestUseCase(
	txManager TransactionManager,
	requestRepo MoneyRequestRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *MoneyRequestUseCase {
	return &MoneyRequestUseCase{
		txManager:   txManager,
		requestRepo: requestRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		metrics:     m,
	}
}

// CreateRequestInput represents input for asking someone for money.
type CreateRequestInput struct {
	RequesterHandle string
	Payer           string
	Amount          decimal.Decimal
	Message         string
}

// CreateRequest appends an OPEN request to the ledger.
func (uc *MoneyRequestUseCase) CreateRequest(ctx context.Context, input CreateRequestInput) (*domain.MoneyRequest, error) {
	req := &domain.MoneyRequest{
		ID:              uc.idGen.Generate(),
		RequesterHandle: domain.NormalizeHandle(input.RequesterHandle),
		Payer:           strings.TrimSpace(input.Payer),
		Amount:          input.Amount,
		Message:         input.Message,
		Status:          domain.MoneyRequestStatusOpen,
		CreatedAt:       time.Now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.requestRepo.Create(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewMoneyRequestEvent(uc.idGen.Generate(), req)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.MoneyRequestCreated()
	return req, nil
}

// ListRequestsInput selects requests raised by one handle.
type ListRequestsInput struct {
	RequesterHandle string
	// Status filters by status; empty returns every status.
	Status domain.MoneyRequestStatus
}

// ListRequests returns the requester's requests in the order they were created.
func (uc *MoneyRequestUseCase) ListRequests(ctx context.Context, input ListRequestsInput) ([]*domain.MoneyRequest, error) {
	handle := domain.NormalizeHandle(input.RequesterHandle)
	if err := domain.ValidateHandle(handle); err != nil {
		return nil, err
	}

	if input.Status != "" && !input.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	return uc.requestRepo.ListByRequester(ctx, handle, input.Status)
}
