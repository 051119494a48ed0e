package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/postgres/generated"
	"github.com/iho/upiledger/internal/usecase"
)

// MoneyRequestRepository implements usecase.MoneyRequestRepository.
type MoneyRequestRepository struct {
	queries *generated.Queries
}

// NewMoneyRequestRepository creates a new MoneyRequestRepository.
func NewMoneyRequestRepository(pool *pgxpool.Pool) *MoneyRequestRepository {
	return newMoneyRequestRepository(pool)
}

func newMoneyRequestRepository(db generated.DBTX) *MoneyRequestRepository {
	return &MoneyRequestRepository{queries: generated.New(db)}
}

// Create appends a request and stores its sequence number on req.
func (r *MoneyRequestRepository) Create(ctx context.Context, tx usecase.Transaction, req *domain.MoneyRequest) error {
	seq, err := queriesFor(r.queries, tx).CreateMoneyRequest(ctx, generated.CreateMoneyRequestParams{
		ID:              req.ID,
		RequesterHandle: req.RequesterHandle,
		Payer:           req.Payer,
		Amount:          decimalToNumeric(req.Amount),
		Message:         req.Message,
		Status:          string(req.Status),
		CreatedAt:       timeToPgTimestamptz(req.CreatedAt),
	})
	if err != nil {
		return mapError(err)
	}

	req.Seq = seq

	return nil
}

// ListByRequester lists requests in insertion order. An empty status
// matches every request.
func (r *MoneyRequestRepository) ListByRequester(ctx context.Context, handle string, status domain.MoneyRequestStatus) ([]*domain.MoneyRequest, error) {
	var (
		rows []generated.MoneyRequest
		err  error
	)

	if status == "" {
		rows, err = r.queries.ListMoneyRequestsByRequester(ctx, handle)
	} else {
		rows, err = r.queries.ListMoneyRequestsByRequesterAndStatus(ctx, generated.ListMoneyRequestsByRequesterAndStatusParams{
			RequesterHandle: handle,
			Status:          string(status),
		})
	}
	if err != nil {
		return nil, mapError(err)
	}

	requests := make([]*domain.MoneyRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, &domain.MoneyRequest{
			ID:              row.ID,
			RequesterHandle: row.RequesterHandle,
			Payer:           row.Payer,
			Amount:          numericToDecimal(row.Amount),
			Message:         row.Message,
			Status:          domain.MoneyRequestStatus(row.Status),
			Seq:             row.Seq,
			CreatedAt:       row.CreatedAt.Time,
		})
	}

	return requests, nil
}
