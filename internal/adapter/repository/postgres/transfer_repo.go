package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/postgres/generated"
	"github.com/iho/upiledger/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	queries *generated.Queries
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return newTransferRepository(pool)
}

func newTransferRepository(db generated.DBTX) *TransferRepository {
	return &TransferRepository{queries: generated.New(db)}
}

// Create records a transfer, inside tx when one is given.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, record *domain.TransferRecord) error {
	err := queriesFor(r.queries, tx).CreateTransfer(ctx, generated.CreateTransferParams{
		ID:             record.ID,
		SenderHandle:   record.SenderHandle,
		ReceiverHandle: record.ReceiverHandle,
		Amount:         decimalToNumeric(record.Amount),
		Status:         string(record.Status),
		Note:           record.Note,
		FailureReason:  record.FailureReason,
		InitiatedBy:    record.InitiatedBy,
		CreatedAt:      timeToPgTimestamptz(record.CreatedAt),
	})

	return mapError(err)
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.TransferRecord, error) {
	row, err := r.queries.GetTransferByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}

		return nil, mapError(err)
	}

	return rowToTransfer(row), nil
}

// ListByHandle lists transfers where handle is either party, newest first.
func (r *TransferRepository) ListByHandle(ctx context.Context, handle string, limit, offset int) ([]*domain.TransferRecord, error) {
	rows, err := r.queries.ListTransfersByHandle(ctx, generated.ListTransfersByHandleParams{
		Handle: handle,
		Lim:    int32(limit),
		Off:    int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToTransfers(rows), nil
}

// ListByStatus lists transfers with the given status, newest first.
func (r *TransferRepository) ListByStatus(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.TransferRecord, error) {
	rows, err := r.queries.ListTransfersByStatus(ctx, generated.ListTransfersByStatusParams{
		Status: string(status),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return rowsToTransfers(rows), nil
}

// SumByStatus returns the total amount and count of transfers with the status.
func (r *TransferRepository) SumByStatus(ctx context.Context, status domain.TransferStatus) (decimal.Decimal, int64, error) {
	row, err := r.queries.SumTransfersByStatus(ctx, string(status))
	if err != nil {
		return decimal.Zero, 0, mapError(err)
	}

	return numericToDecimal(row.TotalAmount), row.TransferCount, nil
}

func rowsToTransfers(rows []generated.Transfer) []*domain.TransferRecord {
	records := make([]*domain.TransferRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToTransfer(row))
	}

	return records
}

func rowToTransfer(row generated.Transfer) *domain.TransferRecord {
	return &domain.TransferRecord{
		ID:             row.ID,
		SenderHandle:   row.SenderHandle,
		ReceiverHandle: row.ReceiverHandle,
		Amount:         numericToDecimal(row.Amount),
		Status:         domain.TransferStatus(row.Status),
		Note:           row.Note,
		FailureReason:  row.FailureReason,
		InitiatedBy:    row.InitiatedBy,
		CreatedAt:      row.CreatedAt.Time,
	}
}
