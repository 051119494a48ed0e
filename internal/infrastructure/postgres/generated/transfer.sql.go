package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransfer = `-- name: CreateTransfer :exec
INSERT INTO transfers (id, sender_handle, receiver_handle, amount, status, note, failure_reason, initiated_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateTransferParams struct {
	ID             string             `json:"id"`
	SenderHandle   string             `json:"sender_handle"`
	ReceiverHandle string             `json:"receiver_handle"`
	Amount         pgtype.Numeric     `json:"amount"`
	Status         string             `json:"status"`
	Note           string             `json:"note"`
	FailureReason  string             `json:"failure_reason"`
	InitiatedBy    string             `json:"initiated_by"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransfer(ctx context.Context, arg CreateTransferParams) error {
	_, err := q.db.Exec(ctx, createTransfer,
		arg.ID,
		arg.SenderHandle,
		arg.ReceiverHandle,
		arg.Amount,
		arg.Status,
		arg.Note,
		arg.FailureReason,
		arg.InitiatedBy,
		arg.CreatedAt,
	)
	return err
}

const getTransferByID = `-- name: GetTransferByID :one
SELECT id, sender_handle, receiver_handle, amount, status, note, failure_reason, initiated_by, created_at
FROM transfers WHERE id = $1
`

func (q *Queries) GetTransferByID(ctx context.Context, id string) (Transfer, error) {
	row := q.db.QueryRow(ctx, getTransferByID, id)
	var i Transfer
	err := row.Scan(
		&i.ID,
		&i.SenderHandle,
		&i.ReceiverHandle,
		&i.Amount,
		&i.Status,
		&i.Note,
		&i.FailureReason,
		&i.InitiatedBy,
		&i.CreatedAt,
	)
	return i, err
}

const listTransfersByHandle = `-- name: ListTransfersByHandle :many
SELECT id, sender_handle, receiver_handle, amount, status, note, failure_reason, initiated_by, created_at
FROM transfers
WHERE sender_handle = $1 OR receiver_handle = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListTransfersByHandleParams struct {
	Handle string `json:"handle"`
	Lim    int32  `json:"lim"`
	Off    int32  `json:"off"`
}

func (q *Queries) ListTransfersByHandle(ctx context.Context, arg ListTransfersByHandleParams) ([]Transfer, error) {
	rows, err := q.db.Query(ctx, listTransfersByHandle, arg.Handle, arg.Lim, arg.Off)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transfer
	for rows.Next() {
		var i Transfer
		if err := rows.Scan(
			&i.ID,
			&i.SenderHandle,
			&i.ReceiverHandle,
			&i.Amount,
			&i.Status,
			&i.Note,
			&i.FailureReason,
			&i.InitiatedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTransfersByStatus = `-- name: ListTransfersByStatus :many
SELECT id, sender_handle, receiver_handle, amount, status, note, failure_reason, initiated_by, created_at
FROM transfers
WHERE status = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListTransfersByStatusParams struct {
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListTransfersByStatus(ctx context.Context, arg ListTransfersByStatusParams) ([]Transfer, error) {
	rows, err := q.db.Query(ctx, listTransfersByStatus, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transfer
	for rows.Next() {
		var i Transfer
		if err := rows.Scan(
			&i.ID,
			&i.SenderHandle,
			&i.ReceiverHandle,
			&i.Amount,
			&i.Status,
			&i.Note,
			&i.FailureReason,
			&i.InitiatedBy,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumTransfersByStatus = `-- name: SumTransfersByStatus :one
SELECT COALESCE(SUM(amount), 0)::numeric AS total_amount, COUNT(*) AS transfer_count
FROM transfers WHERE status = $1
`

type SumTransfersByStatusRow struct {
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	TransferCount int64          `json:"transfer_count"`
}

func (q *Queries) SumTransfersByStatus(ctx context.Context, status string) (SumTransfersByStatusRow, error) {
	row := q.db.QueryRow(ctx, sumTransfersByStatus, status)
	var i SumTransfersByStatusRow
	err := row.Scan(&i.TotalAmount, &i.TransferCount)
	return i, err
}
