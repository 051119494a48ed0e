package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMoneyRequest = `-- name: CreateMoneyRequest :one
INSERT INTO money_requests (id, requester_handle, payer, amount, message, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING seq
`

type CreateMoneyRequestParams struct {
	ID              string             `json:"id"`
	RequesterHandle string             `json:"requester_handle"`
	Payer           string             `json:"payer"`
	Amount          pgtype.Numeric     `json:"amount"`
	Message         string             `json:"message"`
	Status          string             `json:"status"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateMoneyRequest(ctx context.Context, arg CreateMoneyRequestParams) (int64, error) {
	row := q.db.QueryRow(ctx, createMoneyRequest,
		arg.ID,
		arg.RequesterHandle,
		arg.Payer,
		arg.Amount,
		arg.Message,
		arg.Status,
		arg.CreatedAt,
	)
	var seq int64
	err := row.Scan(&seq)
	return seq, err
}

const listMoneyRequestsByRequester = `-- name: ListMoneyRequestsByRequester :many
SELECT seq, id, requester_handle, payer, amount, message, status, created_at
FROM money_requests
WHERE requester_handle = $1
ORDER BY seq
`

func (q *Queries) ListMoneyRequestsByRequester(ctx context.Context, requesterHandle string) ([]MoneyRequest, error) {
	rows, err := q.db.Query(ctx, listMoneyRequestsByRequester, requesterHandle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MoneyRequest
	for rows.Next() {
		var i MoneyRequest
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.RequesterHandle,
			&i.Payer,
			&i.Amount,
			&i.Message,
			&i.Status,
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

const listMoneyRequestsByRequesterAndStatus = `-- name: ListMoneyRequestsByRequesterAndStatus :many
SELECT seq, id, requester_handle, payer, amount, message, status, created_at
FROM money_requests
WHERE requester_handle = $1 AND status = $2
ORDER BY seq
`

type ListMoneyRequestsByRequesterAndStatusParams struct {
	RequesterHandle string `json:"requester_handle"`
	Status          string `json:"status"`
}

func (q *Queries) ListMoneyRequestsByRequesterAndStatus(ctx context.Context, arg ListMoneyRequestsByRequesterAndStatusParams) ([]MoneyRequest, error) {
	rows, err := q.db.Query(ctx, listMoneyRequestsByRequesterAndStatus, arg.RequesterHandle, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MoneyRequest
	for rows.Next() {
		var i MoneyRequest
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.RequesterHandle,
			&i.Payer,
			&i.Amount,
			&i.Message,
			&i.Status,
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
