package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const accountExists = `-- name: AccountExists :one
SELECT EXISTS (SELECT 1 FROM accounts WHERE handle = $1)
`

func (q *Queries) AccountExists(ctx context.Context, handle string) (bool, error) {
	row := q.db.QueryRow(ctx, accountExists, handle)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const applyAccountDelta = `-- name: ApplyAccountDelta :one
WITH updated AS (
    UPDATE accounts
    SET balance = balance + $1::numeric, version = version + 1, updated_at = $2
    WHERE handle = $3 AND balance + $1::numeric >= 0
      AND NOT EXISTS (SELECT 1 FROM balance_mutations WHERE id = $4::text)
    RETURNING handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, seq, created_at, updated_at
), recorded AS (
    INSERT INTO balance_mutations (id, handle, delta, created_at)
    SELECT $4::text, handle, $1::numeric, $2 FROM updated
)
SELECT handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, seq, created_at, updated_at
FROM updated
`

type ApplyAccountDeltaParams struct {
	Delta      pgtype.Numeric     `json:"delta"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
	Handle     string             `json:"handle"`
	MutationID string             `json:"mutation_id"`
}

func (q *Queries) ApplyAccountDelta(ctx context.Context, arg ApplyAccountDeltaParams) (Account, error) {
	row := q.db.QueryRow(ctx, applyAccountDelta,
		arg.Delta,
		arg.UpdatedAt,
		arg.Handle,
		arg.MutationID,
	)
	var i Account
	err := row.Scan(
		&i.Handle,
		&i.OwnerID,
		&i.HolderName,
		&i.BankName,
		&i.IfscCode,
		&i.Balance,
		&i.OpeningBalance,
		&i.Version,
		&i.Seq,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
`

type CreateAccountParams struct {
	Handle         string             `json:"handle"`
	OwnerID        pgtype.Text        `json:"owner_id"`
	HolderName     string             `json:"holder_name"`
	BankName       string             `json:"bank_name"`
	IfscCode       string             `json:"ifsc_code"`
	Balance        pgtype.Numeric     `json:"balance"`
	OpeningBalance pgtype.Numeric     `json:"opening_balance"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.Handle,
		arg.OwnerID,
		arg.HolderName,
		arg.BankName,
		arg.IfscCode,
		arg.Balance,
		arg.OpeningBalance,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getBalanceMutation = `-- name: GetBalanceMutation :one
SELECT id, handle, delta, voided, created_at FROM balance_mutations WHERE id = $1
`

func (q *Queries) GetBalanceMutation(ctx context.Context, id string) (BalanceMutation, error) {
	row := q.db.QueryRow(ctx, getBalanceMutation, id)
	var i BalanceMutation
	err := row.Scan(
		&i.ID,
		&i.Handle,
		&i.Delta,
		&i.Voided,
		&i.CreatedAt,
	)
	return i, err
}

const getAccountByHandle = `-- name: GetAccountByHandle :one
SELECT handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, seq, created_at, updated_at
FROM accounts WHERE handle = $1
`

func (q *Queries) GetAccountByHandle(ctx context.Context, handle string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByHandle, handle)
	var i Account
	err := row.Scan(
		&i.Handle,
		&i.OwnerID,
		&i.HolderName,
		&i.BankName,
		&i.IfscCode,
		&i.Balance,
		&i.OpeningBalance,
		&i.Version,
		&i.Seq,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByOwner = `-- name: GetAccountByOwner :one
SELECT handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, seq, created_at, updated_at
FROM accounts WHERE owner_id = $1
`

func (q *Queries) GetAccountByOwner(ctx context.Context, ownerID pgtype.Text) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByOwner, ownerID)
	var i Account
	err := row.Scan(
		&i.Handle,
		&i.OwnerID,
		&i.HolderName,
		&i.BankName,
		&i.IfscCode,
		&i.Balance,
		&i.OpeningBalance,
		&i.Version,
		&i.Seq,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT handle, owner_id, holder_name, bank_name, ifsc_code, balance, opening_balance, version, seq, created_at, updated_at
FROM accounts ORDER BY seq LIMIT $1 OFFSET $2
`

type ListAccountsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListAccounts(ctx context.Context, arg ListAccountsParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.Handle,
			&i.OwnerID,
			&i.HolderName,
			&i.BankName,
			&i.IfscCode,
			&i.Balance,
			&i.OpeningBalance,
			&i.Version,
			&i.Seq,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const sumAccountBalances = `-- name: SumAccountBalances :one
SELECT
    COALESCE(SUM(balance), 0)::numeric AS total_balance,
    COALESCE(SUM(opening_balance), 0)::numeric AS total_opening_balance,
    COUNT(*) AS account_count
FROM accounts
`

type SumAccountBalancesRow struct {
	TotalBalance        pgtype.Numeric `json:"total_balance"`
	TotalOpeningBalance pgtype.Numeric `json:"total_opening_balance"`
	AccountCount        int64          `json:"account_count"`
}

func (q *Queries) SumAccountBalances(ctx context.Context) (SumAccountBalancesRow, error) {
	row := q.db.QueryRow(ctx, sumAccountBalances)
	var i SumAccountBalancesRow
	err := row.Scan(&i.TotalBalance, &i.TotalOpeningBalance, &i.AccountCount)
	return i, err
}

const voidBalanceMutation = `-- name: VoidBalanceMutation :execrows
INSERT INTO balance_mutations (id, voided, created_at)
VALUES ($1, TRUE, $2)
ON CONFLICT (id) DO NOTHING
`

type VoidBalanceMutationParams struct {
	ID        string             `json:"id"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) VoidBalanceMutation(ctx context.Context, arg VoidBalanceMutationParams) (int64, error) {
	result, err := q.db.Exec(ctx, voidBalanceMutation, arg.ID, arg.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
