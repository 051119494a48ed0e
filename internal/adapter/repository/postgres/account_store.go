package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/postgres/generated"
)

// AccountStore implements usecase.AccountStore on PostgreSQL.
//
// Balance changes are a single guarded UPDATE, so concurrent deltas on the
// same handle are serialized by the row lock and a delta that would take
// the balance below zero matches no row.
type AccountStore struct {
	queries *generated.Queries
	retrier *Retrier
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool, retrier *Retrier) *AccountStore {
	return newAccountStore(pool, retrier)
}

func newAccountStore(db generated.DBTX, retrier *Retrier) *AccountStore {
	return &AccountStore{
		queries: generated.New(db),
		retrier: retrier,
	}
}

// Create inserts a new account.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	err := s.retrier.Retry(ctx, func() error {
		return s.queries.CreateAccount(ctx, generated.CreateAccountParams{
			Handle:         account.Handle,
			OwnerID:        textOrNull(account.OwnerID),
			HolderName:     account.HolderName,
			BankName:       account.BankName,
			IfscCode:       account.IFSCCode,
			Balance:        decimalToNumeric(account.Balance),
			OpeningBalance: decimalToNumeric(account.OpeningBalance),
			CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
			UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
		})
	})

	return mapError(err)
}

// FindByHandle retrieves an account by its handle.
func (s *AccountStore) FindByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	row, err := s.queries.GetAccountByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// FindByOwner retrieves the account linked by a user.
func (s *AccountStore) FindByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	if ownerID == "" {
		return nil, domain.ErrAccountNotFound
	}

	row, err := s.queries.GetAccountByOwner(ctx, textOrNull(ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, mapError(err)
	}

	return rowToAccount(row), nil
}

// List returns accounts in creation order.
func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := s.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ApplyDelta adds delta to the balance of handle and records mutationID in
// the same statement.
func (s *AccountStore) ApplyDelta(ctx context.Context, handle string, delta decimal.Decimal, mutationID string) (*domain.Account, error) {
	var row generated.Account

	err := s.retrier.Retry(ctx, func() error {
		var err error
		row, err = s.queries.ApplyAccountDelta(ctx, generated.ApplyAccountDeltaParams{
			Delta:      decimalToNumeric(delta),
			UpdatedAt:  timeToPgTimestamptz(time.Now().UTC()),
			Handle:     handle,
			MutationID: mutationID,
		})
		return err
	})
	if err == nil {
		return rowToAccount(row), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err, constraintMutationsPkey) {
		return nil, mapError(err)
	}

	// No row changed: the mutation is already recorded, the handle is
	// unknown, or the guard rejected the delta.
	mutation, err := s.queries.GetBalanceMutation(ctx, mutationID)
	switch {
	case err == nil && mutation.Voided:
		return nil, domain.ErrMutationVoided
	case err == nil:
		return s.FindByHandle(ctx, handle)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, mapError(err)
	}

	exists, err := s.queries.AccountExists(ctx, handle)
	if err != nil {
		return nil, mapError(err)
	}

	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	return nil, domain.ErrInsufficientFunds
}

// ResolveMutation reports whether mutationID was applied. An unknown ID is
// recorded as voided first, so a statement still in flight for it fails on
// the primary key instead of landing later.
func (s *AccountStore) ResolveMutation(ctx context.Context, mutationID string) (bool, error) {
	voided, err := s.queries.VoidBalanceMutation(ctx, generated.VoidBalanceMutationParams{
		ID:        mutationID,
		CreatedAt: timeToPgTimestamptz(time.Now().UTC()),
	})
	if err != nil {
		return false, mapError(err)
	}
	if voided > 0 {
		return false, nil
	}

	mutation, err := s.queries.GetBalanceMutation(ctx, mutationID)
	if err != nil {
		return false, mapError(err)
	}

	return !mutation.Voided, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		Handle:         row.Handle,
		OwnerID:        row.OwnerID.String,
		HolderName:     row.HolderName,
		BankName:       row.BankName,
		IFSCCode:       row.IfscCode,
		Balance:        numericToDecimal(row.Balance),
		OpeningBalance: numericToDecimal(row.OpeningBalance),
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}
