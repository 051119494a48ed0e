package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
)

// AccountStore defines durable, keyed access to accounts.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByHandle(ctx context.Context, handle string) (*domain.Account, error)
	FindByOwner(ctx context.Context, ownerID string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	// ApplyDelta atomically adds delta to the balance of handle.
	// Concurrent calls on the same handle behave as if serialized, and the
	// balance never goes below zero (ErrInsufficientFunds).
	// A mutationID is applied at most once: repeating it returns the current
	// account without changing the balance, and a voided ID fails with
	// ErrMutationVoided.
	ApplyDelta(ctx context.Context, handle string, delta decimal.Decimal, mutationID string) (*domain.Account, error)
	// ResolveMutation reports whether mutationID was applied. A mutation
	// that was not applied is voided, so it can never apply afterwards.
	ResolveMutation(ctx context.Context, mutationID string) (bool, error)
}

// TransferRepository defines data access for transfer records.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, record *domain.TransferRecord) error
	GetByID(ctx context.Context, id string) (*domain.TransferRecord, error)
	ListByHandle(ctx context.Context, handle string, limit, offset int) ([]*domain.TransferRecord, error)
	ListByStatus(ctx context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.TransferRecord, error)
	// SumByStatus returns the total amount and count of records with the status.
	SumByStatus(ctx context.Context, status domain.TransferStatus) (decimal.Decimal, int64, error)
}

// MoneyRequestRepository defines data access for the request ledger.
type MoneyRequestRepository interface {
	Create(ctx context.Context, tx Transaction, req *domain.MoneyRequest) error
	ListByRequester(ctx context.Context, handle string, status domain.MoneyRequestStatus) ([]*domain.MoneyRequest, error)
}

// UserRepository defines data access for identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// Totals returns the sum of all balances and the sum of all opening balances.
	Totals(ctx context.Context) (totalBalance, totalOpening decimal.Decimal, accounts int64, err error)
}

// OutboxRepository defines data access for outbox events.
// Create runs outside any transaction when tx is nil.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete.
	Release(ctx context.Context, key string) error
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *domain.User) (string, time.Time, error)
}
