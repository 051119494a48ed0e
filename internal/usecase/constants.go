package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultCreditTimeout bounds the credit step once the sender has been debited
	DefaultCreditTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DirectoryCacheTTL is how long resolved handles are cached
	DirectoryCacheTTL = 10 * time.Minute
)
