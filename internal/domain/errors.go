package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountAlreadyLinked = errors.New("owner already has a linked account")
	ErrHandleTaken          = errors.New("handle is already taken")

	// Transfer errors
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrTransferNotFound       = errors.New("transfer not found")
	ErrReconciliationRequired = errors.New("transfer requires manual reconciliation")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMutationVoided   = errors.New("balance mutation was voided and can no longer apply")

	// Request errors
	ErrIdempotencyConflict   = errors.New("idempotency key reused with a different request")
	ErrIdempotencyInProgress = errors.New("request with this idempotency key is still in progress")
)

// Transfer sides.
const (
	SideSender   = "sender"
	SideReceiver = "receiver"
)

// UnknownAccountError reports which side of a transfer could not be resolved.
type UnknownAccountError struct {
	Side   string
	Handle string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown %s account %q", e.Side, e.Handle)
}

// Is makes errors.Is(err, ErrUnknownAccount) match.
func (e *UnknownAccountError) Is(target error) bool {
	return target == ErrUnknownAccount
}

// ReconciliationError is returned when a transfer was left in a state the
// engine cannot settle on its own: a debit that could not be compensated,
// or a leg whose outcome the store could not report.
// It must reach an operator and is never retried automatically.
type ReconciliationError struct {
	TransferID     string
	SenderHandle   string
	ReceiverHandle string
	Amount         decimal.Decimal
	// Leg is the mutation left unsettled. Empty means LegRefund.
	Leg           string
	DebitErr      error
	CreditErr     error
	CompensateErr error
	// ResolveErr is set when the store could not say whether Leg was applied.
	ResolveErr error
}

func (e *ReconciliationError) Error() string {
	amount := e.Amount.StringFixed(AmountScale)

	switch e.Leg {
	case LegDebit:
		return fmt.Sprintf(
			"transfer %s: debit of %s from %s could not be confirmed (%v; lookup: %v)",
			e.TransferID, amount, e.SenderHandle, e.DebitErr, e.ResolveErr,
		)
	case LegCredit:
		return fmt.Sprintf(
			"transfer %s: credit of %s to %s could not be confirmed (%v; lookup: %v)",
			e.TransferID, amount, e.ReceiverHandle, e.CreditErr, e.ResolveErr,
		)
	default:
		return fmt.Sprintf(
			"transfer %s: sender %s debited %s but neither credit (%v) nor compensation (%v) succeeded",
			e.TransferID, e.SenderHandle, amount, e.CreditErr, e.CompensateErr,
		)
	}
}

// Is makes errors.Is(err, ErrReconciliationRequired) match.
func (e *ReconciliationError) Is(target error) bool {
	return target == ErrReconciliationRequired
}

// StoreUnavailable wraps an I/O failure of the backing store.
func StoreUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
