package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the outcome of a transfer attempt.
type TransferStatus string

const (
	TransferStatusSuccess TransferStatus = "SUCCESS"
	TransferStatusFailed  TransferStatus = "FAILED"
	// TransferStatusReconciliationRequired flags a transfer whose compensation failed.
	// The books may be inconsistent until an operator reconciles it.
	TransferStatusReconciliationRequired TransferStatus = "RECONCILIATION_REQUIRED"
)

// Legs of a transfer. Each leg is one balance mutation in the account store.
const (
	LegDebit  = "debit"
	LegCredit = "credit"
	LegRefund = "refund"
)

// MutationID names one leg of a transfer. The store applies a mutation ID
// at most once.
func MutationID(transferID, leg string) string {
	return transferID + ":" + leg
}

// TransferRecord is the immutable log entry written at the end of a transfer attempt.
// Balances are authoritative; records are not.
type TransferRecord struct {
	ID             string
	SenderHandle   string
	ReceiverHandle string
	Amount         decimal.Decimal
	Status         TransferStatus
	Note           string
	FailureReason  string
	InitiatedBy    string
	CreatedAt      time.Time
}

// Validate checks the request-level invariants of a transfer.
func (t *TransferRecord) Validate() error {
	if t.SenderHandle == t.ReceiverHandle {
		return ErrSameAccount
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	return ValidateNote(t.Note)
}

// IsFlagged reports whether the record awaits manual reconciliation.
func (t *TransferRecord) IsFlagged() bool {
	return t.Status == TransferStatusReconciliationRequired
}
