package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyRequestStatus is the lifecycle state of a money request.
type MoneyRequestStatus string

const (
	MoneyRequestStatusOpen      MoneyRequestStatus = "OPEN"
	MoneyRequestStatusFulfilled MoneyRequestStatus = "FULFILLED"
	MoneyRequestStatusCancelled MoneyRequestStatus = "CANCELLED"
)

var validMoneyRequestStatuses = map[MoneyRequestStatus]bool{
	MoneyRequestStatusOpen:      true,
	MoneyRequestStatusFulfilled: true,
	MoneyRequestStatusCancelled: true,
}

// IsValid checks if the status is known.
func (s MoneyRequestStatus) IsValid() bool {
	return validMoneyRequestStatuses[s]
}

// MoneyRequest is an ask for funds. It never moves money by itself.
type MoneyRequest struct {
	ID              string
	RequesterHandle string
	Payer           string
	Amount          decimal.Decimal
	Message         string
	Status          MoneyRequestStatus
	Seq             int64
	CreatedAt       time.Time
}

// Validate validates a new money request.
func (r *MoneyRequest) Validate() error {
	if err := ValidateHandle(r.RequesterHandle); err != nil {
		return err
	}

	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}

	return ValidateMessage(r.Message)
}
