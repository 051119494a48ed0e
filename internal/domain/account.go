package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents one user's capacity to send and receive funds.
// It is addressed by its payment handle.
type Account struct {
	Handle         string
	OwnerID        string
	HolderName     string
	BankName       string
	IFSCCode       string
	Balance        decimal.Decimal
	OpeningBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanApply reports whether delta can be applied without taking the balance below zero.
func (a *Account) CanApply(delta decimal.Decimal) bool {
	return !a.Balance.Add(delta).IsNegative()
}

// ApplyDelta returns the balance after applying delta, or ErrInsufficientFunds.
func (a *Account) ApplyDelta(delta decimal.Decimal) (decimal.Decimal, error) {
	if !a.CanApply(delta) {
		return a.Balance, ErrInsufficientFunds
	}
	return a.Balance.Add(delta), nil
}

// Owns reports whether the given identity owns the account.
func (a *Account) Owns(userID string) bool {
	return userID != "" && a.OwnerID == userID
}

// DirectoryEntry is the public, immutable view of an account used to
// resolve a handle before paying it.
type DirectoryEntry struct {
	Handle     string `json:"handle"`
	HolderName string `json:"holder_name"`
	BankName   string `json:"bank_name"`
	IFSCCode   string `json:"ifsc_code,omitempty"`
}

// DirectoryEntry returns the public view of the account.
func (a *Account) DirectoryEntry() DirectoryEntry {
	return DirectoryEntry{
		Handle:     a.Handle,
		HolderName: a.HolderName,
		BankName:   a.BankName,
		IFSCCode:   a.IFSCCode,
	}
}
