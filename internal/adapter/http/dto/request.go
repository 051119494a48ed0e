package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// Amounts travel as decimal strings ("150.00") so no float ever touches money.
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal amount", domain.ErrInvalidAmount, s)
	}
	return d, nil
}

// RegisterRequest represents a request to create a user.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RegisterRequest) ToUseCaseInput() usecase.RegisterInput {
	return usecase.RegisterInput{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		Role:     domain.Role(r.Role),
	}
}

// LoginRequest represents a request to sign in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LinkAccountRequest represents a request to link a bank account.
type LinkAccountRequest struct {
	Handle         string `json:"handle,omitempty"`
	HolderName     string `json:"holder_name"`
	BankName       string `json:"bank_name"`
	IFSCCode       string `json:"ifsc_code,omitempty"`
	OpeningBalance string `json:"opening_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *LinkAccountRequest) ToUseCaseInput(ownerID string) (usecase.LinkAccountInput, error) {
	opening := decimal.Zero
	if strings.TrimSpace(r.OpeningBalance) != "" {
		var err error
		if opening, err = parseAmount(r.OpeningBalance); err != nil {
			return usecase.LinkAccountInput{}, err
		}
	}

	return usecase.LinkAccountInput{
		OwnerID:        ownerID,
		Handle:         r.Handle,
		HolderName:     r.HolderName,
		BankName:       r.BankName,
		IFSCCode:       r.IFSCCode,
		OpeningBalance: opening,
	}, nil
}

// CreateTransferRequest represents a request to move money between handles.
type CreateTransferRequest struct {
	SenderHandle   string `json:"sender_handle"`
	ReceiverHandle string `json:"receiver_handle"`
	Amount         string `json:"amount"`
	Note           string `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput(initiatorID string) (usecase.TransferInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		SenderHandle:   r.SenderHandle,
		ReceiverHandle: r.ReceiverHandle,
		Amount:         amount,
		Note:           r.Note,
		InitiatorID:    initiatorID,
	}, nil
}

// CreateMoneyRequestRequest represents a request to ask someone for money.
type CreateMoneyRequestRequest struct {
	RequesterHandle string `json:"requester_handle"`
	Payer           string `json:"payer"`
	Amount          string `json:"amount"`
	Message         string `json:"message,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateMoneyRequestRequest) ToUseCaseInput() (usecase.CreateRequestInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.CreateRequestInput{}, err
	}

	return usecase.CreateRequestInput{
		RequesterHandle: r.RequesterHandle,
		Payer:           r.Payer,
		Amount:          amount,
		Message:         r.Message,
	}, nil
}
