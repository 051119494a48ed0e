package dto

import (
	"time"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// AuthFromResult converts an auth result to response.
func AuthFromResult(r *usecase.AuthResult) *AuthResponse {
	return &AuthResponse{
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
		User: UserResponse{
			ID:        r.User.ID,
			Email:     r.User.Email,
			Name:      r.User.Name,
			Role:      string(r.User.Role),
			CreatedAt: r.User.CreatedAt,
		},
	}
}

// AccountResponse is an account as seen by its owner.
type AccountResponse struct {
	Handle         string    `json:"handle"`
	HolderName     string    `json:"holder_name"`
	BankName       string    `json:"bank_name"`
	IFSCCode       string    `json:"ifsc_code,omitempty"`
	Balance        string    `json:"balance"`
	OpeningBalance string    `json:"opening_balance"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Handle:         a.Handle,
		HolderName:     a.HolderName,
		BankName:       a.BankName,
		IFSCCode:       a.IFSCCode,
		Balance:        a.Balance.StringFixed(domain.AmountScale),
		OpeningBalance: a.OpeningBalance.StringFixed(domain.AmountScale),
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// DirectoryResponse lists public account entries.
type DirectoryResponse struct {
	Accounts []domain.DirectoryEntry `json:"accounts"`
	Limit    int                     `json:"limit"`
	Offset   int                     `json:"offset"`
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID             string    `json:"id"`
	SenderHandle   string    `json:"sender_handle"`
	ReceiverHandle string    `json:"receiver_handle"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	Note           string    `json:"note,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Warnings       []string  `json:"warnings,omitempty"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.TransferRecord) *TransferResponse {
	return &TransferResponse{
		ID:             t.ID,
		SenderHandle:   t.SenderHandle,
		ReceiverHandle: t.ReceiverHandle,
		Amount:         t.Amount.StringFixed(domain.AmountScale),
		Status:         string(t.Status),
		Note:           t.Note,
		FailureReason:  t.FailureReason,
		CreatedAt:      t.CreatedAt,
	}
}

// TransferFromResult converts a completed transfer, carrying its warnings.
func TransferFromResult(r *usecase.TransferResult) *TransferResponse {
	resp := TransferFromDomain(r.Record)
	resp.Warnings = r.Warnings
	return resp
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(records []*domain.TransferRecord) []*TransferResponse {
	result := make([]*TransferResponse, len(records))
	for i, t := range records {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// ListTransfersResponse represents a page of transfers.
type ListTransfersResponse struct {
	Transfers []*TransferResponse `json:"transfers"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// MoneyRequestResponse represents a money request in API responses.
type MoneyRequestResponse struct {
	ID              string    `json:"id"`
	RequesterHandle string    `json:"requester_handle"`
	Payer           string    `json:"payer"`
	Amount          string    `json:"amount"`
	Message         string    `json:"message,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// MoneyRequestFromDomain converts a domain money request to response.
func MoneyRequestFromDomain(r *domain.MoneyRequest) *MoneyRequestResponse {
	return &MoneyRequestResponse{
		ID:              r.ID,
		RequesterHandle: r.RequesterHandle,
		Payer:           r.Payer,
		Amount:          r.Amount.StringFixed(domain.AmountScale),
		Message:         r.Message,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
	}
}

// ListMoneyRequestsResponse lists requests in creation order.
type ListMoneyRequestsResponse struct {
	Requests []*MoneyRequestResponse `json:"requests"`
}

// MoneyRequestsFromDomain converts domain money requests to a list response.
func MoneyRequestsFromDomain(reqs []*domain.MoneyRequest) *ListMoneyRequestsResponse {
	out := make([]*MoneyRequestResponse, len(reqs))
	for i, r := range reqs {
		out[i] = MoneyRequestFromDomain(r)
	}
	return &ListMoneyRequestsResponse{Requests: out}
}

// ConsistencyResponse reports the ledger conservation check.
type ConsistencyResponse struct {
	Consistent          bool      `json:"consistent"`
	Explained           bool      `json:"explained"`
	TotalBalance        string    `json:"total_balance"`
	TotalOpeningBalance string    `json:"total_opening_balance"`
	Drift               string    `json:"drift"`
	Accounts            int64     `json:"accounts"`
	FlaggedTransfers    int64     `json:"flagged_transfers"`
	FlaggedAmount       string    `json:"flagged_amount"`
	CheckedAt           time.Time `json:"checked_at"`
}

// ConsistencyFromReport converts a consistency report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	return &ConsistencyResponse{
		Consistent:          r.Consistent,
		Explained:           r.Explained,
		TotalBalance:        r.TotalBalance.StringFixed(domain.AmountScale),
		TotalOpeningBalance: r.TotalOpeningBalance.StringFixed(domain.AmountScale),
		Drift:               r.Drift.StringFixed(domain.AmountScale),
		Accounts:            r.Accounts,
		FlaggedTransfers:    r.FlaggedTransfers,
		FlaggedAmount:       r.FlaggedAmount.StringFixed(domain.AmountScale),
		CheckedAt:           r.CheckedAt,
	}
}
