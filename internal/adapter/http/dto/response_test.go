package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

func TestTransferFromResultFormatsAmountAndWarnings(t *testing.T) {
	resp := TransferFromResult(&usecase.TransferResult{
		Record: &domain.TransferRecord{
			ID:             "t-1",
			SenderHandle:   "alice@bank",
			ReceiverHandle: "bob@bank",
			Amount:         decimal.NewFromInt(150),
			Status:         domain.TransferStatusSuccess,
			CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Warnings: []string{usecase.HistoryWarning},
	})

	assert.Equal(t, "150.00", resp.Amount)
	assert.Equal(t, "SUCCESS", resp.Status)
	assert.Equal(t, []string{usecase.HistoryWarning}, resp.Warnings)
}

func TestAccountResponseHidesOwner(t *testing.T) {
	resp := AccountFromDomain(&domain.Account{
		Handle:         "alice@bank",
		OwnerID:        "user-1",
		HolderName:     "Alice",
		Balance:        decimal.RequireFromString("10.5"),
		OpeningBalance: decimal.NewFromInt(20),
	})

	body, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.NotContains(t, string(body), "user-1")
	assert.Contains(t, string(body), `"balance":"10.50"`)
	assert.Contains(t, string(body), `"opening_balance":"20.00"`)
}

func TestMoneyRequestsFromDomainKeepsOrder(t *testing.T) {
	resp := MoneyRequestsFromDomain([]*domain.MoneyRequest{
		{ID: "r-1", Amount: decimal.NewFromInt(1), Status: domain.MoneyRequestStatusOpen},
		{ID: "r-2", Amount: decimal.NewFromInt(2), Status: domain.MoneyRequestStatusOpen},
	})

	require.Len(t, resp.Requests, 2)
	assert.Equal(t, "r-1", resp.Requests[0].ID)
	assert.Equal(t, "r-2", resp.Requests[1].ID)

	empty := MoneyRequestsFromDomain(nil)
	body, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{"requests":[]}`, string(body))
}

func TestConsistencyFromReport(t *testing.T) {
	resp := ConsistencyFromReport(&usecase.ConsistencyReport{
		TotalBalance:        decimal.NewFromInt(900),
		TotalOpeningBalance: decimal.NewFromInt(1000),
		Drift:               decimal.NewFromInt(-100),
		FlaggedAmount:       decimal.NewFromInt(100),
		FlaggedTransfers:    1,
		Explained:           true,
	})

	assert.Equal(t, "-100.00", resp.Drift)
	assert.False(t, resp.Consistent)
	assert.True(t, resp.Explained)
}
