package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

type moneyRequestServiceStub struct {
	createFn func(ctx context.Context, input usecase.CreateRequestInput) (*domain.MoneyRequest, error)
	listFn   func(ctx context.Context, input usecase.ListRequestsInput) ([]*domain.MoneyRequest, error)
}

func (s *moneyRequestServiceStub) CreateRequest(ctx context.Context, input usecase.CreateRequestInput) (*domain.MoneyRequest, error) {
	return s.createFn(ctx, input)
}

func (s *moneyRequestServiceStub) ListRequests(ctx context.Context, input usecase.ListRequestsInput) ([]*domain.MoneyRequest, error) {
	return s.listFn(ctx, input)
}

func TestMoneyRequestHandler_Create(t *testing.T) {
	handler := NewMoneyRequestHandler(&moneyRequestServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateRequestInput) (*domain.MoneyRequest, error) {
			return &domain.MoneyRequest{
				ID:              "r-1",
				RequesterHandle: input.RequesterHandle,
				Payer:           input.Payer,
				Amount:          input.Amount,
				Status:          domain.MoneyRequestStatusOpen,
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/requests",
		bytes.NewBufferString(`{"requester_handle":"alice@bank","payer":"bob","amount":"25"}`)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp dto.MoneyRequestResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Status != "OPEN" || resp.Amount != "25.00" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestMoneyRequestHandler_ListStatusFilter(t *testing.T) {
	tests := []struct {
		query string
		want  domain.MoneyRequestStatus
	}{
		{"handle=alice@bank", domain.MoneyRequestStatusOpen},
		{"handle=alice@bank&status=fulfilled", domain.MoneyRequestStatusFulfilled},
		{"handle=alice@bank&status=all", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var captured usecase.ListRequestsInput
			handler := NewMoneyRequestHandler(&moneyRequestServiceStub{
				listFn: func(ctx context.Context, input usecase.ListRequestsInput) ([]*domain.MoneyRequest, error) {
					captured = input
					return []*domain.MoneyRequest{{ID: "r-1", Amount: decimal.NewFromInt(1), Status: domain.MoneyRequestStatusOpen}}, nil
				},
			})

			rec := httptest.NewRecorder()
			handler.List(rec, httptest.NewRequest(http.MethodGet, "/requests?"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if captured.Status != tt.want || captured.RequesterHandle != "alice@bank" {
				t.Fatalf("unexpected input %+v", captured)
			}
		})
	}
}

func TestMoneyRequestHandler_ListInvalidStatus(t *testing.T) {
	handler := NewMoneyRequestHandler(&moneyRequestServiceStub{
		listFn: func(ctx context.Context, input usecase.ListRequestsInput) ([]*domain.MoneyRequest, error) {
			return nil, domain.ErrInvalidStatus
		},
	})

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/requests?handle=a@bank&status=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
