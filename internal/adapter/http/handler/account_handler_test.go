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

type accountServiceStub struct {
	linkFn      func(ctx context.Context, input usecase.LinkAccountInput) (*domain.Account, error)
	myFn        func(ctx context.Context, ownerID string) (*domain.Account, error)
	resolveFn   func(ctx context.Context, handle string) (*domain.DirectoryEntry, error)
	directoryFn func(ctx context.Context, input usecase.ListDirectoryInput) ([]domain.DirectoryEntry, error)
}

func (s *accountServiceStub) LinkAccount(ctx context.Context, input usecase.LinkAccountInput) (*domain.Account, error) {
	return s.linkFn(ctx, input)
}

func (s *accountServiceStub) GetMyAccount(ctx context.Context, ownerID string) (*domain.Account, error) {
	return s.myFn(ctx, ownerID)
}

func (s *accountServiceStub) ResolveHandle(ctx context.Context, handle string) (*domain.DirectoryEntry, error) {
	return s.resolveFn(ctx, handle)
}

func (s *accountServiceStub) ListDirectory(ctx context.Context, input usecase.ListDirectoryInput) ([]domain.DirectoryEntry, error) {
	return s.directoryFn(ctx, input)
}

func TestAccountHandler_Link(t *testing.T) {
	var captured usecase.LinkAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		linkFn: func(ctx context.Context, input usecase.LinkAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{
				Handle:         "alice@bank",
				OwnerID:        input.OwnerID,
				HolderName:     input.HolderName,
				Balance:        input.OpeningBalance,
				OpeningBalance: input.OpeningBalance,
			}, nil
		},
	})

	body, _ := json.Marshal(dto.LinkAccountRequest{HolderName: "Alice", BankName: "State Bank", OpeningBalance: "500"})
	req := withCaller(httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body)), "user-1", domain.RoleCustomer)
	rec := httptest.NewRecorder()

	handler.Link(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.OwnerID != "user-1" || !captured.OpeningBalance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.AccountResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Balance != "500.00" {
		t.Fatalf("expected balance 500.00, got %s", resp.Balance)
	}
}

func TestAccountHandler_Link_AlreadyLinked(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		linkFn: func(ctx context.Context, input usecase.LinkAccountInput) (*domain.Account, error) {
			return nil, domain.ErrAccountAlreadyLinked
		},
	})

	rec := httptest.NewRecorder()
	handler.Link(rec, httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"holder_name":"A","bank_name":"B"}`)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "ACCOUNT_ALREADY_LINKED" {
		t.Fatalf("unexpected code %s", resp.Code)
	}
}

func TestAccountHandler_Me(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		myFn: func(ctx context.Context, ownerID string) (*domain.Account, error) {
			if ownerID != "user-1" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{Handle: "alice@bank", Balance: decimal.NewFromInt(350)}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Me(rec, withCaller(httptest.NewRequest(http.MethodGet, "/accounts/me", nil), "user-1", domain.RoleCustomer))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Me(rec, httptest.NewRequest(http.MethodGet, "/accounts/me", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a caller, got %d", rec.Code)
	}
}

func TestAccountHandler_Resolve(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		resolveFn: func(ctx context.Context, handle string) (*domain.DirectoryEntry, error) {
			if handle != "bob@bank" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.DirectoryEntry{Handle: "bob@bank", HolderName: "Bob", BankName: "Axis"}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Resolve(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/accounts/bob@bank", nil), "handle", "bob@bank"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entry domain.DirectoryEntry
	_ = json.NewDecoder(rec.Body).Decode(&entry)
	if entry.HolderName != "Bob" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("balance")) {
		t.Fatal("directory entry must not expose the balance")
	}
}

func TestAccountHandler_Directory(t *testing.T) {
	var captured usecase.ListDirectoryInput
	handler := NewAccountHandler(&accountServiceStub{
		directoryFn: func(ctx context.Context, input usecase.ListDirectoryInput) ([]domain.DirectoryEntry, error) {
			captured = input
			return []domain.DirectoryEntry{{Handle: "a@bank"}, {Handle: "b@bank"}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Directory(rec, httptest.NewRequest(http.MethodGet, "/accounts?limit=2&offset=4", nil))

	if captured.Limit != 2 || captured.Offset != 4 {
		t.Fatalf("unexpected pagination %+v", captured)
	}
	var resp dto.DirectoryResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Accounts) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Accounts))
	}
}
