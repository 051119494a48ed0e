package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

type authServiceStub struct {
	registerFn func(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error)
	loginFn    func(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error)
}

func (s *authServiceStub) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error) {
	return s.registerFn(ctx, input)
}

func (s *authServiceStub) Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error) {
	return s.loginFn(ctx, input)
}

func authResult(role domain.Role) *usecase.AuthResult {
	return &usecase.AuthResult{
		User:      &domain.User{ID: "u-1", Email: "a@example.com", Role: role},
		Token:     "token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestAuthHandler_Register(t *testing.T) {
	stub := &authServiceStub{
		registerFn: func(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthResult, error) {
			role := input.Role
			if role == "" {
				role = domain.RoleCustomer
			}
			return authResult(role), nil
		},
	}
	handler := NewAuthHandler(stub)

	tests := []struct {
		name       string
		role       string
		caller     domain.Role
		wantStatus int
	}{
		{"customer by default", "", "", http.StatusCreated},
		{"operator self signup refused", "operator", "", http.StatusForbidden},
		{"customer cannot grant operator", "operator", domain.RoleCustomer, http.StatusForbidden},
		{"operator may grant operator", "operator", domain.RoleOperator, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(dto.RegisterRequest{Email: "a@example.com", Name: "A", Password: "secret123", Role: tt.role})
			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
			if tt.caller != "" {
				req = withCaller(req, "caller", tt.caller)
			}
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	handler := NewAuthHandler(&authServiceStub{
		loginFn: func(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error) {
			if input.Password != "secret123" {
				return nil, domain.ErrInvalidCredentials
			}
			return authResult(domain.RoleCustomer), nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@example.com","password":"secret123"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp dto.AuthResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Token != "token" || resp.User.ID != "u-1" {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"a@example.com","password":"nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
