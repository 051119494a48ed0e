package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/upiledger/internal/adapter/http/dto"
	"github.com/iho/upiledger/internal/adapter/http/handler"
	"github.com/iho/upiledger/internal/adapter/repository/memory"
	"github.com/iho/upiledger/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/upiledger/internal/adapter/repository/redis"
	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/auth"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
	"github.com/iho/upiledger/internal/usecase"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router   http.Handler
	registry *prometheus.Registry
	jwt      *auth.JWTManager
}

// newTestServer wires the real use cases over the memory backend.
func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := zerolog.Nop()
	ids := postgres.NewULIDGenerator()

	accounts := memory.NewAccountStore()
	transfers := memory.NewTransferRepository()
	outbox := memory.NewOutboxRepository()
	txManager := memory.NewTxManager()
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)

	cfg := usecase.DefaultTransferConfig()
	cfg.CompensationMaxElapsed = 50 * time.Millisecond

	authUC := usecase.NewAuthUseCase(memory.NewUserRepository(), auth.NewBcryptHasher(bcrypt.MinCost), jwtManager, ids, m)
	accountUC := usecase.NewAccountUseCase(accounts, outbox, redisrepo.NewCache(rdb), ids, m, logger, time.Minute)
	transferUC := usecase.NewTransferUseCase(txManager, accounts, transfers, outbox, ids, m, logger, cfg)
	requestUC := usecase.NewMoneyRequestUseCase(txManager, memory.NewMoneyRequestRepository(), outbox, ids, m)
	ledgerUC := usecase.NewLedgerUseCase(memory.NewLedgerRepository(accounts), transfers)

	rc := RouterConfig{
		AuthHandler:         handler.NewAuthHandler(authUC),
		AccountHandler:      handler.NewAccountHandler(accountUC),
		TransferHandler:     handler.NewTransferHandler(transferUC, logger),
		MoneyRequestHandler: handler.NewMoneyRequestHandler(requestUC),
		LedgerHandler:       handler.NewLedgerHandler(ledgerUC),
		HealthHandler:       handler.NewHealthHandler(nil),
		IdempotencyStore:    redisrepo.NewIdempotencyStore(rdb),
		IdempotencyTTL:      time.Hour,
		Logger:              logger,
		Metrics:             m,
		Gatherer:            reg,
	}
	if authEnabled {
		rc.TokenVerifier = jwtManager
	}

	return &testServer{router: NewRouter(rc), registry: reg, jwt: jwtManager}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", dto.RegisterRequest{Email: email, Name: "User", Password: "secret123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var resp dto.AuthResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	return resp.Token
}

func (s *testServer) link(t *testing.T, token, handle, opening string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/accounts", token, dto.LinkAccountRequest{
		Handle: handle, HolderName: handle, BankName: "State Bank", OpeningBalance: opening,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("link %s: %d %s", handle, rec.Code, rec.Body.String())
	}
}

func (s *testServer) balance(t *testing.T, token string) string {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/accounts/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	var resp dto.AccountResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	return resp.Balance
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /ready to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_TransferMovesExactAmount(t *testing.T) {
	s := newTestServer(t, true)

	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	s.link(t, alice, "alice@bank", "500")
	s.link(t, bob, "bob@bank", "200")

	rec := s.do(t, http.MethodPost, "/api/v1/transfers", alice, dto.CreateTransferRequest{
		SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "150",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	if got := s.balance(t, alice); got != "350.00" {
		t.Fatalf("alice balance = %s, want 350.00", got)
	}
	if got := s.balance(t, bob); got != "350.00" {
		t.Fatalf("bob balance = %s, want 350.00", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/accounts/alice@bank/transfers", alice, nil)
	var history dto.ListTransfersResponse
	_ = json.NewDecoder(rec.Body).Decode(&history)
	if len(history.Transfers) != 1 || history.Transfers[0].Status != "SUCCESS" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestNewRouter_TransferRejections(t *testing.T) {
	s := newTestServer(t, true)

	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	s.link(t, alice, "alice@bank", "100")
	s.link(t, bob, "bob@bank", "0")

	tests := []struct {
		name     string
		token    string
		req      dto.CreateTransferRequest
		want     int
		wantCode string
	}{
		{"overdraft", alice, dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "100.01"}, http.StatusConflict, "INSUFFICIENT_FUNDS"},
		{"self transfer", alice, dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "alice@bank", Amount: "1"}, http.StatusBadRequest, "SAME_ACCOUNT"},
		{"zero amount", alice, dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "0"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown receiver", alice, dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "nobody@bank", Amount: "1"}, http.StatusNotFound, "UNKNOWN_ACCOUNT"},
		{"not the owner", bob, dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "1"}, http.StatusForbidden, "FORBIDDEN"},
		{"no token", "", dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "1"}, http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/v1/transfers", tt.token, tt.req)
			if rec.Code != tt.want || !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Fatalf("expected %d %s, got %d %s", tt.want, tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	if got := s.balance(t, alice); got != "100.00" {
		t.Fatalf("rejected transfers moved money: alice = %s", got)
	}
}

func TestNewRouter_IdempotentTransferMovesMoneyOnce(t *testing.T) {
	s := newTestServer(t, true)

	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	s.link(t, alice, "alice@bank", "500")
	s.link(t, bob, "bob@bank", "0")

	req := dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "100"}
	first := s.do(t, http.MethodPost, "/api/v1/transfers", alice, req, "Idempotency-Key", "pay-1")
	second := s.do(t, http.MethodPost, "/api/v1/transfers", alice, req, "Idempotency-Key", "pay-1")

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Fatal("second response should be a replay")
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
	if got := s.balance(t, alice); got != "400.00" {
		t.Fatalf("alice balance = %s, want 400.00", got)
	}

	req.Amount = "200"
	conflict := s.do(t, http.MethodPost, "/api/v1/transfers", alice, req, "Idempotency-Key", "pay-1")
	if conflict.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for reused key, got %d", conflict.Code)
	}
}

func TestNewRouter_OperatorRoutes(t *testing.T) {
	s := newTestServer(t, true)

	customer := s.register(t, "c@example.com")
	rec := s.do(t, http.MethodGet, "/api/v1/ledger/consistency", customer, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer should be forbidden, got %d", rec.Code)
	}

	opToken, _, err := s.jwt.Generate(operatorUser())
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/ledger/consistency", opToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("operator should see consistency, got %d", rec.Code)
	}
	var report dto.ConsistencyResponse
	_ = json.NewDecoder(rec.Body).Decode(&report)
	if !report.Consistent {
		t.Fatalf("empty ledger should be consistent: %+v", report)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/transfers/flagged", opToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("operator should see flagged transfers, got %d", rec.Code)
	}
}

func TestNewRouter_AuthDisabled(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/v1/accounts", "", dto.LinkAccountRequest{Handle: "alice@bank", HolderName: "Alice", BankName: "B", OpeningBalance: "10"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("link without auth: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/api/v1/accounts", "", dto.LinkAccountRequest{Handle: "bob@bank", HolderName: "Bob", BankName: "B"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second link without auth: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/v1/transfers", "", dto.CreateTransferRequest{SenderHandle: "alice@bank", ReceiverHandle: "bob@bank", Amount: "10"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer without auth: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/api/v1/ledger/consistency", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("consistency without auth: %d", rec.Code)
	}
}

func TestNewRouter_MoneyRequests(t *testing.T) {
	s := newTestServer(t, true)
	alice := s.register(t, "alice@example.com")
	s.link(t, alice, "alice@bank", "0")

	for _, amount := range []string{"10", "20"} {
		rec := s.do(t, http.MethodPost, "/api/v1/requests", alice, dto.CreateMoneyRequestRequest{RequesterHandle: "alice@bank", Payer: "bob", Amount: amount})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create request: %d %s", rec.Code, rec.Body.String())
		}
	}

	rec := s.do(t, http.MethodGet, "/api/v1/requests?handle=alice@bank", alice, nil)
	var list dto.ListMoneyRequestsResponse
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Requests) != 2 || list.Requests[0].Amount != "10.00" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodGet, "/health", "", nil)

	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "upiledger_http_requests_total") {
		t.Fatalf("metrics not exposed: %d", rec.Code)
	}
}

func operatorUser() *domain.User {
	return &domain.User{ID: "op-1", Email: "ops@example.com", Role: domain.RoleOperator}
}
