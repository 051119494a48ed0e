package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--url", srv.URL, "--token", "tok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLedgerConsistency(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"consistent", `{"consistent":true,"drift":"0.00","accounts":2}`, "PASSED", false},
		{"explained drift", `{"consistent":false,"explained":true,"drift":"-10.00","flagged_transfers":1}`, "explained by flagged transfers", false},
		{"unexplained drift", `{"consistent":false,"explained":false,"drift":"-10.00"}`, "FAILED", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/ledger/consistency" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("missing bearer token")
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := execute(t, srv, "ledger", "consistency")
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.wantErr && !errors.Is(err, errInconsistent) {
				t.Fatalf("expected errInconsistent, got %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in output:\n%s", tt.want, out)
			}
		})
	}
}

func TestTransfersFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit=5, got %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"transfers":[{"id":"t-1","sender_handle":"a@bank","receiver_handle":"b@bank","amount":"10.00","status":"RECONCILIATION_REQUIRED"}]}`))
	}))
	defer srv.Close()

	out, err := execute(t, srv, "transfers", "flagged", "--limit", "5")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "t-1") || !strings.Contains(out, "a@bank") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTransferSendSetsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"t-1","status":"SUCCESS","sender_handle":"a@bank","receiver_handle":"b@bank","amount":"150.00"}`))
	}))
	defer srv.Close()

	out, err := execute(t, srv, "transfer", "send", "--from", "a@bank", "--to", "b@bank", "--amount", "150")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if len(gotKey) != 26 {
		t.Fatalf("expected a generated ULID key, got %q", gotKey)
	}
	if gotBody["amount"] != "150" || gotBody["sender_handle"] != "a@bank" {
		t.Fatalf("unexpected body %v", gotBody)
	}
	if !strings.Contains(out, "SUCCESS") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTransferSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Conflict","code":"INSUFFICIENT_FUNDS","message":"insufficient funds"}`))
	}))
	defer srv.Close()

	_, err := execute(t, srv, "transfer", "send", "--from", "a@bank", "--to", "b@bank", "--amount", "150", "--idempotency-key", "k1")

	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Code != "INSUFFICIENT_FUNDS" {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", err)
	}
	if !strings.Contains(err.Error(), "k1") {
		t.Fatalf("error should mention the key to retry with: %v", err)
	}
}

func TestRequestsList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handle") != "alice@bank" || r.URL.Query().Get("status") != "OPEN" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"requests":[{"id":"r-1","payer":"bob","amount":"25.00","status":"OPEN"}]}`))
	}))
	defer srv.Close()

	out, err := execute(t, srv, "requests", "list", "--handle", "alice@bank")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "r-1") || !strings.Contains(out, "25.00") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"jwt-token"}`))
	}))
	defer srv.Close()

	out, err := execute(t, srv, "login", "--email", "ops@example.com", "--password", "x")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if strings.TrimSpace(out) != "jwt-token" {
		t.Fatalf("unexpected output %q", out)
	}
}
