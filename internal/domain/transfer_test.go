package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestTransferRecord_Validate(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		to          string
		amount      decimal.Decimal
		note        string
		expectError error
	}{
		{
			name:   "valid transfer",
			from:   "alice@okbank",
			to:     "bob@okbank",
			amount: decimal.NewFromInt(100),
		},
		{
			name:        "same account",
			from:        "alice@okbank",
			to:          "alice@okbank",
			amount:      decimal.NewFromInt(100),
			expectError: ErrSameAccount,
		},
		{
			name:        "zero amount",
			from:        "alice@okbank",
			to:          "bob@okbank",
			amount:      decimal.Zero,
			expectError: ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			from:        "alice@okbank",
			to:          "bob@okbank",
			amount:      decimal.NewFromInt(-100),
			expectError: ErrInvalidAmount,
		},
		{
			name:        "sub-paisa amount",
			from:        "alice@okbank",
			to:          "bob@okbank",
			amount:      decimal.RequireFromString("0.001"),
			expectError: ErrInvalidAmount,
		},
		{
			name:        "note too long",
			from:        "alice@okbank",
			to:          "bob@okbank",
			amount:      decimal.NewFromInt(1),
			note:        strings.Repeat("x", MaxNoteLength+1),
			expectError: ErrNoteTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &TransferRecord{
				SenderHandle:   tt.from,
				ReceiverHandle: tt.to,
				Amount:         tt.amount,
				Note:           tt.note,
			}

			err := record.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestUnknownAccountError(t *testing.T) {
	err := error(&UnknownAccountError{Side: SideReceiver, Handle: "ghost@okbank"})

	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatal("expected errors.Is to match ErrUnknownAccount")
	}

	var unknown *UnknownAccountError
	if !errors.As(err, &unknown) || unknown.Side != SideReceiver {
		t.Fatalf("expected receiver side, got %+v", unknown)
	}

	if !strings.Contains(err.Error(), "receiver") {
		t.Errorf("expected message to name the side, got %q", err.Error())
	}
}

func TestReconciliationError(t *testing.T) {
	err := error(&ReconciliationError{
		TransferID:    "tr-1",
		SenderHandle:  "alice@okbank",
		Amount:        decimal.NewFromInt(60),
		CreditErr:     ErrStoreUnavailable,
		CompensateErr: ErrStoreUnavailable,
	})

	if !errors.Is(err, ErrReconciliationRequired) {
		t.Fatal("expected errors.Is to match ErrReconciliationRequired")
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Fatal("reconciliation must not be mistaken for a transient store error")
	}
}

func TestReconciliationErrorNamesUnsettledLeg(t *testing.T) {
	tests := []struct {
		leg  string
		want string
	}{
		{LegDebit, "debit of 60.00 from alice@okbank could not be confirmed"},
		{LegCredit, "credit of 60.00 to bob@okbank could not be confirmed"},
		{LegRefund, "neither credit"},
	}

	for _, tt := range tests {
		err := &ReconciliationError{
			TransferID:     "tr-1",
			SenderHandle:   "alice@okbank",
			ReceiverHandle: "bob@okbank",
			Amount:         decimal.NewFromInt(60),
			Leg:            tt.leg,
			ResolveErr:     ErrStoreUnavailable,
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("leg %s: expected %q in %q", tt.leg, tt.want, err.Error())
		}
	}
}

func TestMutationID(t *testing.T) {
	if got := MutationID("tr-1", LegCredit); got != "tr-1:credit" {
		t.Fatalf("unexpected mutation id %q", got)
	}
}

func TestNewTransferEvent(t *testing.T) {
	record := &TransferRecord{
		ID:             "tr-1",
		SenderHandle:   "alice@okbank",
		ReceiverHandle: "bob@okbank",
		Amount:         decimal.NewFromInt(150),
		Status:         TransferStatusSuccess,
	}

	event := NewTransferEvent("ev-1", record)
	if event.EventType != EventTypeTransferCompleted || event.IsOperatorAlert() {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Payload["amount"] != "150.00" {
		t.Errorf("expected amount 150.00, got %v", event.Payload["amount"])
	}

	record.Status = TransferStatusReconciliationRequired
	event = NewTransferEvent("ev-2", record)
	if event.EventType != EventTypeTransferReconciliationRequired || !event.IsOperatorAlert() {
		t.Fatalf("expected operator alert, got %+v", event)
	}
}
