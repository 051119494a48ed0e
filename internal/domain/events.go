package domain

import "time"

// Event types
const (
	EventTypeTransferCompleted              = "transfer.completed"
	EventTypeTransferReconciliationRequired = "transfer.reconciliation_required"
	EventTypeMoneyRequestCreated            = "money_request.created"
	EventTypeAccountLinked                  = "account.linked"
)

// Aggregate types
const (
	AggregateTypeTransfer     = "transfer"
	AggregateTypeMoneyRequest = "money_request"
	AggregateTypeAccount      = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// IsOperatorAlert reports whether the event must reach the operator channel.
func (e *OutboxEvent) IsOperatorAlert() bool {
	return e.EventType == EventTypeTransferReconciliationRequired
}

// NewTransferEvent builds the outbox event for a finished transfer record.
func NewTransferEvent(id string, record *TransferRecord) *OutboxEvent {
	eventType := EventTypeTransferCompleted
	if record.IsFlagged() {
		eventType = EventTypeTransferReconciliationRequired
	}

	payload := map[string]any{
		"transfer_id":     record.ID,
		"sender_handle":   record.SenderHandle,
		"receiver_handle": record.ReceiverHandle,
		"amount":          record.Amount.StringFixed(AmountScale),
		"status":          string(record.Status),
		"created_at":      record.CreatedAt.Format(time.RFC3339Nano),
	}
	if record.FailureReason != "" {
		payload["failure_reason"] = record.FailureReason
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   record.ID,
		AggregateType: AggregateTypeTransfer,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     record.CreatedAt,
	}
}

// NewMoneyRequestEvent builds the outbox event for a new money request.
func NewMoneyRequestEvent(id string, req *MoneyRequest) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   req.ID,
		AggregateType: AggregateTypeMoneyRequest,
		EventType:     EventTypeMoneyRequestCreated,
		Payload: map[string]any{
			"request_id":       req.ID,
			"requester_handle": req.RequesterHandle,
			"payer":            req.Payer,
			"amount":           req.Amount.StringFixed(AmountScale),
		},
		CreatedAt: req.CreatedAt,
	}
}

// NewAccountLinkedEvent builds the outbox event for a newly linked account.
func NewAccountLinkedEvent(id string, account *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   account.Handle,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountLinked,
		Payload: map[string]any{
			"handle":   account.Handle,
			"owner_id": account.OwnerID,
			"bank":     account.BankName,
		},
		CreatedAt: account.CreatedAt,
	}
}
