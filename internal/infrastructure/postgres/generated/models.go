package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	Handle         string             `json:"handle"`
	OwnerID        pgtype.Text        `json:"owner_id"`
	HolderName     string             `json:"holder_name"`
	BankName       string             `json:"bank_name"`
	IfscCode       string             `json:"ifsc_code"`
	Balance        pgtype.Numeric     `json:"balance"`
	OpeningBalance pgtype.Numeric     `json:"opening_balance"`
	Version        int64              `json:"version"`
	Seq            int64              `json:"seq"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type BalanceMutation struct {
	ID        string             `json:"id"`
	Handle    string             `json:"handle"`
	Delta     pgtype.Numeric     `json:"delta"`
	Voided    bool               `json:"voided"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type MoneyRequest struct {
	Seq             int64              `json:"seq"`
	ID              string             `json:"id"`
	RequesterHandle string             `json:"requester_handle"`
	Payer           string             `json:"payer"`
	Amount          pgtype.Numeric     `json:"amount"`
	Message         string             `json:"message"`
	Status          string             `json:"status"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type Transfer struct {
	ID             string             `json:"id"`
	SenderHandle   string             `json:"sender_handle"`
	ReceiverHandle string             `json:"receiver_handle"`
	Amount         pgtype.Numeric     `json:"amount"`
	Status         string             `json:"status"`
	Note           string             `json:"note"`
	FailureReason  string             `json:"failure_reason"`
	InitiatedBy    string             `json:"initiated_by"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

type User struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	PasswordHash string             `json:"password_hash"`
	Role         string             `json:"role"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}
