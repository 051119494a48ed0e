package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/usecase"
)

// TransferRepository stores transfer records in insertion order.
type TransferRepository struct {
	mu      sync.RWMutex
	records []*domain.TransferRecord
	byID    map[string]*domain.TransferRecord
	err     error
}

func NewTransferRepository() *TransferRepository {
	return &TransferRepository{byID: make(map[string]*domain.TransferRecord)}
}

// WithError makes subsequent Create calls fail with err. A nil err clears it.
func (r *TransferRepository) WithError(err error) *TransferRepository {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

func (r *TransferRepository) Create(_ context.Context, txn usecase.Transaction, record *domain.TransferRecord) error {
	r.mu.RLock()
	err := r.err
	r.mu.RUnlock()
	if err != nil {
		return err
	}

	stored := *record
	stage(txn, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.records = append(r.records, &stored)
		r.byID[stored.ID] = &stored
	})
	return nil
}

func (r *TransferRepository) GetByID(_ context.Context, id string) (*domain.TransferRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	out := *rec
	return &out, nil
}

// ListByHandle returns records touching handle, newest first.
func (r *TransferRepository) ListByHandle(_ context.Context, handle string, limit, offset int) ([]*domain.TransferRecord, error) {
	return r.filter(func(rec *domain.TransferRecord) bool {
		return rec.SenderHandle == handle || rec.ReceiverHandle == handle
	}, limit, offset), nil
}

func (r *TransferRepository) ListByStatus(_ context.Context, status domain.TransferStatus, limit, offset int) ([]*domain.TransferRecord, error) {
	return r.filter(func(rec *domain.TransferRecord) bool {
		return rec.Status == status
	}, limit, offset), nil
}

func (r *TransferRepository) SumByStatus(_ context.Context, status domain.TransferStatus) (decimal.Decimal, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := decimal.Zero
	var count int64
	for _, rec := range r.records {
		if rec.Status == status {
			sum = sum.Add(rec.Amount)
			count++
		}
	}
	return sum, count, nil
}

// All returns every record in insertion order.
func (r *TransferRepository) All() []*domain.TransferRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.TransferRecord, 0, len(r.records))
	for _, rec := range r.records {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

func (r *TransferRepository) filter(match func(*domain.TransferRecord) bool, limit, offset int) []*domain.TransferRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.TransferRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if match(r.records[i]) {
			out := *r.records[i]
			matched = append(matched, &out)
		}
	}
	return page(matched, limit, offset)
}

// MoneyRequestRepository is an append-only request ledger.
type MoneyRequestRepository struct {
	mu       sync.RWMutex
	requests []*domain.MoneyRequest
	seq      int64
}

func NewMoneyRequestRepository() *MoneyRequestRepository {
	return &MoneyRequestRepository{}
}

// Create assigns the next sequence number immediately, even when the write
// itself waits for txn to commit.
func (r *MoneyRequestRepository) Create(_ context.Context, txn usecase.Transaction, req *domain.MoneyRequest) error {
	r.mu.Lock()
	r.seq++
	req.Seq = r.seq
	r.mu.Unlock()

	stored := *req
	stage(txn, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.requests = append(r.requests, &stored)
	})
	return nil
}

func (r *MoneyRequestRepository) ListByRequester(_ context.Context, handle string, status domain.MoneyRequestStatus) ([]*domain.MoneyRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.MoneyRequest{}
	for _, req := range r.requests {
		if req.RequesterHandle != handle {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, nil
}

// OutboxRepository holds outbox events until they are marked published.
type OutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Create(_ context.Context, txn usecase.Transaction, event *domain.OutboxEvent) error {
	stored := *event
	stage(txn, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, &stored)
	})
	return nil
}

func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, ev := range r.events {
		if ev.Published {
			continue
		}
		cp := *ev
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range r.events {
		if ev.ID == id {
			ev.Published = true
			t := publishedAt
			ev.PublishedAt = &t
			return nil
		}
	}
	return nil
}

// Events returns every recorded event in insertion order.
func (r *OutboxRepository) Events() []*domain.OutboxEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.OutboxEvent, 0, len(r.events))
	for _, ev := range r.events {
		cp := *ev
		out = append(out, &cp)
	}
	return out
}

// UserRepository stores identities keyed by ID and email.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// LedgerRepository answers ledger-wide questions from an AccountStore.
type LedgerRepository struct {
	accounts *AccountStore
}

func NewLedgerRepository(accounts *AccountStore) *LedgerRepository {
	return &LedgerRepository{accounts: accounts}
}

func (r *LedgerRepository) Totals(ctx context.Context) (decimal.Decimal, decimal.Decimal, int64, error) {
	return r.accounts.Totals(ctx)
}

// TxManager hands out transactions that buffer repository writes. Writes
// staged on a transaction become visible together when it commits and are
// discarded on rollback. A nil transaction applies writes immediately.
//
// Commit applies the staged writes one repository at a time, so a
// concurrent reader can briefly observe a transfer record before its
// outbox event. Both always land or neither does.
type TxManager struct{}

func NewTxManager() *TxManager {
	return &TxManager{}
}

func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}
	return &tx{}, nil
}

type tx struct {
	mu      sync.Mutex
	pending []func()
	done    bool
}

func (t *tx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	for _, apply := range t.pending {
		apply()
	}
	t.pending = nil
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = true
	t.pending = nil
	return nil
}

// stage runs apply when txn commits, or at once when txn is not a memory
// transaction. Writes staged after the transaction ended are dropped.
func stage(txn usecase.Transaction, apply func()) {
	t, ok := txn.(*tx)
	if !ok || t == nil {
		apply()
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.done {
		t.pending = append(t.pending, apply)
	}
}
