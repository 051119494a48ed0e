// Package memory implements the repository ports in process memory.
// It backs STORE_BACKEND=memory and the property tests of the transfer engine.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
)

// ApplyHook runs before a balance mutation. A non-nil error aborts the
// mutation and is returned to the caller unchanged.
type ApplyHook func(ctx context.Context, handle string, delta decimal.Decimal) error

type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

// Mutation states.
const (
	mutationApplied = true
	mutationVoided  = false
)

// AccountStore keeps accounts in memory with one lock per account.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*accountEntry
	owners   map[string]string
	order    []string
	hook     ApplyHook

	mutMu     sync.Mutex
	mutations map[string]bool
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts:  make(map[string]*accountEntry),
		owners:    make(map[string]string),
		mutations: make(map[string]bool),
	}
}

// WithApplyHook installs a hook consulted by every ApplyDelta call.
func (s *AccountStore) WithApplyHook(hook ApplyHook) *AccountStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = hook
	return s
}

func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return domain.StoreUnavailable(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Handle]; ok {
		return domain.ErrHandleTaken
	}
	if account.OwnerID != "" {
		if _, ok := s.owners[account.OwnerID]; ok {
			return domain.ErrAccountAlreadyLinked
		}
		s.owners[account.OwnerID] = account.Handle
	}

	s.accounts[account.Handle] = &accountEntry{account: *account}
	s.order = append(s.order, account.Handle)
	return nil
}

func (s *AccountStore) FindByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	e := s.entry(handle)
	if e == nil {
		return nil, domain.ErrAccountNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	account := e.account
	return &account, nil
}

func (s *AccountStore) FindByOwner(ctx context.Context, ownerID string) (*domain.Account, error) {
	s.mu.RLock()
	handle, ok := s.owners[ownerID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return s.FindByHandle(ctx, handle)
}

func (s *AccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	s.mu.RLock()
	handles := page(s.order, limit, offset)
	s.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(handles))
	for _, h := range handles {
		a, err := s.FindByHandle(ctx, h)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// ApplyDelta adds delta to the balance under the account's own lock.
// An empty mutationID is not tracked.
func (s *AccountStore) ApplyDelta(ctx context.Context, handle string, delta decimal.Decimal, mutationID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	s.mu.RLock()
	e := s.accounts[handle]
	hook := s.hook
	s.mu.RUnlock()

	if e == nil {
		return nil, domain.ErrAccountNotFound
	}

	if hook != nil {
		if err := hook(ctx, handle, delta); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The mutation lock is held until the balance changes so that
	// ResolveMutation never observes a half-applied mutation.
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	if applied, seen := s.mutations[mutationID]; seen && mutationID != "" {
		if applied == mutationVoided {
			return nil, domain.ErrMutationVoided
		}
		account := e.account
		return &account, nil
	}

	balance, err := e.account.ApplyDelta(delta)
	if err != nil {
		return nil, err
	}

	e.account.Balance = balance
	e.account.Version++
	e.account.UpdatedAt = time.Now().UTC()
	if mutationID != "" {
		s.mutations[mutationID] = mutationApplied
	}

	account := e.account
	return &account, nil
}

// ResolveMutation reports whether mutationID was applied, voiding it if not.
func (s *AccountStore) ResolveMutation(ctx context.Context, mutationID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, domain.StoreUnavailable(err)
	}

	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	if applied, seen := s.mutations[mutationID]; seen {
		return applied, nil
	}
	s.mutations[mutationID] = mutationVoided
	return false, nil
}

// Totals returns the sum of balances and of opening balances.
func (s *AccountStore) Totals(ctx context.Context) (decimal.Decimal, decimal.Decimal, int64, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, decimal.Zero, 0, domain.StoreUnavailable(err)
	}

	s.mu.RLock()
	entries := make([]*accountEntry, 0, len(s.order))
	for _, h := range s.order {
		entries = append(entries, s.accounts[h])
	}
	s.mu.RUnlock()

	total, opening := decimal.Zero, decimal.Zero
	for _, e := range entries {
		e.mu.Lock()
		total = total.Add(e.account.Balance)
		opening = opening.Add(e.account.OpeningBalance)
		e.mu.Unlock()
	}
	return total, opening, int64(len(entries)), nil
}

func (s *AccountStore) entry(handle string) *accountEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[handle]
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
