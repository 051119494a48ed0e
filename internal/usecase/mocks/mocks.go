package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iho/upiledger/internal/usecase"
)

// FakeTransactionManager hands out FakeTransactions and counts their outcomes.
type FakeTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu        sync.Mutex
	commits   int
	rollbacks int
}

func NewFakeTransactionManager() *FakeTransactionManager {
	return &FakeTransactionManager{}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &FakeTransaction{manager: m}, nil
}

// Commits returns the number of committed transactions.
func (m *FakeTransactionManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns the number of transactions rolled back before commit.
func (m *FakeTransactionManager) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

// FakeTransaction is a Transaction that records whether it was committed.
type FakeTransaction struct {
	CommitFunc func(ctx context.Context) error

	manager   *FakeTransactionManager
	committed bool
}

func (t *FakeTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.committed = true
	if t.manager != nil {
		t.manager.mu.Lock()
		t.manager.commits++
		t.manager.mu.Unlock()
	}
	return nil
}

// Rollback after a successful Commit is a no-op, as with pgx.
func (t *FakeTransaction) Rollback(context.Context) error {
	if t.committed {
		return nil
	}
	if t.manager != nil {
		t.manager.mu.Lock()
		t.manager.rollbacks++
		t.manager.mu.Unlock()
	}
	return nil
}

// SequentialIDGenerator returns prefix-1, prefix-2, ...
type SequentialIDGenerator struct {
	Prefix string

	mu      sync.Mutex
	counter int
}

func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{Prefix: prefix}
}

func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.Prefix, g.counter)
}

// FakeIdempotencyStore is an in-process IdempotencyStore.
type FakeIdempotencyStore struct {
	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)

	mu   sync.Mutex
	data map[string][]byte
}

func NewFakeIdempotencyStore() *FakeIdempotencyStore {
	return &FakeIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (s *FakeIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if s.CheckAndSetFunc != nil {
		return s.CheckAndSetFunc(ctx, key, response, ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[key]; ok {
		return true, existing, nil
	}
	s.data[key] = response
	return false, nil, nil
}

func (s *FakeIdempotencyStore) Update(_ context.Context, key string, response []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = response
	return nil
}

func (s *FakeIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Stored returns the value saved under key.
func (s *FakeIdempotencyStore) Stored(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}
