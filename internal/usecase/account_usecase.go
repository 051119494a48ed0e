package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
)

const (
	directoryCachePrefix = "directory:"
	maxHandleAttempts    = 3
)

// AccountUseCase handles account linking and the handle directory.
type AccountUseCase struct {
	accounts   AccountStore
	outboxRepo OutboxRepository
	cache      Cache
	idGen      IDGenerator
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cacheTTL   time.Duration
}

// NewAccountUseCase creates a new AccountUseCase. cache may be nil.
func NewAccountUseCase(
	accounts AccountStore,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cacheTTL time.Duration,
) *AccountUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DirectoryCacheTTL
	}
	return &AccountUseCase{
		accounts:   accounts,
		outboxRepo: outboxRepo,
		cache:      cache,
		idGen:      idGen,
		metrics:    m,
		logger:     logger.With().Str("component", "accounts").Logger(),
		cacheTTL:   cacheTTL,
	}
}

// LinkAccountInput represents input for linking a bank account.
type LinkAccountInput struct {
	OwnerID string
	// Handle is optional; one is generated when empty.
	Handle         string
	HolderName     string
	BankName       string
	IFSCCode       string
	OpeningBalance decimal.Decimal
}

// LinkAccount creates the owner's single account.
func (uc *AccountUseCase) LinkAccount(ctx context.Context, input LinkAccountInput) (*domain.Account, error) {
	if err := domain.ValidateHolderName(input.HolderName); err != nil {
		return nil, err
	}
	if err := domain.ValidateBankName(input.BankName); err != nil {
		return nil, err
	}
	ifsc := strings.ToUpper(strings.TrimSpace(input.IFSCCode))
	if err := domain.ValidateIFSC(ifsc); err != nil {
		return nil, err
	}
	if err := domain.ValidateOpeningBalance(input.OpeningBalance); err != nil {
		return nil, err
	}

	handle := domain.NormalizeHandle(input.Handle)
	if handle != "" {
		if err := domain.ValidateHandle(handle); err != nil {
			return nil, err
		}
	}

	if input.OwnerID != "" {
		if _, err := uc.accounts.FindByOwner(ctx, input.OwnerID); err == nil {
			return nil, domain.ErrAccountAlreadyLinked
		} else if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := &domain.Account{
		OwnerID:        input.OwnerID,
		HolderName:     strings.TrimSpace(input.HolderName),
		BankName:       strings.TrimSpace(input.BankName),
		IFSCCode:       ifsc,
		Balance:        input.OpeningBalance,
		OpeningBalance: input.OpeningBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.create(ctx, account, handle); err != nil {
		return nil, err
	}

	uc.metrics.AccountLinked()

	ev := domain.NewAccountLinkedEvent(uc.idGen.Generate(), account)
	if err := uc.outboxRepo.Create(ctx, nil, ev); err != nil {
		uc.logger.Warn().Err(err).Str("handle", account.Handle).Msg("account.linked event not recorded")
	}

	return account, nil
}

// create stores the account, generating a handle when none was requested.
func (uc *AccountUseCase) create(ctx context.Context, account *domain.Account, handle string) error {
	if handle != "" {
		account.Handle = handle
		return uc.accounts.Create(ctx, account)
	}

	var err error
	for range maxHandleAttempts {
		if account.Handle, err = domain.NewHandle(); err != nil {
			return err
		}
		err = uc.accounts.Create(ctx, account)
		if !errors.Is(err, domain.ErrHandleTaken) {
			return err
		}
	}
	return err
}

// GetMyAccount returns the account owned by ownerID, including its balance.
func (uc *AccountUseCase) GetMyAccount(ctx context.Context, ownerID string) (*domain.Account, error) {
	return uc.accounts.FindByOwner(ctx, ownerID)
}

// GetAccount returns the full account for a handle.
func (uc *AccountUseCase) GetAccount(ctx context.Context, handle string) (*domain.Account, error) {
	return uc.accounts.FindByHandle(ctx, domain.NormalizeHandle(handle))
}

// ResolveHandle returns the public directory entry for a handle.
// Entries never change once linked, so they are served from cache when possible.
func (uc *AccountUseCase) ResolveHandle(ctx context.Context, handle string) (*domain.DirectoryEntry, error) {
	handle = domain.NormalizeHandle(handle)
	key := directoryCachePrefix + handle

	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var entry domain.DirectoryEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				uc.metrics.DirectoryLookup(true)
				return &entry, nil
			}
		}
	}
	uc.metrics.DirectoryLookup(false)

	account, err := uc.accounts.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	entry := account.DirectoryEntry()

	if uc.cache != nil {
		if data, err := json.Marshal(entry); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Debug().Err(err).Str("handle", handle).Msg("directory cache write failed")
			}
		}
	}

	return &entry, nil
}

// ListDirectoryInput represents input for listing the directory.
type ListDirectoryInput struct {
	Limit  int
	Offset int
}

// ListDirectory lists public entries for all linked accounts.
func (uc *AccountUseCase) ListDirectory(ctx context.Context, input ListDirectoryInput) ([]domain.DirectoryEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	accounts, err := uc.accounts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.DirectoryEntry, 0, len(accounts))
	for _, a := range accounts {
		entries = append(entries, a.DirectoryEntry())
	}
	return entries, nil
}
