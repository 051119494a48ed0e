package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/metrics"
)

// Failure reasons stored on transfer records.
const (
	FailureInsufficientFunds = "insufficient_funds"
	FailureCreditFailed      = "credit_failed"
)

// HistoryWarning is returned when money moved but the record could not be written.
const HistoryWarning = "transfer completed but could not be recorded in history"

// TransferConfig tunes the credit and compensation steps of a transfer.
type TransferConfig struct {
	// CreditTimeout bounds each store call made for one leg.
	CreditTimeout               time.Duration
	CompensationInitialInterval time.Duration
	CompensationMaxInterval     time.Duration
	CompensationMaxElapsed      time.Duration
}

// DefaultTransferConfig returns production defaults.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		CreditTimeout:               DefaultCreditTimeout,
		CompensationInitialInterval: 100 * time.Millisecond,
		CompensationMaxInterval:     2 * time.Second,
		CompensationMaxElapsed:      30 * time.Second,
	}
}

// TransferUseCase moves funds between two accounts.
//
// The debit and the credit are two separate atomic operations on the
// account store. A failed credit is undone by crediting the sender back;
// if that also fails the transfer is flagged for manual reconciliation.
// Every leg carries a mutation ID derived from the transfer ID, so an error
// that leaves the outcome unknown is settled against the store instead of
// being guessed.
type TransferUseCase struct {
	txManager    TransactionManager
	accounts     AccountStore
	transferRepo TransferRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	cfg          TransferConfig
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accounts AccountStore,
	transferRepo TransferRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg TransferConfig,
) *TransferUseCase {
	if cfg.CreditTimeout <= 0 {
		cfg.CreditTimeout = DefaultCreditTimeout
	}
	return &TransferUseCase{
		txManager:    txManager,
		accounts:     accounts,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      m,
		logger:       logger.With().Str("component", "transfer").Logger(),
		cfg:          cfg,
	}
}

// TransferInput represents input for sending money.
type TransferInput struct {
	SenderHandle   string
	ReceiverHandle string
	Amount         decimal.Decimal
	Note           string
	// InitiatorID is the authenticated user. When set, it must own the sender account.
	InitiatorID string
}

// TransferResult is a completed transfer.
// Warnings is non-empty when money moved but a side effect failed.
type TransferResult struct {
	Record   *domain.TransferRecord
	Warnings []string
}

// Transfer debits the sender and credits the receiver by exactly the amount.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	start := time.Now()

	record := &domain.TransferRecord{
		ID:             uc.idGen.Generate(),
		SenderHandle:   domain.NormalizeHandle(input.SenderHandle),
		ReceiverHandle: domain.NormalizeHandle(input.ReceiverHandle),
		Amount:         input.Amount,
		Note:           input.Note,
		InitiatedBy:    input.InitiatorID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		uc.metrics.TransferRejected(rejectionType(err))
		return nil, err
	}

	sender, err := uc.resolve(ctx, domain.SideSender, record.SenderHandle)
	if err != nil {
		return nil, err
	}

	if _, err := uc.resolve(ctx, domain.SideReceiver, record.ReceiverHandle); err != nil {
		return nil, err
	}

	if input.InitiatorID != "" && !sender.Owns(input.InitiatorID) {
		uc.metrics.TransferRejected("forbidden")
		return nil, domain.ErrForbidden
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.StoreUnavailable(err)
	}

	// Once the debit is sent the caller's cancellation must not stop the
	// transfer half way.
	detached := context.WithoutCancel(ctx)

	if err := uc.debit(detached, record); err != nil {
		var recErr *domain.ReconciliationError
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			record.Status = domain.TransferStatusFailed
			record.FailureReason = FailureInsufficientFunds
			_ = uc.finish(detached, record, start) // best effort, finish logs and counts
			return nil, domain.ErrInsufficientFunds
		case errors.Is(err, domain.ErrAccountNotFound):
			uc.metrics.TransferRejected("unknown_account")
			return nil, &domain.UnknownAccountError{Side: domain.SideSender, Handle: record.SenderHandle}
		case errors.As(err, &recErr):
			return nil, uc.escalate(detached, record, recErr, start)
		default:
			// The debit is settled as not applied; nothing has moved.
			uc.metrics.TransferRejected("store_unavailable")
			return nil, err
		}
	}

	if creditErr := uc.credit(detached, record); creditErr != nil {
		var recErr *domain.ReconciliationError
		if errors.As(creditErr, &recErr) {
			return nil, uc.escalate(detached, record, recErr, start)
		}

		if compErr := uc.compensate(detached, record); compErr != nil {
			return nil, uc.escalate(detached, record, &domain.ReconciliationError{
				Leg:           domain.LegRefund,
				CreditErr:     creditErr,
				CompensateErr: compErr,
			}, start)
		}

		record.Status = domain.TransferStatusFailed
		record.FailureReason = fmt.Sprintf("%s: %v", FailureCreditFailed, creditErr)
		_ = uc.finish(detached, record, start) // best effort, finish logs and counts
		return nil, creditErr
	}

	record.Status = domain.TransferStatusSuccess
	result := &TransferResult{Record: record}
	if err := uc.finish(detached, record, start); err != nil {
		result.Warnings = append(result.Warnings, HistoryWarning)
	}

	return result, nil
}

func (uc *TransferUseCase) resolve(ctx context.Context, side, handle string) (*domain.Account, error) {
	account, err := uc.accounts.FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			uc.metrics.TransferRejected("unknown_account")
			return nil, &domain.UnknownAccountError{Side: side, Handle: handle}
		}
		return nil, err
	}
	return account, nil
}

// apply runs one leg of the transfer bounded by the credit timeout.
func (uc *TransferUseCase) apply(ctx context.Context, handle string, delta decimal.Decimal, mutationID string) error {
	opCtx, cancel := context.WithTimeout(ctx, uc.cfg.CreditTimeout)
	defer cancel()

	_, err := uc.accounts.ApplyDelta(opCtx, handle, delta, mutationID)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		err = domain.StoreUnavailable(err)
	}
	return err
}

// debit takes the amount from the sender. When the store fails without a
// definite answer the outcome is settled before returning: nil if the debit
// landed, the store error if it was voided, a ReconciliationError if the
// store cannot tell.
func (uc *TransferUseCase) debit(ctx context.Context, record *domain.TransferRecord) error {
	mutationID := domain.MutationID(record.ID, domain.LegDebit)

	err := uc.apply(ctx, record.SenderHandle, record.Amount.Neg(), mutationID)
	if err == nil || isDefinite(err) {
		return err
	}

	applied, resolveErr := uc.settle(ctx, mutationID)
	switch {
	case resolveErr != nil:
		return &domain.ReconciliationError{Leg: domain.LegDebit, DebitErr: err, ResolveErr: resolveErr}
	case applied:
		uc.logger.Warn().
			Err(err).
			Str("transfer_id", record.ID).
			Msg("debit reported an error but was applied, continuing")
		return nil
	default:
		return err
	}
}

// credit gives the amount to the receiver. An ambiguous failure is settled
// first so that a credit which landed is never compensated.
func (uc *TransferUseCase) credit(ctx context.Context, record *domain.TransferRecord) error {
	mutationID := domain.MutationID(record.ID, domain.LegCredit)

	err := uc.apply(ctx, record.ReceiverHandle, record.Amount, mutationID)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrAccountNotFound) {
		err = &domain.UnknownAccountError{Side: domain.SideReceiver, Handle: record.ReceiverHandle}
	} else if !isDefinite(err) {
		applied, resolveErr := uc.settle(ctx, mutationID)
		switch {
		case resolveErr != nil:
			return &domain.ReconciliationError{Leg: domain.LegCredit, CreditErr: err, ResolveErr: resolveErr}
		case applied:
			uc.logger.Warn().
				Err(err).
				Str("transfer_id", record.ID).
				Msg("credit reported an error but was applied, continuing")
			return nil
		}
	}

	uc.logger.Warn().
		Err(err).
		Str("transfer_id", record.ID).
		Str("receiver", record.ReceiverHandle).
		Msg("credit failed after debit, compensating sender")

	return err
}

// compensate credits the amount back to the sender, retrying with backoff.
// The refund carries its own mutation ID, so a retry after a lost reply
// cannot refund twice.
func (uc *TransferUseCase) compensate(ctx context.Context, record *domain.TransferRecord) error {
	mutationID := domain.MutationID(record.ID, domain.LegRefund)

	attempt := 0
	operation := func() error {
		attempt++

		err := uc.apply(ctx, record.SenderHandle, record.Amount, mutationID)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrMutationVoided) {
			return backoff.Permanent(err)
		}

		uc.logger.Warn().
			Err(err).
			Str("transfer_id", record.ID).
			Int("attempt", attempt).
			Msg("compensation attempt failed")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(uc.retryPolicy(), ctx))
	if err != nil {
		// The last attempt may still have landed.
		applied, resolveErr := uc.settle(ctx, mutationID)
		switch {
		case resolveErr != nil:
			err = errors.Join(err, resolveErr)
		case applied:
			err = nil
		}
	}

	uc.metrics.Compensation(err == nil)
	return err
}

// settle asks the store whether a mutation was applied, voiding it if not.
func (uc *TransferUseCase) settle(ctx context.Context, mutationID string) (bool, error) {
	return backoff.RetryWithData(func() (bool, error) {
		opCtx, cancel := context.WithTimeout(ctx, uc.cfg.CreditTimeout)
		defer cancel()
		return uc.accounts.ResolveMutation(opCtx, mutationID)
	}, backoff.WithContext(uc.retryPolicy(), ctx))
}

func (uc *TransferUseCase) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if uc.cfg.CompensationInitialInterval > 0 {
		b.InitialInterval = uc.cfg.CompensationInitialInterval
	}
	if uc.cfg.CompensationMaxInterval > 0 {
		b.MaxInterval = uc.cfg.CompensationMaxInterval
	}
	if uc.cfg.CompensationMaxElapsed > 0 {
		b.MaxElapsedTime = uc.cfg.CompensationMaxElapsed
	}
	return b
}

// isDefinite reports whether a store error proves the mutation did not apply.
func isDefinite(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrMutationVoided)
}

// escalate flags a transfer the engine could not settle on its own.
func (uc *TransferUseCase) escalate(
	ctx context.Context,
	record *domain.TransferRecord,
	recErr *domain.ReconciliationError,
	start time.Time,
) error {
	recErr.TransferID = record.ID
	recErr.SenderHandle = record.SenderHandle
	recErr.ReceiverHandle = record.ReceiverHandle
	recErr.Amount = record.Amount

	record.Status = domain.TransferStatusReconciliationRequired
	record.FailureReason = recErr.Error()

	uc.logger.Error().
		Str("alert", "reconciliation_required").
		Str("transfer_id", record.ID).
		Str("sender", record.SenderHandle).
		Str("receiver", record.ReceiverHandle).
		Str("amount", record.Amount.StringFixed(domain.AmountScale)).
		Str("leg", recErr.Leg).
		AnErr("debit_error", recErr.DebitErr).
		AnErr("credit_error", recErr.CreditErr).
		AnErr("compensation_error", recErr.CompensateErr).
		AnErr("resolve_error", recErr.ResolveErr).
		Msg("transfer left unsettled")
	uc.metrics.Reconciliation()

	_ = uc.finish(ctx, record, start) // best effort, finish logs and counts

	return recErr
}

// finish writes the record and its outbox event in one transaction.
// A failed write is logged and counted; balances stay authoritative.
func (uc *TransferUseCase) finish(ctx context.Context, record *domain.TransferRecord, start time.Time) error {
	uc.metrics.ObserveTransfer(string(record.Status), record.Amount.InexactFloat64(), time.Since(start))

	err := uc.persist(ctx, record)
	if err != nil {
		uc.metrics.HistoryWriteFailed()
		event := uc.logger.Warn()
		if record.IsFlagged() {
			event = uc.logger.Error().Str("alert", "reconciliation_required")
		}
		event.Err(err).
			Str("transfer_id", record.ID).
			Str("status", string(record.Status)).
			Msg("transfer record not persisted")
	}
	return err
}

func (uc *TransferUseCase) persist(ctx context.Context, record *domain.TransferRecord) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.transferRepo.Create(ctx, tx, record); err != nil {
		return err
	}

	if err := uc.outboxRepo.Create(ctx, tx, domain.NewTransferEvent(uc.idGen.Generate(), record)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetTransfer retrieves a transfer record by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.TransferRecord, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersInput selects the history of one account.
type ListTransfersInput struct {
	Handle string
	// ViewerID is the authenticated user; empty means unauthenticated mode.
	ViewerID         string
	ViewerIsOperator bool
	Limit            int
	Offset           int
}

// ListTransfersByHandle returns records where the handle is sender or receiver, newest first.
func (uc *TransferUseCase) ListTransfersByHandle(ctx context.Context, input ListTransfersInput) ([]*domain.TransferRecord, error) {
	handle := domain.NormalizeHandle(input.Handle)

	account, err := uc.accounts.FindByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	if input.ViewerID != "" && !input.ViewerIsOperator && !account.Owns(input.ViewerID) {
		return nil, domain.ErrForbidden
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.transferRepo.ListByHandle(ctx, handle, limit, offset)
}

// ListFlagged returns transfers awaiting manual reconciliation.
func (uc *TransferUseCase) ListFlagged(ctx context.Context, limit, offset int) ([]*domain.TransferRecord, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.transferRepo.ListByStatus(ctx, domain.TransferStatusReconciliationRequired, limit, offset)
}

func rejectionType(err error) string {
	switch {
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "validation"
	}
}
