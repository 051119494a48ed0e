package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
)

// LedgerUseCase handles ledger-wide checks.
type LedgerUseCase struct {
	ledgerRepo   LedgerRepository
	transferRepo TransferRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository, transferRepo TransferRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo:   ledgerRepo,
		transferRepo: transferRepo,
	}
}

// ConsistencyReport compares the money in the system with the money that entered it.
//
// Transfers only move funds, so the sum of balances must equal the sum of
// opening balances. Drift is their difference. A flagged transfer leaves its
// sender debited with nobody credited, so its amount shows up as negative
// drift until an operator reconciles it.
type ConsistencyReport struct {
	TotalBalance        decimal.Decimal
	TotalOpeningBalance decimal.Decimal
	Drift               decimal.Decimal
	Accounts            int64
	FlaggedTransfers    int64
	FlaggedAmount       decimal.Decimal
	// Consistent is true when there is no drift at all.
	Consistent bool
	// Explained is true when every unit of drift is accounted for by flagged transfers.
	Explained bool
	CheckedAt time.Time
}

// CheckConsistency verifies that no money was created or destroyed.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	totalBalance, totalOpening, accounts, err := uc.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	flaggedAmount, flagged, err := uc.transferRepo.SumByStatus(ctx, domain.TransferStatusReconciliationRequired)
	if err != nil {
		return nil, err
	}

	drift := totalBalance.Sub(totalOpening)

	return &ConsistencyReport{
		TotalBalance:        totalBalance,
		TotalOpeningBalance: totalOpening,
		Drift:               drift,
		Accounts:            accounts,
		FlaggedTransfers:    flagged,
		FlaggedAmount:       flaggedAmount,
		Consistent:          drift.IsZero(),
		Explained:           drift.Add(flaggedAmount).IsZero(),
		CheckedAt:           time.Now().UTC(),
	}, nil
}
