package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/infrastructure/postgres/generated"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// Totals sums balances and opening balances in one statement, so both
// sums come from the same snapshot.
func (r *LedgerRepository) Totals(ctx context.Context) (decimal.Decimal, decimal.Decimal, int64, error) {
	row, err := r.queries.SumAccountBalances(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, 0, mapError(err)
	}

	return numericToDecimal(row.TotalBalance), numericToDecimal(row.TotalOpeningBalance), row.AccountCount, nil
}
