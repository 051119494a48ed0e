package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/upiledger/internal/domain"
	"github.com/iho/upiledger/internal/infrastructure/postgres/generated"
	"github.com/iho/upiledger/internal/usecase"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
)

// Constraint names from the schema migrations.
const (
	constraintAccountsPkey          = "accounts_pkey"
	constraintAccountsOwnerKey      = "accounts_owner_id_key"
	constraintAccountsBalanceNonNeg = "accounts_balance_non_negative"
	constraintUsersEmailKey         = "users_email_key"
	constraintMutationsPkey         = "balance_mutations_pkey"
)

// SQLSTATE classes that mean the database could not serve the statement.
var unavailableClasses = map[string]bool{
	"08": true, // connection exception
	"40": true, // transaction rollback
	"53": true, // insufficient resources
	"57": true, // operator intervention
	"58": true, // system error
}

// mapError translates driver errors into domain errors.
// Failures to reach or use the database become ErrStoreUnavailable;
// query and constraint errors that indicate a bug are returned as is.
func mapError(err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			switch pgErr.ConstraintName {
			case constraintAccountsPkey:
				return domain.ErrHandleTaken
			case constraintAccountsOwnerKey:
				return domain.ErrAccountAlreadyLinked
			case constraintUsersEmailKey:
				return domain.ErrEmailTaken
			}
		case pgErrCheckViolation:
			if pgErr.ConstraintName == constraintAccountsBalanceNonNeg {
				return domain.ErrInsufficientFunds
			}
		}

		if len(pgErr.Code) >= 2 && unavailableClasses[pgErr.Code[:2]] {
			return domain.StoreUnavailable(err)
		}
		return fmt.Errorf("database error: %w", err)
	}

	return domain.StoreUnavailable(err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == constraint
}

// queriesFor runs on tx when one is given and on the pool otherwise.
func queriesFor(q *generated.Queries, tx usecase.Transaction) *generated.Queries {
	if tx == nil {
		return q
	}
	return q.WithTx(tx.(*Tx).PgxTx())
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
