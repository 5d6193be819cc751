package budget

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PostgresAccountant persists the daily spend ledger in PostgreSQL, one
// row per UTC day. Reservation is a single atomic upsert guarded by the
// cap, so concurrent analyses across instances cannot jointly overshoot.
type PostgresAccountant struct {
	db       *sql.DB
	dailyCap decimal.Decimal
}

// NewPostgresAccountant creates a PostgreSQL-backed accountant.
func NewPostgresAccountant(db *sql.DB, dailyCap decimal.Decimal) *PostgresAccountant {
	return &PostgresAccountant{db: db, dailyCap: dailyCap}
}

func today() string {
	return time.Now().UTC().Format("2006-01-02")
}

func (a *PostgresAccountant) CheckAndReserve(ctx context.Context, amount decimal.Decimal) (bool, error) {
	if amount.Sign() < 0 {
		return false, ErrNegativeAmount
	}
	// The insert arm has no cap guard, so an over-cap amount on a fresh
	// day must be rejected here.
	if amount.GreaterThan(a.dailyCap) {
		return false, nil
	}

	// The WHERE clause on the conflict arm rejects reservations that
	// would exceed the cap; a rejected upsert touches no rows.
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO budget_ledger (usage_date, reserved, spent)
		VALUES ($1, $2, 0)
		ON CONFLICT (usage_date) DO UPDATE
		SET reserved = budget_ledger.reserved + EXCLUDED.reserved,
		    updated_at = NOW()
		WHERE budget_ledger.reserved + budget_ledger.spent + EXCLUDED.reserved <= $3
	`, today(), amount, a.dailyCap)
	if err != nil {
		return false, fmt.Errorf("reserve budget: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve budget: %w", err)
	}
	return n == 1, nil
}

func (a *PostgresAccountant) Commit(ctx context.Context, reserved, actual decimal.Decimal) error {
	if reserved.Sign() < 0 || actual.Sign() < 0 {
		return ErrNegativeAmount
	}

	_, err := a.db.ExecContext(ctx, `
		UPDATE budget_ledger
		SET reserved = GREATEST(reserved - $2, 0),
		    spent = spent + $3,
		    updated_at = NOW()
		WHERE usage_date = $1
	`, today(), reserved, actual)
	if err != nil {
		return fmt.Errorf("commit budget spend: %w", err)
	}
	return nil
}

func (a *PostgresAccountant) Release(ctx context.Context, amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	_, err := a.db.ExecContext(ctx, `
		UPDATE budget_ledger
		SET reserved = GREATEST(reserved - $2, 0),
		    updated_at = NOW()
		WHERE usage_date = $1
	`, today(), amount)
	if err != nil {
		return fmt.Errorf("release budget reservation: %w", err)
	}
	return nil
}

func (a *PostgresAccountant) Usage(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		Date:     today(),
		DailyCap: a.dailyCap,
		Reserved: decimal.Zero,
		Spent:    decimal.Zero,
	}

	err := a.db.QueryRowContext(ctx, `
		SELECT reserved, spent FROM budget_ledger WHERE usage_date = $1
	`, today()).Scan(&snapshot.Reserved, &snapshot.Spent)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read budget ledger: %w", err)
	}

	snapshot.Remaining = a.dailyCap.Sub(snapshot.Reserved).Sub(snapshot.Spent)
	return snapshot, nil
}
