package budget

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryAccountant keeps the daily spend ledger in memory. Used when no
// DATABASE_URL is configured and in tests. The ledger resets when the UTC
// day rolls over, mirroring the Postgres per-day rows.
type MemoryAccountant struct {
	mu       sync.Mutex
	dailyCap decimal.Decimal
	day      string // YYYY-MM-DD (UTC)
	reserved decimal.Decimal
	spent    decimal.Decimal

	now func() time.Time // injectable clock for tests
}

// NewMemoryAccountant creates an in-memory accountant with the given
// daily cap.
func NewMemoryAccountant(dailyCap decimal.Decimal) *MemoryAccountant {
	return &MemoryAccountant{
		dailyCap: dailyCap,
		now:      time.Now,
	}
}

// rollover resets the ledger when the UTC day changes. Caller holds mu.
func (a *MemoryAccountant) rollover() {
	today := a.now().UTC().Format("2006-01-02")
	if a.day != today {
		a.day = today
		a.reserved = decimal.Zero
		a.spent = decimal.Zero
	}
}

func (a *MemoryAccountant) CheckAndReserve(_ context.Context, amount decimal.Decimal) (bool, error) {
	if amount.Sign() < 0 {
		return false, ErrNegativeAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover()

	if a.reserved.Add(a.spent).Add(amount).GreaterThan(a.dailyCap) {
		return false, nil
	}
	a.reserved = a.reserved.Add(amount)
	return true, nil
}

func (a *MemoryAccountant) Commit(_ context.Context, reserved, actual decimal.Decimal) error {
	if reserved.Sign() < 0 || actual.Sign() < 0 {
		return ErrNegativeAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover()

	a.reserved = a.reserved.Sub(reserved)
	if a.reserved.Sign() < 0 {
		a.reserved = decimal.Zero
	}
	a.spent = a.spent.Add(actual)
	return nil
}

func (a *MemoryAccountant) Release(_ context.Context, amount decimal.Decimal) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover()

	a.reserved = a.reserved.Sub(amount)
	if a.reserved.Sign() < 0 {
		a.reserved = decimal.Zero
	}
	return nil
}

func (a *MemoryAccountant) Usage(_ context.Context) (*Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rollover()

	return &Snapshot{
		Date:      a.day,
		DailyCap:  a.dailyCap,
		Reserved:  a.reserved,
		Spent:     a.spent,
		Remaining: a.dailyCap.Sub(a.reserved).Sub(a.spent),
	}, nil
}
