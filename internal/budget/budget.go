// Package budget tracks daily external-verification spend and enforces the
// daily cap through reserve-before-spend accounting.
//
// The waterfall core never touches shared spend state directly: it asks an
// Accountant to reserve the estimated cost before calling any provider,
// commits the actual cost afterward, and releases whatever was reserved but
// not spent. Usage is bucketed by UTC calendar day.
package budget

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("budget amounts must be non-negative")

// Snapshot is a point-in-time view of a day's spend ledger.
type Snapshot struct {
	Date      string          `json:"date"` // YYYY-MM-DD (UTC)
	DailyCap  decimal.Decimal `json:"dailyCap"`
	Reserved  decimal.Decimal `json:"reserved"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// Accountant is the injected collaborator that owns shared daily-spend
// state. Implementations must make CheckAndReserve atomic so concurrent
// analyses cannot jointly overshoot the daily cap.
type Accountant interface {
	// CheckAndReserve reserves amount against today's remaining budget.
	// It returns false, without reserving, when the reservation would
	// push the day's reserved+spent total over the cap.
	CheckAndReserve(ctx context.Context, amount decimal.Decimal) (bool, error)

	// Commit converts a reservation into spend: actual is recorded as
	// spent and the rest of the reservation is released.
	Commit(ctx context.Context, reserved, actual decimal.Decimal) error

	// Release returns an unused reservation to the budget.
	Release(ctx context.Context, amount decimal.Decimal) error

	// Usage reports today's ledger state.
	Usage(ctx context.Context) (*Snapshot, error)
}
