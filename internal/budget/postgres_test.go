//go:build integration

package budget

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/testutil"
)

func TestPostgresAccountant_ReserveCommitRelease(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	acct := NewPostgresAccountant(db, decimal.NewFromInt(200))

	ok, err := acct.CheckAndReserve(ctx, decimal.NewFromInt(45))
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if !ok {
		t.Fatal("expected reservation to be granted")
	}

	usage, err := acct.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if !usage.Reserved.Equal(decimal.NewFromInt(45)) {
		t.Errorf("reserved = %s, want 45", usage.Reserved)
	}

	// Commit less than reserved: remainder returns to the budget.
	if err := acct.Commit(ctx, decimal.NewFromInt(45), decimal.NewFromInt(25)); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	usage, err = acct.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if !usage.Reserved.IsZero() {
		t.Errorf("reserved = %s, want 0 after commit", usage.Reserved)
	}
	if !usage.Spent.Equal(decimal.NewFromInt(25)) {
		t.Errorf("spent = %s, want 25", usage.Spent)
	}
	if !usage.Remaining.Equal(decimal.NewFromInt(175)) {
		t.Errorf("remaining = %s, want 175", usage.Remaining)
	}

	// Release a standalone reservation.
	ok, err = acct.CheckAndReserve(ctx, decimal.NewFromInt(45))
	if err != nil || !ok {
		t.Fatalf("CheckAndReserve: ok=%v err=%v", ok, err)
	}
	if err := acct.Release(ctx, decimal.NewFromInt(45)); err != nil {
		t.Fatalf("Release: %v", err)
	}
	usage, err = acct.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if !usage.Reserved.IsZero() {
		t.Errorf("reserved = %s, want 0 after release", usage.Reserved)
	}
}

func TestPostgresAccountant_EnforcesDailyCap(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	acct := NewPostgresAccountant(db, decimal.NewFromInt(100))

	ok, err := acct.CheckAndReserve(ctx, decimal.NewFromInt(90))
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}

	ok, err = acct.CheckAndReserve(ctx, decimal.NewFromInt(45))
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if ok {
		t.Fatal("reservation over the cap must be rejected")
	}

	// Over-cap single amount on a fresh ledger day.
	big := NewPostgresAccountant(db, decimal.NewFromInt(10))
	ok, err = big.CheckAndReserve(ctx, decimal.NewFromInt(45))
	if err != nil {
		t.Fatalf("over-cap reserve: %v", err)
	}
	if ok {
		t.Fatal("amount above the daily cap must be rejected")
	}
}

func TestPostgresAccountant_ConcurrentReservations(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	acct := NewPostgresAccountant(db, decimal.NewFromInt(200))

	const workers = 20
	granted := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			ok, err := acct.CheckAndReserve(ctx, decimal.NewFromInt(45))
			if err != nil {
				t.Errorf("CheckAndReserve: %v", err)
			}
			granted <- ok
		}()
	}

	count := 0
	for i := 0; i < workers; i++ {
		if <-granted {
			count++
		}
	}
	// 4 x $45 = $180 fits under $200; a fifth would overshoot.
	if count != 4 {
		t.Errorf("granted %d reservations, want exactly 4", count)
	}
}
