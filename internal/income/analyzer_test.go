package income

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/statement"
)

func deposit(year int, month time.Month, day int, amount string) statement.Transaction {
	return statement.Transaction{
		Date:        time.Date(year, month, day, 9, 0, 0, 0, time.UTC),
		Description: "PAYROLL DIRECT DEP",
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestSteadyPayroll(t *testing.T) {
	// Identical biweekly deposits over three months: maximal regularity.
	var txns []statement.Transaction
	date := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		txns = append(txns, statement.Transaction{
			Date:        date,
			Description: "PAYROLL DIRECT DEP",
			Amount:      decimal.NewFromInt(2500),
		})
		date = date.AddDate(0, 0, 14)
	}

	result := NewAnalyzer().Analyze(txns)
	if result.StabilityLevel != LevelStable {
		t.Errorf("StabilityLevel = %s, want STABLE (score %d)", result.StabilityLevel, result.StabilityScore)
	}
	if result.StabilityScore < 90 {
		t.Errorf("StabilityScore = %d, want >= 90 for identical biweekly deposits", result.StabilityScore)
	}
	if result.DepositCount != 7 {
		t.Errorf("DepositCount = %d, want 7", result.DepositCount)
	}
}

func TestErraticDeposits(t *testing.T) {
	txns := []statement.Transaction{
		deposit(2026, 1, 2, "600.00"),
		deposit(2026, 1, 5, "4100.00"),
		deposit(2026, 2, 27, "750.00"),
		deposit(2026, 3, 1, "9000.00"),
	}

	result := NewAnalyzer().Analyze(txns)
	if result.StabilityLevel == LevelStable {
		t.Errorf("erratic deposits scored STABLE (score %d)", result.StabilityScore)
	}
}

func TestNoMaterialDeposits(t *testing.T) {
	// Credits below the $500 materiality threshold are not income.
	txns := []statement.Transaction{
		deposit(2026, 1, 2, "100.00"),
		deposit(2026, 1, 9, "200.00"),
	}

	result := NewAnalyzer().Analyze(txns)
	if result.StabilityScore != 0 {
		t.Errorf("StabilityScore = %d, want 0", result.StabilityScore)
	}
	if result.StabilityLevel != LevelInsufficient {
		t.Errorf("StabilityLevel = %s, want INSUFFICIENT", result.StabilityLevel)
	}
}

func TestSingleDeposit(t *testing.T) {
	result := NewAnalyzer().Analyze([]statement.Transaction{
		deposit(2026, 1, 2, "5000.00"),
	})
	if result.StabilityLevel != LevelInsufficient {
		t.Errorf("StabilityLevel = %s, want INSUFFICIENT", result.StabilityLevel)
	}
	if result.DepositCount != 1 {
		t.Errorf("DepositCount = %d, want 1", result.DepositCount)
	}
}

func TestDeterministic(t *testing.T) {
	txns := []statement.Transaction{
		deposit(2026, 1, 2, "2500.00"),
		deposit(2026, 1, 16, "2480.00"),
		deposit(2026, 1, 30, "2510.00"),
		deposit(2026, 2, 13, "2500.00"),
	}

	analyzer := NewAnalyzer()
	first := analyzer.Analyze(txns)
	for i := 0; i < 5; i++ {
		again := analyzer.Analyze(txns)
		if *again != *first {
			t.Fatalf("non-deterministic result: %+v vs %+v", again, first)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	result := NewAnalyzer().Analyze(nil)
	if result.StabilityScore != 0 || result.StabilityLevel != LevelInsufficient {
		t.Errorf("empty input: got %+v", result)
	}
}
