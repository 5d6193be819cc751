package waterfall

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/budget"
	"github.com/helioslend/helios/internal/income"
	"github.com/helioslend/helios/internal/risk"
	"github.com/helioslend/helios/internal/veritas"
)

func strongHelios() *HeliosAnalysis {
	return &HeliosAnalysis{
		VeritasScore: veritas.Graded(720),
		RiskAnalysis: &risk.Result{
			RiskScore: 5,
			RiskLevel: risk.LevelVeryLow,
		},
		IncomeStability: &income.Result{
			StabilityScore: 85,
			StabilityLevel: income.LevelStable,
		},
		FinancialSummary: &FinancialSummary{
			TransactionCount:    42,
			PeriodDays:          90,
			AverageDailyBalance: decimal.NewFromInt(5200),
			NSFCount:            0,
		},
	}
}

func newGate(t *testing.T) (*Evaluator, *budget.MemoryAccountant) {
	t.Helper()
	acct := budget.NewMemoryAccountant(decimal.NewFromInt(200))
	return NewEvaluator(DefaultConfig(), acct), acct
}

func TestEvaluate_AllChecksPass(t *testing.T) {
	gate, _ := newGate(t)

	eval, err := gate.Evaluate(context.Background(), strongHelios())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if eval.CriteriaScore != 100 {
		t.Errorf("criteria score = %d, want 100", eval.CriteriaScore)
	}
	if eval.PassedChecks != 6 || eval.TotalChecks != 6 {
		t.Errorf("passed %d/%d checks, want 6/6", eval.PassedChecks, eval.TotalChecks)
	}
	if !eval.ShouldProceed {
		t.Error("expected shouldProceed")
	}
	if !eval.Budget.Passed || !eval.Budget.Reserved() {
		t.Error("expected budget passed and estimate reserved")
	}
	if !eval.CostSaved.IsZero() {
		t.Errorf("cost saved = %s, want 0", eval.CostSaved)
	}
}

func TestEvaluate_BelowThresholdSkipsVerification(t *testing.T) {
	gate, acct := newGate(t)

	// Failing balance (0.20) and volume (0.15) leaves 65, below the
	// proceed threshold of 70.
	helios := strongHelios()
	helios.FinancialSummary.AverageDailyBalance = decimal.NewFromInt(400)
	helios.FinancialSummary.TransactionCount = 6

	eval, err := gate.Evaluate(context.Background(), helios)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if eval.CriteriaScore != 65 {
		t.Errorf("criteria score = %d, want 65", eval.CriteriaScore)
	}
	if eval.ShouldProceed {
		t.Error("expected shouldProceed=false")
	}
	if eval.APIPlan.Any() {
		t.Errorf("expected empty api plan, got %+v", eval.APIPlan)
	}
	if want := decimal.NewFromInt(45); !eval.CostSaved.Equal(want) {
		t.Errorf("cost saved = %s, want %s", eval.CostSaved, want)
	}
	if eval.Budget.Reserved() {
		t.Error("no reservation should be taken when criteria fail")
	}

	// Shared state untouched by the advisory budget read.
	usage, err := acct.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if !usage.Reserved.IsZero() || !usage.Spent.IsZero() {
		t.Errorf("ledger touched: reserved=%s spent=%s", usage.Reserved, usage.Spent)
	}
}

func TestEvaluate_BudgetExhaustedDisablesAllProviders(t *testing.T) {
	gate, acct := newGate(t)

	// Drain the daily budget.
	ok, err := acct.CheckAndReserve(context.Background(), decimal.NewFromInt(180))
	if err != nil || !ok {
		t.Fatalf("drain reserve: ok=%v err=%v", ok, err)
	}

	eval, err := gate.Evaluate(context.Background(), strongHelios())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if eval.CriteriaScore != 100 {
		t.Errorf("criteria score = %d, want 100", eval.CriteriaScore)
	}
	if eval.ShouldProceed {
		t.Error("expected shouldProceed=false on exhausted budget")
	}
	if eval.Budget.Passed {
		t.Error("expected budget check failed")
	}
	if eval.APIPlan.Any() {
		t.Errorf("expected all providers disabled, got %+v", eval.APIPlan)
	}
	if want := decimal.NewFromInt(45); !eval.CostSaved.Equal(want) {
		t.Errorf("cost saved = %s, want %s", eval.CostSaved, want)
	}
}

func TestSelectPlan_ScoreTiered(t *testing.T) {
	gate, _ := newGate(t)

	tests := []struct {
		score                   int
		middesk, isoftpull, sos bool
	}{
		{850, true, true, true},
		{760, true, true, true},
		// Normalized 6.8: middesk and sos only.
		{680, true, false, true},
		{650, true, false, true},
		{620, false, false, true},
		{590, false, false, false},
		{300, false, false, false},
	}
	for _, tt := range tests {
		plan := gate.selectPlan(tt.score)
		if plan.Middesk != tt.middesk || plan.ISoftpull != tt.isoftpull || plan.SOS != tt.sos {
			t.Errorf("selectPlan(%d) = %+v, want middesk=%v isoftpull=%v sos=%v",
				tt.score, plan, tt.middesk, tt.isoftpull, tt.sos)
		}
	}
}

func TestEvaluate_ChecksCarryActualsAndThresholds(t *testing.T) {
	gate, _ := newGate(t)

	helios := strongHelios()
	helios.FinancialSummary.NSFCount = 5

	eval, err := gate.Evaluate(context.Background(), helios)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var nsfCheck *CheckResult
	for i := range eval.Checks {
		if eval.Checks[i].Name == "nsf_count" {
			nsfCheck = &eval.Checks[i]
		}
	}
	if nsfCheck == nil {
		t.Fatal("nsf_count check missing")
	}
	if nsfCheck.Passed {
		t.Error("nsf_count should fail at 5")
	}
	if nsfCheck.Actual != "5" || nsfCheck.Threshold != "<= 3" {
		t.Errorf("actual=%q threshold=%q", nsfCheck.Actual, nsfCheck.Threshold)
	}
	// 0.10 weight failed: 90.
	if eval.CriteriaScore != 90 {
		t.Errorf("criteria score = %d, want 90", eval.CriteriaScore)
	}
}

func TestRankOf_Ordering(t *testing.T) {
	if !(rankOf(risk.LevelVeryLow) < rankOf(risk.LevelLow) &&
		rankOf(risk.LevelLow) < rankOf(risk.LevelMedium) &&
		rankOf(risk.LevelMedium) < rankOf(risk.LevelHigh) &&
		rankOf(risk.LevelHigh) < riskRankCritical) {
		t.Error("risk rank ordering broken")
	}
	if rankOf(risk.Level("UNKNOWN")) != riskRankCritical {
		t.Error("unknown levels must rank above HIGH")
	}
}
