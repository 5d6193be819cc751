package waterfall

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/budget"
	"github.com/helioslend/helios/internal/risk"
)

// riskRank orders risk levels for the gate's ordinal comparison. The
// waterfall vocabulary reserves a CRITICAL rank above HIGH so the gate
// ceiling stays expressible even though the statement analyzer itself
// tops out at HIGH.
type riskRank int

const (
	riskRankVeryLow riskRank = iota
	riskRankLow
	riskRankMedium
	riskRankHigh
	riskRankCritical
)

func rankOf(level risk.Level) riskRank {
	switch level {
	case risk.LevelVeryLow:
		return riskRankVeryLow
	case risk.LevelLow:
		return riskRankLow
	case risk.LevelMedium:
		return riskRankMedium
	case risk.LevelHigh:
		return riskRankHigh
	default:
		return riskRankCritical
	}
}

// Evaluator is the criteria gate: six weighted checks plus a budget check
// decide whether external verification spend is justified, and if so,
// which providers the Veritas score tier unlocks.
type Evaluator struct {
	cfg        Config
	accountant budget.Accountant
}

// NewEvaluator creates a criteria gate backed by the given budget
// accountant.
func NewEvaluator(cfg Config, accountant budget.Accountant) *Evaluator {
	return &Evaluator{cfg: cfg, accountant: accountant}
}

// Evaluate produces the gate's decision snapshot for one analysis. When
// the gate decides to proceed, the estimated cost has been reserved
// against today's budget and the pipeline must later commit or release it.
func (e *Evaluator) Evaluate(ctx context.Context, helios *HeliosAnalysis) (*CriteriaEvaluation, error) {
	checks := e.runChecks(helios)

	var passedWeight, totalWeight float64
	passed := 0
	for _, c := range checks {
		totalWeight += c.Weight
		if c.Passed {
			passedWeight += c.Weight
			passed++
		}
	}
	score := int(math.Round(100 * passedWeight / totalWeight))

	eval := &CriteriaEvaluation{
		CriteriaScore: score,
		PassedChecks:  passed,
		TotalChecks:   len(checks),
		Checks:        checks,
		CostSaved:     decimal.Zero,
	}

	estimate := e.cfg.EstimatedCost()
	criteriaMet := score >= e.cfg.ProceedThreshold

	budgetCheck, err := e.checkBudget(ctx, estimate, criteriaMet)
	if err != nil {
		return nil, fmt.Errorf("budget check: %w", err)
	}
	eval.Budget = budgetCheck

	switch {
	case !criteriaMet:
		eval.CostSaved = estimate
		eval.Reason = fmt.Sprintf("criteria score %d below threshold %d; skipping external verification (saved $%s)",
			score, e.cfg.ProceedThreshold, estimate)
	case !budgetCheck.Passed:
		eval.CostSaved = estimate
		eval.Reason = fmt.Sprintf("verification budget exhausted ($%s remaining); skipping external verification",
			budgetCheck.RemainingBudget)
	default:
		eval.ShouldProceed = true
		eval.APIPlan = e.selectPlan(helios.VeritasScore.Score)
		eval.Reason = fmt.Sprintf("criteria score %d; proceeding with external verification", score)
	}

	return eval, nil
}

func (e *Evaluator) runChecks(helios *HeliosAnalysis) []CheckResult {
	fin := helios.FinancialSummary
	riskResult := helios.RiskAnalysis

	return []CheckResult{
		{
			Name:      "veritas_score",
			Passed:    helios.VeritasScore.Score >= e.cfg.MinVeritasScore,
			Weight:    e.cfg.VeritasWeight,
			Actual:    fmt.Sprintf("%d", helios.VeritasScore.Score),
			Threshold: fmt.Sprintf(">= %d", e.cfg.MinVeritasScore),
		},
		{
			Name:      "transaction_count",
			Passed:    fin.TransactionCount >= e.cfg.MinTransactionCount,
			Weight:    e.cfg.VolumeWeight,
			Actual:    fmt.Sprintf("%d", fin.TransactionCount),
			Threshold: fmt.Sprintf(">= %d", e.cfg.MinTransactionCount),
		},
		{
			Name:      "statement_duration",
			Passed:    fin.PeriodDays >= e.cfg.MinStatementDays,
			Weight:    e.cfg.DurationWeight,
			Actual:    fmt.Sprintf("%d days", fin.PeriodDays),
			Threshold: fmt.Sprintf(">= %d days", e.cfg.MinStatementDays),
		},
		{
			Name:      "average_balance",
			Passed:    fin.AverageDailyBalance.GreaterThanOrEqual(e.cfg.MinAverageBalance),
			Weight:    e.cfg.BalanceWeight,
			Actual:    "$" + fin.AverageDailyBalance.StringFixed(2),
			Threshold: ">= $" + e.cfg.MinAverageBalance.StringFixed(2),
		},
		{
			Name:      "risk_level",
			Passed:    rankOf(riskResult.RiskLevel) <= e.cfg.MaxRiskLevel,
			Weight:    e.cfg.RiskLevelWeight,
			Actual:    string(riskResult.RiskLevel),
			Threshold: "<= HIGH",
		},
		{
			Name:      "nsf_count",
			Passed:    fin.NSFCount <= e.cfg.MaxNSFCount,
			Weight:    e.cfg.NSFWeight,
			Actual:    fmt.Sprintf("%d", fin.NSFCount),
			Threshold: fmt.Sprintf("<= %d", e.cfg.MaxNSFCount),
		},
	}
}

// checkBudget verifies the estimate against the per-analysis cap and the
// shared daily budget. The reservation is only taken when the criteria
// half of the gate has already passed; otherwise the check is advisory
// and touches no shared state.
func (e *Evaluator) checkBudget(ctx context.Context, estimate decimal.Decimal, reserve bool) (BudgetCheck, error) {
	usage, err := e.accountant.Usage(ctx)
	if err != nil {
		return BudgetCheck{}, err
	}

	check := BudgetCheck{
		EstimatedCost:   estimate,
		RemainingBudget: usage.Remaining,
	}

	if estimate.GreaterThan(e.cfg.PerAnalysisCap) {
		return check, nil
	}

	if !reserve {
		check.Passed = estimate.LessThanOrEqual(usage.Remaining)
		return check, nil
	}

	ok, err := e.accountant.CheckAndReserve(ctx, estimate)
	if err != nil {
		return BudgetCheck{}, err
	}
	check.Passed = ok
	check.reserved = ok
	if ok {
		check.RemainingBudget = usage.Remaining.Sub(estimate)
	}
	return check, nil
}

// selectPlan tiers provider selection on the 0-10 normalized Veritas
// score: each provider has its own floor, so a mid-tier score can unlock
// the cheap registry check while skipping the expensive credit pull.
func (e *Evaluator) selectPlan(veritasScore int) APIPlan {
	normalized := float64(veritasScore) / 100
	return APIPlan{
		Middesk:   normalized >= e.cfg.MiddeskMinScore,
		ISoftpull: normalized >= e.cfg.ISoftpullMinScore,
		SOS:       normalized >= e.cfg.SOSMinScore,
	}
}
