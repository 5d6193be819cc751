package waterfall

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/budget"
	"github.com/helioslend/helios/internal/idgen"
	"github.com/helioslend/helios/internal/income"
	"github.com/helioslend/helios/internal/metrics"
	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/risk"
	"github.com/helioslend/helios/internal/statement"
	"github.com/helioslend/helios/internal/traces"
	"github.com/helioslend/helios/internal/veritas"
)

// Service orchestrates one full waterfall analysis: internal scoring,
// criteria gate, external verification, consolidation.
type Service struct {
	cfg          Config
	riskAnalyzer *risk.Analyzer
	incomeAzr    *income.Analyzer
	scorer       *veritas.Scorer
	evaluator    *Evaluator
	executor     *Executor
	consolidator *Consolidator
	accountant   budget.Accountant
	logger       *slog.Logger
}

// NewService wires the pipeline stages over the given provider set and
// budget accountant.
func NewService(cfg Config, set providers.Set, accountant budget.Accountant, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		riskAnalyzer: risk.NewAnalyzer(),
		incomeAzr:    income.NewAnalyzer(),
		scorer:       veritas.NewScorer(),
		evaluator:    NewEvaluator(cfg, accountant),
		executor:     NewExecutor(cfg, set, logger),
		consolidator: NewConsolidator(cfg, logger),
		accountant:   accountant,
		logger:       logger,
	}
}

// Run executes the full pipeline for one statement. The only failure
// modes are an empty transaction list and a budget-accounting error;
// provider failures and scoring hiccups degrade inside the result
// instead of surfacing here.
func (s *Service) Run(ctx context.Context, txns []statement.Transaction, stmtCtx statement.Context, user UserContext) (*ConsolidatedAnalysis, error) {
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}

	ctx, span := traces.StartSpan(ctx, "waterfall.run", traces.AccountID(stmtCtx.AccountID))
	defer span.End()

	timings := map[string]int64{}
	stage := func(name string, start time.Time) {
		elapsed := time.Since(start)
		timings[name] = elapsed.Milliseconds()
		metrics.ObserveStage(name, elapsed)
	}

	start := time.Now()
	helios := s.analyze(txns, stmtCtx)
	stage("helios_engine", start)

	start = time.Now()
	eval, err := s.evaluator.Evaluate(ctx, helios)
	if err != nil {
		return nil, err
	}
	stage("criteria_evaluation", start)
	metrics.RecordGateDecision(eval.ShouldProceed)

	var external *ExternalVerificationResult
	totalCost := decimal.Zero
	if eval.ShouldProceed {
		start = time.Now()
		external = s.executor.Execute(ctx, stmtCtx, user, eval.APIPlan)
		stage("external_verification", start)

		totalCost = external.TotalCost
		for _, o := range external.Outcomes {
			metrics.RecordProviderCall(o.Service, string(o.Status))
		}
		if err := s.settle(ctx, eval, totalCost); err != nil {
			return nil, err
		}
	} else if eval.Budget.Reserved() {
		// Reservation without execution should not happen, but a held
		// estimate must never leak.
		if err := s.accountant.Release(ctx, eval.Budget.EstimatedCost); err != nil {
			return nil, err
		}
	}

	start = time.Now()
	assessment := s.consolidator.Consolidate(helios, external)
	stage("consolidation", start)

	metrics.RecordAnalysis(string(assessment.Recommendation))
	spent, _ := totalCost.Float64()
	metrics.AddVerificationSpend(spent)

	analysis := &ConsolidatedAnalysis{
		ID:                   idgen.WithPrefix("wfa_"),
		AccountID:            stmtCtx.AccountID,
		ExecutiveSummary:     Summarize(helios, eval, assessment),
		HeliosEngine:         helios,
		ExternalVerification: external,
		EnhancedRisk:         assessment,
		Waterfall: WaterfallMeta{
			CriteriaEvaluation: eval,
			TotalCost:          totalCost,
			CostSaved:          eval.CostSaved,
			StageTimingsMS:     timings,
		},
		CreatedAt: time.Now().UTC(),
	}

	s.logger.Info("waterfall analysis complete",
		"analysis_id", analysis.ID,
		"account_id", analysis.AccountID,
		"veritas_score", helios.VeritasScore.Score,
		"final_score", assessment.FinalScore,
		"recommendation", assessment.Recommendation,
		"proceeded", eval.ShouldProceed,
		"total_cost", totalCost,
	)

	return analysis, nil
}

// analyze runs the free internal stage. Risk and income analysis have no
// data dependency on each other and run concurrently.
func (s *Service) analyze(txns []statement.Transaction, stmtCtx statement.Context) *HeliosAnalysis {
	var (
		wg           sync.WaitGroup
		riskResult   *risk.Result
		incomeResult *income.Result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		riskResult = s.riskAnalyzer.Analyze(txns, stmtCtx.OpeningBalance)
	}()
	go func() {
		defer wg.Done()
		incomeResult = s.incomeAzr.Analyze(txns)
	}()
	wg.Wait()

	return &HeliosAnalysis{
		VeritasScore:    s.scorer.Calculate(riskResult, incomeResult, len(txns)),
		RiskAnalysis:    riskResult,
		IncomeStability: incomeResult,
		FinancialSummary: &FinancialSummary{
			TotalDeposits:       riskResult.TotalDeposits,
			TotalWithdrawals:    riskResult.TotalWithdrawals,
			NetCashFlow:         riskResult.TotalDeposits.Sub(riskResult.TotalWithdrawals),
			AverageDailyBalance: riskResult.AverageDailyBalance,
			NSFCount:            riskResult.NSFCount,
			TransactionCount:    len(txns),
			PeriodDays:          riskResult.PeriodDays,
		},
	}
}

// settle converts the gate's reservation into actual spend. Failed and
// skipped providers cost nothing, so the unspent remainder of the
// estimate goes back to today's budget.
func (s *Service) settle(ctx context.Context, eval *CriteriaEvaluation, actual decimal.Decimal) error {
	if !eval.Budget.Reserved() {
		return nil
	}
	return s.accountant.Commit(ctx, eval.Budget.EstimatedCost, actual)
}
