// Package waterfall implements the staged lending-risk decision pipeline.
//
// A single analysis flows through four stages: the Helios engine (free,
// internal scoring from transactions alone), a weighted criteria gate that
// decides whether spending money on external verification is justified,
// failure-isolated execution of the selected verification providers under
// a budget cap, and consolidation of internal plus external results into
// one final assessment. Cheap checks always run; expensive ones only when
// the cheap ones say the spend is worth it.
package waterfall

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/income"
	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/risk"
	"github.com/helioslend/helios/internal/veritas"
)

var (
	ErrNoTransactions = errors.New("analysis requires at least one transaction")
)

// UserContext identifies the applicant on whose behalf the analysis runs.
// Identity fields here take precedence over statement metadata when
// building provider request payloads.
type UserContext struct {
	UserID       string `json:"userId,omitempty"`
	Email        string `json:"email,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
	TaxID        string `json:"taxId,omitempty"`
	SSN          string `json:"ssn,omitempty"`
	Address      string `json:"address,omitempty"`
	State        string `json:"state,omitempty"`
}

// FinancialSummary is the transaction-level picture carried through the
// pipeline and into the persisted analysis.
type FinancialSummary struct {
	TotalDeposits       decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals    decimal.Decimal `json:"totalWithdrawals"`
	NetCashFlow         decimal.Decimal `json:"netCashFlow"`
	AverageDailyBalance decimal.Decimal `json:"averageDailyBalance"`
	NSFCount            int             `json:"nsfCount"`
	TransactionCount    int             `json:"transactionCount"`
	PeriodDays          int             `json:"periodDays"`
}

// HeliosAnalysis is the output of the internal (no-external-cost) stage.
type HeliosAnalysis struct {
	VeritasScore     veritas.Score     `json:"veritasScore"`
	RiskAnalysis     *risk.Result      `json:"riskAnalysis"`
	IncomeStability  *income.Result    `json:"incomeStabilityAnalysis"`
	FinancialSummary *FinancialSummary `json:"financialSummary"`
}

// CheckResult records one weighted gate check.
type CheckResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Weight    float64 `json:"weight"`
	Actual    string  `json:"actual"`
	Threshold string  `json:"threshold"`
}

// APIPlan selects which external providers to call. Each provider is
// independently gated by its own score threshold, so weaker applicants can
// still trigger the cheap checks while skipping the expensive ones.
type APIPlan struct {
	Middesk   bool `json:"middesk"`
	ISoftpull bool `json:"isoftpull"`
	SOS       bool `json:"sos"`
}

// Any reports whether the plan enables at least one provider.
func (p APIPlan) Any() bool {
	return p.Middesk || p.ISoftpull || p.SOS
}

// BudgetCheck is the monetary half of the gate decision.
type BudgetCheck struct {
	Passed          bool            `json:"passed"`
	EstimatedCost   decimal.Decimal `json:"estimatedCost"`
	RemainingBudget decimal.Decimal `json:"remainingBudget"`

	// reserved marks that EstimatedCost is held against today's budget
	// and must be committed or released by the pipeline.
	reserved bool
}

// Reserved reports whether the estimate is currently held against the
// daily budget.
func (b BudgetCheck) Reserved() bool { return b.reserved }

// CriteriaEvaluation is the gate's decision snapshot. It is created fresh
// for every analysis and never mutated afterward.
type CriteriaEvaluation struct {
	ShouldProceed bool            `json:"shouldProceed"`
	CriteriaScore int             `json:"criteriaScore"`
	PassedChecks  int             `json:"passedChecks"`
	TotalChecks   int             `json:"totalChecks"`
	Checks        []CheckResult   `json:"checks"`
	APIPlan       APIPlan         `json:"apiPlan"`
	Budget        BudgetCheck     `json:"budgetCheck"`
	CostSaved     decimal.Decimal `json:"costSaved"`
	Reason        string          `json:"reason"`
}

// OutcomeStatus tags a provider call outcome. Pipeline logic branches on
// this tag instead of catching errors for expected conditions.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the per-provider execution record.
type Outcome struct {
	Service    string          `json:"service"`
	Status     OutcomeStatus   `json:"status"`
	Error      string          `json:"error,omitempty"`
	Cost       decimal.Decimal `json:"cost"`
	DurationMS int64           `json:"durationMs"`
}

// ProviderFailure is the error entry recorded when a provider call fails.
// A provider absent from both ExecutionOrder and Errors was skipped by the
// plan, which is distinct from attempted-and-failed.
type ProviderFailure struct {
	Service string `json:"service"`
	Error   string `json:"error"`
	Impact  string `json:"impact"`
}

// ExternalVerificationResult aggregates the provider stage. A nil provider
// result means the call was not attempted.
type ExternalVerificationResult struct {
	Middesk        *providers.BusinessVerification `json:"middesk,omitempty"`
	ISoftpull      *providers.CreditReport         `json:"isoftpull,omitempty"`
	SOS            *providers.RegistrationCheck    `json:"sos,omitempty"`
	Errors         []ProviderFailure               `json:"errors"`
	TotalCost      decimal.Decimal                 `json:"totalCost"`
	ExecutionOrder []string                        `json:"executionOrder"`
	Outcomes       []Outcome                       `json:"outcomes"`
}

// Executed reports whether at least one provider returned a result.
func (r *ExternalVerificationResult) Executed() bool {
	return r != nil && len(r.ExecutionOrder) > 0
}

// Confidence expresses how much external corroboration backs the final
// assessment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Recommendation is the four-tier final verdict.
type Recommendation string

const (
	RecommendApprove               Recommendation = "APPROVE"
	RecommendApproveWithConditions Recommendation = "APPROVE_WITH_CONDITIONS"
	RecommendReview                Recommendation = "REVIEW"
	RecommendDecline               Recommendation = "DECLINE"
)

// Adjustment records one external-verification score adjustment.
type Adjustment struct {
	Source string `json:"source"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// EnhancedRiskAssessment is the post-consolidation verdict.
type EnhancedRiskAssessment struct {
	FinalScore      int            `json:"finalScore"`
	FinalGrade      veritas.Grade  `json:"finalGrade"`
	RiskLevel       risk.Level     `json:"riskLevel"`
	Confidence      Confidence     `json:"confidence"`
	Recommendation  Recommendation `json:"recommendation"`
	Adjustments     []Adjustment   `json:"adjustments"`
	FallbackApplied bool           `json:"fallbackApplied"`
}

// WaterfallMeta carries the gate snapshot, money accounting, and stage
// timings for the analysis.
type WaterfallMeta struct {
	CriteriaEvaluation *CriteriaEvaluation `json:"criteriaEvaluation"`
	TotalCost          decimal.Decimal     `json:"totalCost"`
	CostSaved          decimal.Decimal     `json:"costSaved"`
	StageTimingsMS     map[string]int64    `json:"stageTimingsMs"`
}

// ConsolidatedAnalysis is the sole artifact returned to the caller. The
// pipeline retains no state between calls; every invocation is a pure
// function of its inputs plus the injected budget state.
type ConsolidatedAnalysis struct {
	ID                   string                      `json:"id"`
	AccountID            string                      `json:"accountId,omitempty"`
	ExecutiveSummary     string                      `json:"executiveSummary"`
	HeliosEngine         *HeliosAnalysis             `json:"heliosEngine"`
	ExternalVerification *ExternalVerificationResult `json:"externalVerification,omitempty"`
	EnhancedRisk         EnhancedRiskAssessment      `json:"enhancedRiskAssessment"`
	Waterfall            WaterfallMeta               `json:"waterfallAnalysis"`
	CreatedAt            time.Time                   `json:"createdAt"`
}
