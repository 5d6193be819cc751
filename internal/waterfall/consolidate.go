package waterfall

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/risk"
	"github.com/helioslend/helios/internal/veritas"
)

// Consolidator merges the internal analysis with external verification
// outcomes into the final assessment. Adjustments apply only for
// providers that actually ran and returned a result.
type Consolidator struct {
	cfg    Config
	logger *slog.Logger
}

// NewConsolidator creates a consolidator with the given adjustment and
// recommendation constants.
func NewConsolidator(cfg Config, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{cfg: cfg, logger: logger}
}

// Consolidate computes the enhanced assessment. It never fails: any panic
// while scoring degrades to the unmodified internal score with LOW
// confidence and an explicit fallback flag, so callers always receive a
// complete assessment.
func (c *Consolidator) Consolidate(helios *HeliosAnalysis, external *ExternalVerificationResult) EnhancedRiskAssessment {
	assessment, ok := c.tryConsolidate(helios, external)
	if ok {
		return assessment
	}

	// The fallback path assumes as little about its input as possible.
	internal := helios.VeritasScore
	var level risk.Level
	if helios.RiskAnalysis != nil {
		level = helios.RiskAnalysis.RiskLevel
	}
	return EnhancedRiskAssessment{
		FinalScore:      internal.Score,
		FinalGrade:      internal.Grade,
		RiskLevel:       level,
		Confidence:      ConfidenceLow,
		Recommendation:  c.recommendFor(internal.Score),
		Adjustments:     []Adjustment{},
		FallbackApplied: true,
	}
}

func (c *Consolidator) tryConsolidate(helios *HeliosAnalysis, external *ExternalVerificationResult) (assessment EnhancedRiskAssessment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("score consolidation failed, falling back to internal score", "panic", r)
			ok = false
		}
	}()

	adjustments := c.adjustments(external)
	total := 0
	for _, a := range adjustments {
		total += a.Points
	}

	final := veritas.Graded(helios.VeritasScore.Score + total)

	confidence := ConfidenceMedium
	if external.Executed() {
		confidence = ConfidenceHigh
	}

	return EnhancedRiskAssessment{
		FinalScore:     final.Score,
		FinalGrade:     final.Grade,
		RiskLevel:      helios.RiskAnalysis.RiskLevel,
		Confidence:     confidence,
		Recommendation: c.recommendFor(final.Score),
		Adjustments:    adjustments,
	}, true
}

func (c *Consolidator) adjustments(external *ExternalVerificationResult) []Adjustment {
	adjustments := []Adjustment{}
	if external == nil {
		return adjustments
	}

	if v := external.Middesk; v != nil && v.Verified != nil {
		if *v.Verified {
			adjustments = append(adjustments, Adjustment{
				Source: providers.ServiceMiddesk,
				Points: c.cfg.BusinessVerifiedBonus,
				Reason: "business identity verified",
			})
		} else {
			adjustments = append(adjustments, Adjustment{
				Source: providers.ServiceMiddesk,
				Points: c.cfg.BusinessUnverifiedMalus,
				Reason: "business identity could not be verified",
			})
		}
	}

	if r := external.ISoftpull; r != nil {
		if points, reason, apply := c.creditAdjustment(r.Score); apply {
			adjustments = append(adjustments, Adjustment{
				Source: providers.ServiceISoftpull,
				Points: points,
				Reason: reason,
			})
		}
	}

	if r := external.SOS; r != nil && r.Status == providers.RegistrationActive {
		adjustments = append(adjustments, Adjustment{
			Source: providers.ServiceSOS,
			Points: c.cfg.RegistrationActiveBonus,
			Reason: "state registration active",
		})
	}

	return adjustments
}

// creditAdjustment maps a bureau score onto its additive adjustment.
// Scores in [600, 650) fall through with no adjustment.
func (c *Consolidator) creditAdjustment(score int) (int, string, bool) {
	switch {
	case score >= 750:
		return c.cfg.CreditExcellentBonus, fmt.Sprintf("excellent bureau score %d", score), true
	case score >= 700:
		return c.cfg.CreditGoodBonus, fmt.Sprintf("good bureau score %d", score), true
	case score >= 650:
		return c.cfg.CreditFairBonus, fmt.Sprintf("fair bureau score %d", score), true
	case score < 600:
		return c.cfg.CreditPoorMalus, fmt.Sprintf("poor bureau score %d", score), true
	default:
		return 0, "", false
	}
}

func (c *Consolidator) recommendFor(finalScore int) Recommendation {
	switch {
	case finalScore >= c.cfg.ApproveThreshold:
		return RecommendApprove
	case finalScore >= c.cfg.ConditionalThreshold:
		return RecommendApproveWithConditions
	case finalScore >= c.cfg.ReviewThreshold:
		return RecommendReview
	default:
		return RecommendDecline
	}
}

// Summarize renders the one-paragraph executive summary for the
// consolidated analysis.
func Summarize(helios *HeliosAnalysis, eval *CriteriaEvaluation, assessment EnhancedRiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Veritas score %d (%s) from %d transactions over %d days; risk level %s, income stability %s.",
		helios.VeritasScore.Score,
		helios.VeritasScore.Grade,
		helios.FinancialSummary.TransactionCount,
		helios.FinancialSummary.PeriodDays,
		helios.RiskAnalysis.RiskLevel,
		helios.IncomeStability.StabilityLevel,
	)
	if eval.ShouldProceed {
		fmt.Fprintf(&b, " External verification ran with %d adjustment(s).", len(assessment.Adjustments))
	} else {
		fmt.Fprintf(&b, " External verification skipped: %s.", eval.Reason)
	}
	fmt.Fprintf(&b, " Final score %d (%s), %s confidence, recommendation %s.",
		assessment.FinalScore,
		assessment.FinalGrade,
		assessment.Confidence,
		assessment.Recommendation,
	)
	if assessment.FallbackApplied {
		b.WriteString(" Consolidation fell back to the internal score.")
	}
	return b.String()
}
