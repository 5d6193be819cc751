package waterfall

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/income"
	"github.com/helioslend/helios/internal/providers"
	"github.com/helioslend/helios/internal/risk"
	"github.com/helioslend/helios/internal/veritas"
)

func heliosWithScore(score int) *HeliosAnalysis {
	return &HeliosAnalysis{
		VeritasScore: veritas.Graded(score),
		RiskAnalysis: &risk.Result{
			RiskScore: 10,
			RiskLevel: risk.LevelLow,
		},
		IncomeStability: &income.Result{
			StabilityScore: 70,
			StabilityLevel: income.LevelModerate,
		},
		FinancialSummary: &FinancialSummary{
			TransactionCount:    30,
			PeriodDays:          60,
			AverageDailyBalance: decimal.NewFromInt(3000),
		},
	}
}

func newTestConsolidator() *Consolidator {
	return NewConsolidator(DefaultConfig(), nil)
}

func TestConsolidate_NoExternalResult(t *testing.T) {
	c := newTestConsolidator()

	assessment := c.Consolidate(heliosWithScore(700), nil)

	if assessment.FinalScore != 700 {
		t.Errorf("final score = %d, want unchanged 700", assessment.FinalScore)
	}
	if assessment.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %s, want MEDIUM without external verification", assessment.Confidence)
	}
	if len(assessment.Adjustments) != 0 {
		t.Errorf("adjustments = %v, want none", assessment.Adjustments)
	}
	if assessment.FallbackApplied {
		t.Error("fallback flag must not be set on the normal path")
	}
}

func TestConsolidate_AdjustmentsApplied(t *testing.T) {
	c := newTestConsolidator()

	external := &ExternalVerificationResult{
		Middesk:        &providers.BusinessVerification{Verified: boolPtr(true)},
		ISoftpull:      &providers.CreditReport{Score: 760},
		SOS:            &providers.RegistrationCheck{Status: providers.RegistrationActive},
		ExecutionOrder: []string{providers.ServiceMiddesk, providers.ServiceISoftpull, providers.ServiceSOS},
	}

	assessment := c.Consolidate(heliosWithScore(700), external)

	// +25 verified, +40 excellent bureau, +15 active registration.
	if assessment.FinalScore != 780 {
		t.Errorf("final score = %d, want 780", assessment.FinalScore)
	}
	if assessment.FinalGrade != veritas.GradeA {
		t.Errorf("final grade = %s, want A", assessment.FinalGrade)
	}
	if assessment.Confidence != ConfidenceHigh {
		t.Errorf("confidence = %s, want HIGH", assessment.Confidence)
	}
	if assessment.Recommendation != RecommendApprove {
		t.Errorf("recommendation = %s, want APPROVE", assessment.Recommendation)
	}
	if len(assessment.Adjustments) != 3 {
		t.Errorf("adjustments = %v, want 3", assessment.Adjustments)
	}
}

func TestConsolidate_UnverifiedBusinessMalus(t *testing.T) {
	c := newTestConsolidator()

	external := &ExternalVerificationResult{
		Middesk:        &providers.BusinessVerification{Verified: boolPtr(false)},
		ExecutionOrder: []string{providers.ServiceMiddesk},
	}

	assessment := c.Consolidate(heliosWithScore(700), external)

	if assessment.FinalScore != 650 {
		t.Errorf("final score = %d, want 650", assessment.FinalScore)
	}
	if assessment.Recommendation != RecommendApproveWithConditions {
		t.Errorf("recommendation = %s, want APPROVE_WITH_CONDITIONS", assessment.Recommendation)
	}
}

func TestConsolidate_CreditBands(t *testing.T) {
	c := newTestConsolidator()

	tests := []struct {
		bureau int
		want   int // final score from internal 700
	}{
		{780, 740}, // +40
		{750, 740}, // +40 boundary
		{720, 720}, // +20
		{700, 720}, // +20 boundary
		{660, 710}, // +10
		{650, 710}, // +10 boundary
		{620, 700}, // dead band, no adjustment
		{600, 700}, // dead band lower edge
		{599, 670}, // -30
		{480, 670}, // -30
	}
	for _, tt := range tests {
		external := &ExternalVerificationResult{
			ISoftpull:      &providers.CreditReport{Score: tt.bureau},
			ExecutionOrder: []string{providers.ServiceISoftpull},
		}
		assessment := c.Consolidate(heliosWithScore(700), external)
		if assessment.FinalScore != tt.want {
			t.Errorf("bureau %d: final score = %d, want %d", tt.bureau, assessment.FinalScore, tt.want)
		}
	}
}

func TestConsolidate_ClampsAfterAdjustments(t *testing.T) {
	c := newTestConsolidator()

	external := &ExternalVerificationResult{
		Middesk:        &providers.BusinessVerification{Verified: boolPtr(true)},
		ISoftpull:      &providers.CreditReport{Score: 800},
		SOS:            &providers.RegistrationCheck{Status: providers.RegistrationActive},
		ExecutionOrder: []string{providers.ServiceMiddesk, providers.ServiceISoftpull, providers.ServiceSOS},
	}

	assessment := c.Consolidate(heliosWithScore(840), external)
	if assessment.FinalScore != veritas.MaxScore {
		t.Errorf("final score = %d, want clamped to %d", assessment.FinalScore, veritas.MaxScore)
	}

	low := &ExternalVerificationResult{
		Middesk:        &providers.BusinessVerification{Verified: boolPtr(false)},
		ISoftpull:      &providers.CreditReport{Score: 450},
		ExecutionOrder: []string{providers.ServiceMiddesk, providers.ServiceISoftpull},
	}
	assessment = c.Consolidate(heliosWithScore(320), low)
	if assessment.FinalScore != veritas.MinScore {
		t.Errorf("final score = %d, want clamped to %d", assessment.FinalScore, veritas.MinScore)
	}
	if assessment.Recommendation != RecommendDecline {
		t.Errorf("recommendation = %s, want DECLINE", assessment.Recommendation)
	}
}

func TestConsolidate_InconclusiveVerificationNoAdjustment(t *testing.T) {
	c := newTestConsolidator()

	// Verified pointer nil: provider answered but made no determination.
	external := &ExternalVerificationResult{
		Middesk:        &providers.BusinessVerification{Status: "in_review"},
		ExecutionOrder: []string{providers.ServiceMiddesk},
	}

	assessment := c.Consolidate(heliosWithScore(700), external)
	if assessment.FinalScore != 700 {
		t.Errorf("final score = %d, want unchanged 700", assessment.FinalScore)
	}
	if len(assessment.Adjustments) != 0 {
		t.Errorf("adjustments = %v, want none", assessment.Adjustments)
	}
}

func TestConsolidate_FallbackOnPanic(t *testing.T) {
	c := newTestConsolidator()

	// A nil risk result inside tryConsolidate panics only after the
	// adjustments step; force the panic via a nil HeliosAnalysis field
	// that the normal path dereferences.
	helios := heliosWithScore(680)
	helios.RiskAnalysis = nil

	external := &ExternalVerificationResult{
		SOS:            &providers.RegistrationCheck{Status: providers.RegistrationActive},
		ExecutionOrder: []string{providers.ServiceSOS},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("consolidation must not propagate panics, got %v", r)
		}
	}()
	assessment := c.Consolidate(helios, external)

	if !assessment.FallbackApplied {
		t.Fatal("expected fallback flag")
	}
	if assessment.Confidence != ConfidenceLow {
		t.Errorf("confidence = %s, want LOW on fallback", assessment.Confidence)
	}
	if assessment.FinalScore != 680 {
		t.Errorf("final score = %d, want unmodified internal 680", assessment.FinalScore)
	}
	if len(assessment.Adjustments) != 0 {
		t.Errorf("adjustments = %v, want none on fallback", assessment.Adjustments)
	}
}

func TestSummarize_MentionsDecision(t *testing.T) {
	c := newTestConsolidator()
	helios := heliosWithScore(700)
	eval := &CriteriaEvaluation{
		ShouldProceed: false,
		Reason:        "criteria score 65 below threshold 70",
		CostSaved:     decimal.NewFromInt(45),
	}
	assessment := c.Consolidate(helios, nil)

	summary := Summarize(helios, eval, assessment)
	for _, want := range []string{"700", "skipped", string(assessment.Recommendation)} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q: %s", want, summary)
		}
	}
}
