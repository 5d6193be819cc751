package waterfall

import "github.com/shopspring/decimal"

// Config centralizes the gate thresholds, check weights, provider costs,
// budget caps, and consolidation adjustments. Defaults are fixed business
// constants; alternate configurations exist for deterministic testing, not
// for per-environment drift.
type Config struct {
	// Criteria gate.
	MinVeritasScore     int // check 1 threshold
	MinTransactionCount int
	MinStatementDays    int
	MinAverageBalance   decimal.Decimal
	MaxRiskLevel        riskRank // ordinal ceiling, check 5
	MaxNSFCount         int
	VeritasWeight       float64 // check weights
	VolumeWeight        float64
	DurationWeight      float64
	BalanceWeight       float64
	RiskLevelWeight     float64
	NSFWeight           float64
	ProceedThreshold    int // criteriaScore required to proceed

	// Provider plan thresholds on the 0-10 normalized Veritas scale.
	MiddeskMinScore   float64
	ISoftpullMinScore float64
	SOSMinScore       float64

	// Provider costs and budget caps (USD).
	MiddeskCost    decimal.Decimal
	ISoftpullCost  decimal.Decimal
	SOSCost        decimal.Decimal
	PerAnalysisCap decimal.Decimal

	// Consolidation adjustments.
	BusinessVerifiedBonus   int
	BusinessUnverifiedMalus int
	CreditExcellentBonus    int // bureau score >= 750
	CreditGoodBonus         int // >= 700
	CreditFairBonus         int // >= 650
	CreditPoorMalus         int // < 600
	RegistrationActiveBonus int

	// Recommendation tiers on the final score.
	ApproveThreshold     int
	ConditionalThreshold int
	ReviewThreshold      int
}

// DefaultConfig returns the production waterfall constants.
func DefaultConfig() Config {
	return Config{
		MinVeritasScore:     600,
		MinTransactionCount: 10,
		MinStatementDays:    30,
		MinAverageBalance:   decimal.NewFromInt(1000),
		MaxRiskLevel:        riskRankHigh,
		MaxNSFCount:         3,
		VeritasWeight:       0.30,
		VolumeWeight:        0.15,
		DurationWeight:      0.10,
		BalanceWeight:       0.20,
		RiskLevelWeight:     0.15,
		NSFWeight:           0.10,
		ProceedThreshold:    70,

		MiddeskMinScore:   6.5,
		ISoftpullMinScore: 7.5,
		SOSMinScore:       6.0,

		MiddeskCost:    decimal.NewFromInt(25),
		ISoftpullCost:  decimal.NewFromInt(15),
		SOSCost:        decimal.NewFromInt(5),
		PerAnalysisCap: decimal.NewFromInt(50),

		BusinessVerifiedBonus:   25,
		BusinessUnverifiedMalus: -50,
		CreditExcellentBonus:    40,
		CreditGoodBonus:         20,
		CreditFairBonus:         10,
		CreditPoorMalus:         -30,
		RegistrationActiveBonus: 15,

		ApproveThreshold:     750,
		ConditionalThreshold: 650,
		ReviewThreshold:      550,
	}
}

// EstimatedCost is the full per-analysis external spend estimate. The gate
// budgets for the worst case (all three providers) regardless of which the
// plan later enables.
func (c Config) EstimatedCost() decimal.Decimal {
	return c.MiddeskCost.Add(c.ISoftpullCost).Add(c.SOSCost)
}
