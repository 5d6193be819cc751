package veritas

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/income"
	"github.com/helioslend/helios/internal/risk"
)

// Config holds the composite weighting. Components are normalized to
// [0, 1] and blended; the blend spans the 550 points above the 300 base.
type Config struct {
	RiskWeight    float64 // inverted statement risk score
	IncomeWeight  float64 // income stability score
	NSFWeight     float64 // NSF penalty curve
	BalanceWeight float64 // average daily balance band
	VolumeWeight  float64 // transaction count band
}

// DefaultConfig returns the production composite weights.
func DefaultConfig() Config {
	return Config{
		RiskWeight:    0.35,
		IncomeWeight:  0.25,
		NSFWeight:     0.15,
		BalanceWeight: 0.15,
		VolumeWeight:  0.10,
	}
}

// Scorer computes Veritas scores from the internal analysis results.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer with the production weights.
func NewScorer() *Scorer {
	return &Scorer{cfg: DefaultConfig()}
}

// NewScorerWithConfig creates a scorer with custom weights.
func NewScorerWithConfig(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Calculate blends the risk and income results with the statement's
// volume signal into a clamped, graded 300-850 score.
func (s *Scorer) Calculate(riskResult *risk.Result, incomeResult *income.Result, txnCount int) Score {
	blend := s.cfg.RiskWeight*riskComponent(riskResult.RiskScore) +
		s.cfg.IncomeWeight*float64(incomeResult.StabilityScore)/100 +
		s.cfg.NSFWeight*nsfComponent(riskResult.NSFCount) +
		s.cfg.BalanceWeight*balanceComponent(riskResult.AverageDailyBalance) +
		s.cfg.VolumeWeight*volumeComponent(txnCount)

	raw := MinScore + int(math.Round(blend*(MaxScore-MinScore)))
	return Graded(raw)
}

func riskComponent(riskScore int) float64 {
	return float64(100-riskScore) / 100
}

// nsfComponent decays sharply: a single NSF event already forfeits nearly
// half the component.
func nsfComponent(nsfCount int) float64 {
	switch {
	case nsfCount == 0:
		return 1.0
	case nsfCount == 1:
		return 0.6
	case nsfCount == 2:
		return 0.35
	case nsfCount == 3:
		return 0.15
	default:
		return 0.0
	}
}

func balanceComponent(avg decimal.Decimal) float64 {
	switch {
	case avg.GreaterThanOrEqual(decimal.NewFromInt(5000)):
		return 1.0
	case avg.GreaterThanOrEqual(decimal.NewFromInt(2500)):
		return 0.8
	case avg.GreaterThanOrEqual(decimal.NewFromInt(1000)):
		return 0.6
	case avg.Sign() >= 0:
		return 0.3
	default:
		return 0.0
	}
}

func volumeComponent(txnCount int) float64 {
	switch {
	case txnCount >= 40:
		return 1.0
	case txnCount >= 20:
		return 0.75
	case txnCount >= 10:
		return 0.5
	case txnCount >= 5:
		return 0.25
	case txnCount >= 1:
		return 0.1
	default:
		return 0.0
	}
}
