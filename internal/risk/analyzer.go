package risk

import (
	"github.com/shopspring/decimal"

	"github.com/helioslend/helios/internal/statement"
)

// Analyzer computes bounded risk scores from statement transactions.
// Pure in-memory computation; safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with the production scoring constants.
func NewAnalyzer() *Analyzer {
	return &Analyzer{cfg: DefaultConfig()}
}

// NewAnalyzerWithConfig creates an analyzer with custom scoring constants.
func NewAnalyzerWithConfig(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze scores a transaction set against the configured penalties.
// The score is clamped to [0, 100] and is monotonic non-decreasing in
// both NSF count and withdrawal ratio.
func (a *Analyzer) Analyze(txns []statement.Transaction, openingBalance decimal.Decimal) *Result {
	totals := statement.ComputeTotals(txns)
	nsf := statement.NSFCount(txns)
	profile := statement.AverageDailyBalance(txns, openingBalance)

	// All-withdrawal statements are maximally risky: ratio = 1 when there
	// are no deposits.
	ratio := decimal.NewFromInt(1)
	if totals.TotalDeposits.Sign() > 0 {
		ratio = totals.TotalWithdrawals.DivRound(totals.TotalDeposits, 4)
	}

	score := nsf * a.cfg.NSFPenalty
	if profile.AverageDailyBalance.LessThan(a.cfg.LowBalanceFloor) {
		score += a.cfg.LowBalancePenalty
	}
	if ratio.GreaterThan(a.cfg.WithdrawalRatioCeiling) {
		score += a.cfg.HighWithdrawalPenalty
	}
	if profile.AverageDailyBalance.Sign() < 0 {
		score += a.cfg.NegativeBalancePenalty
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return &Result{
		RiskScore:           score,
		RiskLevel:           a.levelFor(score),
		NSFCount:            nsf,
		AverageDailyBalance: profile.AverageDailyBalance,
		WithdrawalRatio:     ratio,
		TotalDeposits:       totals.TotalDeposits,
		TotalWithdrawals:    totals.TotalWithdrawals,
		PeriodDays:          profile.PeriodDays,
	}
}

func (a *Analyzer) levelFor(score int) Level {
	switch {
	case score >= a.cfg.HighThreshold:
		return LevelHigh
	case score >= a.cfg.MediumThreshold:
		return LevelMedium
	case score >= a.cfg.LowThreshold:
		return LevelLow
	default:
		return LevelVeryLow
	}
}
