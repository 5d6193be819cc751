// Package risk scores bank-statement risk from transaction-level signals.
//
// Every statement is evaluated against 4 weighted penalties: NSF events,
// low average daily balance, high withdrawal ratio, and negative balance.
// Scores range from 0 (safe) to 100 (high risk) and map onto four levels.
package risk

import (
	"github.com/shopspring/decimal"
)

// Level buckets a risk score for downstream consumers.
type Level string

const (
	LevelVeryLow Level = "VERY_LOW"
	LevelLow     Level = "LOW"
	LevelMedium  Level = "MEDIUM"
	LevelHigh    Level = "HIGH"
)

// Result is the outcome of analyzing a single statement.
type Result struct {
	RiskScore           int             `json:"riskScore"`
	RiskLevel           Level           `json:"riskLevel"`
	NSFCount            int             `json:"nsfCount"`
	AverageDailyBalance decimal.Decimal `json:"averageDailyBalance"`
	WithdrawalRatio     decimal.Decimal `json:"withdrawalRatio"`
	TotalDeposits       decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals    decimal.Decimal `json:"totalWithdrawals"`
	PeriodDays          int             `json:"periodDays"`
}

// Config holds the scoring weights and thresholds. These are fixed business
// constants; they are exposed for tuning in tests but must default to the
// values in DefaultConfig for behavioral parity across environments.
type Config struct {
	NSFPenalty             int             // added per NSF event
	LowBalancePenalty      int             // added when avg daily balance < LowBalanceFloor
	LowBalanceFloor        decimal.Decimal // USD
	HighWithdrawalPenalty  int             // added when withdrawal ratio > WithdrawalRatioCeiling
	WithdrawalRatioCeiling decimal.Decimal
	NegativeBalancePenalty int // added when avg daily balance < 0

	HighThreshold   int // score >= HighThreshold   -> HIGH
	MediumThreshold int // score >= MediumThreshold -> MEDIUM
	LowThreshold    int // score >= LowThreshold    -> LOW
}

// DefaultConfig returns the production scoring constants.
func DefaultConfig() Config {
	return Config{
		NSFPenalty:             30,
		LowBalancePenalty:      20,
		LowBalanceFloor:        decimal.NewFromInt(1000),
		HighWithdrawalPenalty:  25,
		WithdrawalRatioCeiling: decimal.NewFromFloat(0.8),
		NegativeBalancePenalty: 40,
		HighThreshold:          80,
		MediumThreshold:        40,
		LowThreshold:           20,
	}
}
