// Package income scores the regularity of income-like deposits.
//
// Deposits above a materiality threshold are treated as income events and
// evaluated against 3 weighted factors: amount consistency, cadence
// regularity, and period coverage. Scores range from 0 (no usable income
// signal) to 100 (steady payroll-like income).
package income

import (
	"github.com/shopspring/decimal"
)

// Levels bucket a stability score for downstream consumers.
const (
	LevelStable       = "STABLE"
	LevelModerate     = "MODERATE"
	LevelIrregular    = "IRREGULAR"
	LevelInsufficient = "INSUFFICIENT"
)

// Result is the outcome of analyzing a statement's income deposits.
type Result struct {
	StabilityScore int    `json:"stabilityScore"`
	StabilityLevel string `json:"stabilityLevel"`
	DepositCount   int    `json:"depositCount"`
}

// Config holds the stability scoring constants.
type Config struct {
	MaterialityThreshold decimal.Decimal // deposits below this are ignored

	AmountWeight   float64 // consistency of deposit amounts
	CadenceWeight  float64 // regularity of inter-deposit gaps
	CoverageWeight float64 // fraction of the period with income activity

	StableThreshold    int
	ModerateThreshold  int
	IrregularThreshold int
}

// DefaultConfig returns the production stability constants.
func DefaultConfig() Config {
	return Config{
		MaterialityThreshold: decimal.NewFromInt(500),
		AmountWeight:         0.40,
		CadenceWeight:        0.35,
		CoverageWeight:       0.25,
		StableThreshold:      80,
		ModerateThreshold:    60,
		IrregularThreshold:   40,
	}
}
