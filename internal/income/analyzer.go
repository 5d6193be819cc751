package income

import (
	"math"
	"sort"

	"github.com/helioslend/helios/internal/statement"
)

// Analyzer computes deterministic income stability scores. Side-effect-free
// and safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer with the production stability constants.
func NewAnalyzer() *Analyzer {
	return &Analyzer{cfg: DefaultConfig()}
}

// NewAnalyzerWithConfig creates an analyzer with custom constants.
func NewAnalyzerWithConfig(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze scores the cadence and size regularity of income-like deposits.
func (a *Analyzer) Analyze(txns []statement.Transaction) *Result {
	deposits := a.incomeDeposits(txns)
	if len(deposits) == 0 {
		return &Result{StabilityScore: 0, StabilityLevel: LevelInsufficient}
	}
	if len(deposits) == 1 {
		// A single material deposit gives no cadence signal. Coverage
		// alone caps the score well below the irregular band.
		return &Result{StabilityScore: 25, StabilityLevel: LevelInsufficient, DepositCount: 1}
	}

	amounts := make([]float64, len(deposits))
	for i, d := range deposits {
		amounts[i], _ = d.Amount.Float64()
	}

	amountFactor := consistency(amounts)
	cadenceFactor := consistency(gapsDays(deposits))
	coverageFactor := a.coverage(txns, deposits)

	raw := 100 * (a.cfg.AmountWeight*amountFactor +
		a.cfg.CadenceWeight*cadenceFactor +
		a.cfg.CoverageWeight*coverageFactor)

	score := int(math.Round(raw))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return &Result{
		StabilityScore: score,
		StabilityLevel: a.levelFor(score),
		DepositCount:   len(deposits),
	}
}

// incomeDeposits returns the material credits sorted by date.
func (a *Analyzer) incomeDeposits(txns []statement.Transaction) []statement.Transaction {
	var deposits []statement.Transaction
	for _, t := range txns {
		if t.IsCredit() && t.Amount.GreaterThanOrEqual(a.cfg.MaterialityThreshold) {
			deposits = append(deposits, t)
		}
	}
	sort.SliceStable(deposits, func(i, j int) bool {
		return deposits[i].Date.Before(deposits[j].Date)
	})
	return deposits
}

// gapsDays returns the day gaps between consecutive income deposits.
func gapsDays(deposits []statement.Transaction) []float64 {
	gaps := make([]float64, 0, len(deposits)-1)
	for i := 1; i < len(deposits); i++ {
		gap := deposits[i].Date.Sub(deposits[i-1].Date).Hours() / 24
		gaps = append(gaps, gap)
	}
	return gaps
}

// consistency maps a sample's coefficient of variation onto [0, 1]:
// identical values = 1.0, CV >= 1 = 0.0.
func consistency(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return 0
	}

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	cv := math.Sqrt(variance/float64(len(values))) / mean

	factor := 1 - cv
	if factor < 0 {
		factor = 0
	}
	return factor
}

// coverage is the fraction of the statement's calendar months that contain
// at least one income deposit.
func (a *Analyzer) coverage(txns, deposits []statement.Transaction) float64 {
	span := statement.PeriodDays(txns)
	if span <= 0 {
		return 0
	}
	monthsInSpan := int(math.Ceil(float64(span) / 30.0))

	seen := make(map[string]bool)
	for _, d := range deposits {
		seen[d.Date.UTC().Format("2006-01")] = true
	}

	frac := float64(len(seen)) / float64(monthsInSpan)
	if frac > 1 {
		frac = 1
	}
	return frac
}

func (a *Analyzer) levelFor(score int) string {
	switch {
	case score >= a.cfg.StableThreshold:
		return LevelStable
	case score >= a.cfg.ModerateThreshold:
		return LevelModerate
	case score >= a.cfg.IrregularThreshold:
		return LevelIrregular
	default:
		return LevelInsufficient
	}
}
