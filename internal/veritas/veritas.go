// Package veritas computes the composite 300-850 creditworthiness score.
//
// The Veritas score blends the statement risk score, income stability,
// NSF history, average balance, and transaction volume into a single
// number on the familiar consumer-credit-score range so downstream
// consumers can reason about it with the usual tiers. Grades are a fixed
// step function of the score.
package veritas

// Grade is a letter band over the Veritas score range.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeDPlus Grade = "D+"
	GradeD     Grade = "D"
)

// Score range bounds. Scores are clamped into this range before grading,
// including after post-verification adjustments.
const (
	MinScore = 300
	MaxScore = 850
)

// Score is a graded Veritas score.
type Score struct {
	Score int   `json:"score"`
	Grade Grade `json:"grade"`
}

// GradeFor maps a score onto its letter grade. Callers must clamp first;
// Clamp and GradeFor together keep grading deterministic for any input.
func GradeFor(score int) Grade {
	switch {
	case score >= 800:
		return GradeAPlus
	case score >= 750:
		return GradeA
	case score >= 700:
		return GradeBPlus
	case score >= 650:
		return GradeB
	case score >= 600:
		return GradeCPlus
	case score >= 550:
		return GradeC
	case score >= 500:
		return GradeDPlus
	default:
		return GradeD
	}
}

// Clamp bounds a score to [300, 850].
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Graded returns the clamped, graded form of a raw score.
func Graded(raw int) Score {
	s := Clamp(raw)
	return Score{Score: s, Grade: GradeFor(s)}
}
