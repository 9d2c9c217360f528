package verdict

import (
	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

// Compute rolls a set of per-component tallies up into the overall verdict.
// It is a pure function of the three counts: recording order never matters,
// and it is total over all non-negative inputs so finalization can never
// fail on aggregation.
func Compute(goCount, cautionCount, nogoCount int) models.Verdict {
	return models.Verdict{
		OverallStatus: Overall(goCount, cautionCount, nogoCount),
		RiskScore:     Risk(goCount, cautionCount, nogoCount),
		GoCount:       goCount,
		CautionCount:  cautionCount,
		NoGoCount:     nogoCount,
	}
}

// Overall applies severity dominance: the worst component status observed
// decides the whole inspection.
func Overall(goCount, cautionCount, nogoCount int) string {
	switch {
	case nogoCount > 0:
		return models.StatusNoGo
	case cautionCount > 0:
		return models.StatusCaution
	default:
		return models.StatusGo
	}
}

// Risk maps tallies to a 0-100 score.
//
// Any NO-GO puts the score in the upper band, each additional NO-GO adds 20
// and each CAUTION adds 5, capped at 100. CAUTION-only inspections score
// 15 per caution capped at 75. All-clear inspections start at a baseline of
// 10 and each confirmed-good component lowers it, floored at 0. An
// inspection finalized with no findings at all is trivially clear: risk 0.
func Risk(goCount, cautionCount, nogoCount int) int {
	switch {
	case nogoCount > 0:
		score := 50 + 20*nogoCount + 5*cautionCount
		if score > 100 {
			score = 100
		}
		return score
	case cautionCount > 0:
		score := 15 * cautionCount
		if score > 75 {
			score = 75
		}
		return score
	case goCount > 0:
		score := 10 - goCount
		if score < 0 {
			score = 0
		}
		return score
	default:
		return 0
	}
}
