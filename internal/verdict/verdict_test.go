package verdict

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name          string
		goCount       int
		cautionCount  int
		nogoCount     int
		wantStatus    string
		wantRisk      int
	}{
		{
			name:       "zero findings is trivially clear",
			wantStatus: models.StatusGo,
			wantRisk:   0,
		},
		{
			name:         "single nogo dominates",
			goCount:      8,
			cautionCount: 1,
			nogoCount:    1,
			wantStatus:   models.StatusNoGo,
			wantRisk:     75,
		},
		{
			name:         "cautions without nogo",
			goCount:      8,
			cautionCount: 2,
			wantStatus:   models.StatusCaution,
			wantRisk:     30,
		},
		{
			name:       "all clear floors at zero",
			goCount:    10,
			wantStatus: models.StatusGo,
			wantRisk:   0,
		},
		{
			name:       "few confirmed-good components keep a small baseline",
			goCount:    3,
			wantStatus: models.StatusGo,
			wantRisk:   7,
		},
		{
			name:         "nogo score caps at 100",
			cautionCount: 4,
			nogoCount:    5,
			wantStatus:   models.StatusNoGo,
			wantRisk:     100,
		},
		{
			name:         "caution score caps at 75",
			cautionCount: 9,
			wantStatus:   models.StatusCaution,
			wantRisk:     75,
		},
		{
			name:         "caution count still raises a nogo score",
			goCount:      1,
			cautionCount: 3,
			nogoCount:    1,
			wantStatus:   models.StatusNoGo,
			wantRisk:     85,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Compute(tt.goCount, tt.cautionCount, tt.nogoCount)
			assert.Equal(t, tt.wantStatus, v.OverallStatus)
			assert.Equal(t, tt.wantRisk, v.RiskScore)
			assert.Equal(t, tt.goCount, v.GoCount)
			assert.Equal(t, tt.cautionCount, v.CautionCount)
			assert.Equal(t, tt.nogoCount, v.NoGoCount)
		})
	}
}

// Folding the same multiset of statuses in any order must always produce
// the same verdict, since Compute only sees the counts.
func TestComputeOrderIndependent(t *testing.T) {
	statuses := []string{
		models.StatusGo, models.StatusGo, models.StatusCaution,
		models.StatusNoGo, models.StatusGo, models.StatusCaution,
	}

	tally := func(order []string) models.Verdict {
		var g, c, n int
		for _, s := range order {
			switch s {
			case models.StatusGo:
				g++
			case models.StatusCaution:
				c++
			case models.StatusNoGo:
				n++
			}
		}
		return Compute(g, c, n)
	}

	want := tally(statuses)
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), statuses...)
		rand.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, tally(shuffled))
	}
}

func TestSeverityDominance(t *testing.T) {
	for g := 0; g < 5; g++ {
		for c := 0; c < 5; c++ {
			assert.Equal(t, models.StatusNoGo, Overall(g, c, 1))
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	first := Compute(4, 2, 1)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(4, 2, 1))
	}
}
