package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
	"github.com/fieldmind/fieldmind-go-backend/internal/verdict"
)

func newTestInspection(t *testing.T, s *MemoryStore) *models.Inspection {
	t.Helper()
	insp := &models.Inspection{
		ID:           uuid.NewString(),
		MachineType:  "excavator",
		MachineModel: "320",
		Status:       models.InspectionPending,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateInspection(context.Background(), insp))
	return insp
}

func newFinding(inspectionID, status string) *models.Finding {
	return &models.Finding{
		ID:            uuid.NewString(),
		InspectionID:  inspectionID,
		ComponentName: "Hydraulic Hose",
		SectionName:   "Hydraulics",
		Status:        status,
		Confidence:    90,
		Finding:       "looks fine",
		CreatedAt:     time.Now(),
	}
}

func TestAppendFindingIncrementsOneTally(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	updated, err := s.AppendFinding(ctx, newFinding(insp.ID, models.StatusCaution))
	require.NoError(t, err)
	assert.Equal(t, 0, updated.GoCount)
	assert.Equal(t, 1, updated.CautionCount)
	assert.Equal(t, 0, updated.NoGoCount)

	updated, err = s.AppendFinding(ctx, newFinding(insp.ID, models.StatusNoGo))
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CautionCount)
	assert.Equal(t, 1, updated.NoGoCount)
}

func TestAppendFindingUnknownInspection(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.AppendFinding(context.Background(), newFinding("no-such-id", models.StatusGo))
	assert.ErrorIs(t, err, ErrNotFound)
}

// The sum of the three tallies must equal the number of persisted findings
// no matter how record calls interleave.
func TestTallySumInvariantUnderConcurrency(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	statuses := []string{models.StatusGo, models.StatusCaution, models.StatusNoGo}
	const perStatus = 25

	var wg sync.WaitGroup
	for _, status := range statuses {
		for i := 0; i < perStatus; i++ {
			wg.Add(1)
			go func(st string) {
				defer wg.Done()
				_, err := s.AppendFinding(ctx, newFinding(insp.ID, st))
				assert.NoError(t, err)
			}(status)
		}
	}
	wg.Wait()

	got, err := s.GetInspection(ctx, insp.ID)
	require.NoError(t, err)
	findings, err := s.ListFindings(ctx, insp.ID)
	require.NoError(t, err)

	assert.Equal(t, perStatus, got.GoCount)
	assert.Equal(t, perStatus, got.CautionCount)
	assert.Equal(t, perStatus, got.NoGoCount)
	assert.Equal(t, len(findings), got.GoCount+got.CautionCount+got.NoGoCount)
}

func TestFinalizeFreezesVerdict(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := s.AppendFinding(ctx, newFinding(insp.ID, models.StatusGo))
		require.NoError(t, err)
	}
	_, err := s.AppendFinding(ctx, newFinding(insp.ID, models.StatusCaution))
	require.NoError(t, err)
	_, err = s.AppendFinding(ctx, newFinding(insp.ID, models.StatusNoGo))
	require.NoError(t, err)

	now := time.Now()
	frozen, err := s.FinalizeInspection(ctx, insp.ID, func(in models.Inspection) (models.Verdict, string, time.Time) {
		return verdict.Compute(in.GoCount, in.CautionCount, in.NoGoCount), "abc123", now
	})
	require.NoError(t, err)
	assert.Equal(t, models.InspectionComplete, frozen.Status)
	assert.Equal(t, models.StatusNoGo, frozen.OverallStatus)
	require.NotNil(t, frozen.RiskScore)
	assert.Equal(t, 75, *frozen.RiskScore)
	assert.Equal(t, "abc123", frozen.ContentHash)

	// Second finalize fails and leaves the stored record untouched.
	_, err = s.FinalizeInspection(ctx, insp.ID, func(in models.Inspection) (models.Verdict, string, time.Time) {
		return verdict.Compute(0, 0, 0), "other", time.Now()
	})
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	got, err := s.GetInspection(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, frozen.OverallStatus, got.OverallStatus)
	assert.Equal(t, frozen.ContentHash, got.ContentHash)
	assert.Equal(t, *frozen.RiskScore, *got.RiskScore)
}

func TestClosedInspectionRejectsFindings(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	_, err := s.AppendFinding(ctx, newFinding(insp.ID, models.StatusGo))
	require.NoError(t, err)

	_, err = s.FinalizeInspection(ctx, insp.ID, func(in models.Inspection) (models.Verdict, string, time.Time) {
		return verdict.Compute(in.GoCount, in.CautionCount, in.NoGoCount), "h", time.Now()
	})
	require.NoError(t, err)

	_, err = s.AppendFinding(ctx, newFinding(insp.ID, models.StatusNoGo))
	assert.ErrorIs(t, err, ErrInspectionClosed)

	got, err := s.GetInspection(ctx, insp.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.GoCount)
	assert.Equal(t, 0, got.NoGoCount)

	findings, err := s.ListFindings(ctx, insp.ID)
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}

func TestSetAnchorKeepsFirstReference(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	_, err := s.SetAnchor(ctx, insp.ID, "ref-1", "https://ledger/ref-1", time.Now())
	assert.ErrorIs(t, err, ErrNotFinalized)

	_, err = s.FinalizeInspection(ctx, insp.ID, func(in models.Inspection) (models.Verdict, string, time.Time) {
		return verdict.Compute(0, 0, 0), "h", time.Now()
	})
	require.NoError(t, err)

	first, err := s.SetAnchor(ctx, insp.ID, "ref-1", "https://ledger/ref-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ref-1", first.LedgerReference)

	second, err := s.SetAnchor(ctx, insp.ID, "ref-2", "https://ledger/ref-2", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ref-1", second.LedgerReference)
}

func TestFindByReference(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	_, err := s.FinalizeInspection(ctx, insp.ID, func(in models.Inspection) (models.Verdict, string, time.Time) {
		return verdict.Compute(0, 0, 0), "deadbeef", time.Now()
	})
	require.NoError(t, err)
	_, err = s.SetAnchor(ctx, insp.ID, "sig-42", "https://ledger/sig-42", time.Now())
	require.NoError(t, err)

	byHash, err := s.FindByReference(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, insp.ID, byHash.ID)

	byRef, err := s.FindByReference(ctx, "sig-42")
	require.NoError(t, err)
	assert.Equal(t, insp.ID, byRef.ID)

	_, err = s.FindByReference(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ListFindings returns section order first, then recording order.
func TestListFindingsOrdering(t *testing.T) {
	s := NewMemoryStore()
	insp := newTestInspection(t, s)
	ctx := context.Background()

	base := time.Now()
	mk := func(name string, section int, offset time.Duration) *models.Finding {
		f := newFinding(insp.ID, models.StatusGo)
		f.ComponentName = name
		f.SectionOrder = section
		f.CreatedAt = base.Add(offset)
		return f
	}
	for _, f := range []*models.Finding{
		mk("Bucket Teeth", 2, 0),
		mk("Engine Oil", 1, time.Second),
		mk("Coolant", 1, 2*time.Second),
		mk("Tracks", 0, 3*time.Second),
	} {
		_, err := s.AppendFinding(ctx, f)
		require.NoError(t, err)
	}

	findings, err := s.ListFindings(ctx, insp.ID)
	require.NoError(t, err)
	var names []string
	for _, f := range findings {
		names = append(names, f.ComponentName)
	}
	assert.Equal(t, []string{"Tracks", "Engine Oil", "Coolant", "Bucket Teeth"}, names)
}
