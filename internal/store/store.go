package store

import (
	"context"
	"errors"
	"time"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

var (
	// ErrNotFound means the referenced inspection id is unknown.
	ErrNotFound = errors.New("inspection not found")
	// ErrInspectionClosed guards the immutability of a finalized
	// inspection: no finding may be recorded after completion.
	ErrInspectionClosed = errors.New("inspection already complete")
	// ErrAlreadyCompleted is returned on a duplicate finalize attempt.
	ErrAlreadyCompleted = errors.New("inspection already finalized")
	// ErrNotFinalized is returned when anchoring a pending inspection.
	ErrNotFinalized = errors.New("inspection not finalized")
)

// FinalizeFunc computes the frozen completion record from the inspection
// state captured inside the finalize critical section. It must be pure:
// the store may call it more than once if a concurrent finding lands
// between the read and the status flip.
type FinalizeFunc func(insp models.Inspection) (v models.Verdict, contentHash string, completedAt time.Time)

// InspectionStore persists inspections and their findings. Implementations
// must keep the tally-sum invariant: the three status counters on an
// inspection always add up to the number of findings persisted for it,
// under any interleaving of calls.
type InspectionStore interface {
	CreateInspection(ctx context.Context, insp *models.Inspection) error
	GetInspection(ctx context.Context, id string) (*models.Inspection, error)
	ListInspections(ctx context.Context, limit int) ([]models.Inspection, error)
	ListFindings(ctx context.Context, inspectionID string) ([]models.Finding, error)

	// AppendFinding persists the finding and increments exactly one tally
	// on its inspection. Fails with ErrInspectionClosed once the
	// inspection is complete, leaving nothing behind.
	AppendFinding(ctx context.Context, finding *models.Finding) (*models.Inspection, error)

	// FinalizeInspection flips the inspection to complete exactly once,
	// writing the verdict computed by fn atomically with the status
	// change. A second call fails with ErrAlreadyCompleted.
	FinalizeInspection(ctx context.Context, id string, fn FinalizeFunc) (*models.Inspection, error)

	// SetAnchor records the ledger reference for a finalized inspection.
	// If a reference is already present it is kept and returned unchanged.
	SetAnchor(ctx context.Context, id, reference, ledgerURL string, anchoredAt time.Time) (*models.Inspection, error)

	// FindByReference resolves an inspection by ledger reference or
	// content hash for public verification.
	FindByReference(ctx context.Context, reference string) (*models.Inspection, error)
}
