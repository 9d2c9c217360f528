package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fieldmind/fieldmind-go-backend/internal/models"
)

// MemoryStore keeps inspections in process memory. Each inspection carries
// its own mutex so recording on one inspection never blocks another; the
// critical section covers only the closed-check plus the tally increment,
// never the classifier call (which happens before the store is touched).
type MemoryStore struct {
	mu          sync.RWMutex
	inspections map[string]*memoryEntry
}

type memoryEntry struct {
	mu       sync.Mutex
	insp     models.Inspection
	findings []models.Finding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{inspections: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) CreateInspection(ctx context.Context, insp *models.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *insp
	s.inspections[insp.ID] = &memoryEntry{insp: cp}
	return nil
}

func (s *MemoryStore) entry(id string) *memoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inspections[id]
}

func (s *MemoryStore) GetInspection(ctx context.Context, id string) (*models.Inspection, error) {
	e := s.entry(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := e.insp
	return &cp, nil
}

func (s *MemoryStore) ListInspections(ctx context.Context, limit int) ([]models.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Inspection, 0, len(s.inspections))
	for _, e := range s.inspections {
		e.mu.Lock()
		out = append(out, e.insp)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListFindings(ctx context.Context, inspectionID string) ([]models.Finding, error) {
	e := s.entry(inspectionID)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := append([]models.Finding(nil), e.findings...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionOrder != out[j].SectionOrder {
			return out[i].SectionOrder < out[j].SectionOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) AppendFinding(ctx context.Context, finding *models.Finding) (*models.Inspection, error) {
	e := s.entry(finding.InspectionID)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.insp.Status == models.InspectionComplete {
		return nil, ErrInspectionClosed
	}
	e.findings = append(e.findings, *finding)
	switch finding.Status {
	case models.StatusGo:
		e.insp.GoCount++
	case models.StatusCaution:
		e.insp.CautionCount++
	default:
		e.insp.NoGoCount++
	}
	cp := e.insp
	return &cp, nil
}

func (s *MemoryStore) FinalizeInspection(ctx context.Context, id string, fn FinalizeFunc) (*models.Inspection, error) {
	e := s.entry(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.insp.Status == models.InspectionComplete {
		return nil, ErrAlreadyCompleted
	}
	v, hash, completedAt := fn(e.insp)
	e.insp.Status = models.InspectionComplete
	e.insp.OverallStatus = v.OverallStatus
	risk := v.RiskScore
	e.insp.RiskScore = &risk
	e.insp.ContentHash = hash
	at := completedAt
	e.insp.CompletedAt = &at
	cp := e.insp
	return &cp, nil
}

func (s *MemoryStore) SetAnchor(ctx context.Context, id, reference, ledgerURL string, anchoredAt time.Time) (*models.Inspection, error) {
	e := s.entry(id)
	if e == nil {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.insp.Status != models.InspectionComplete {
		return nil, ErrNotFinalized
	}
	if e.insp.LedgerReference == "" {
		e.insp.LedgerReference = reference
		e.insp.LedgerURL = ledgerURL
		at := anchoredAt
		e.insp.AnchoredAt = &at
	}
	cp := e.insp
	return &cp, nil
}

func (s *MemoryStore) FindByReference(ctx context.Context, reference string) (*models.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.inspections {
		e.mu.Lock()
		if e.insp.LedgerReference == reference || e.insp.ContentHash == reference {
			cp := e.insp
			e.mu.Unlock()
			return &cp, nil
		}
		e.mu.Unlock()
	}
	return nil, ErrNotFound
}
