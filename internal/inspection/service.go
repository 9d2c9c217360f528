package inspection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmind/fieldmind-go-backend/internal/ai"
	"github.com/fieldmind/fieldmind-go-backend/internal/ledger"
	"github.com/fieldmind/fieldmind-go-backend/internal/models"
	"github.com/fieldmind/fieldmind-go-backend/internal/store"
	"github.com/fieldmind/fieldmind-go-backend/internal/verdict"
)

var (
	// ErrValidation means required creation fields are missing.
	ErrValidation = errors.New("machine_type and machine_model required")
	// ErrAnchorFailed wraps a transient ledger failure. The inspection is
	// untouched, so the caller can simply retry.
	ErrAnchorFailed = errors.New("ledger anchoring failed")
)

// FallbackConfidence is the fixed confidence recorded when the classifier
// is unavailable or returns garbage and the finding defaults to CAUTION.
const FallbackConfidence = 50

const fallbackFinding = "Automatic classification unavailable. Manual inspection required."

// Classifier is the contract this service needs from the vision model
// gateway; see the ai package for the real client.
type Classifier interface {
	Classify(ctx context.Context, req ai.ClassifyRequest) (*ai.Classification, error)
}

// Service owns the inspection lifecycle: creation, per-component finding
// recording, the one-shot finalize that freezes the verdict, and the
// idempotent ledger anchor on top of a completed inspection.
type Service struct {
	store      store.InspectionStore
	classifier Classifier
	anchorer   ledger.Anchorer
}

func NewService(st store.InspectionStore, classifier Classifier, anchorer ledger.Anchorer) *Service {
	return &Service{store: st, classifier: classifier, anchorer: anchorer}
}

// CreateRequest carries the immutable descriptive attributes captured when
// an inspection starts.
type CreateRequest struct {
	MachineType      string   `json:"machine_type"`
	MachineBrand     string   `json:"machine_brand"`
	MachineModel     string   `json:"machine_model"`
	SerialNumber     string   `json:"serial_number"`
	SiteName         string   `json:"site_name"`
	InspectorName    string   `json:"inspector_name"`
	SMUHours         int      `json:"smu_hours"`
	Language         string   `json:"language"`
	WeatherTemp      *float64 `json:"weather_temp"`
	WeatherCondition string   `json:"weather_condition"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Inspection, error) {
	if req.MachineType == "" || req.MachineModel == "" {
		return nil, ErrValidation
	}
	brand := req.MachineBrand
	if brand == "" {
		brand = "CAT"
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	insp := &models.Inspection{
		ID:               uuid.NewString(),
		ReportNumber:     newReportNumber(),
		MachineType:      req.MachineType,
		MachineBrand:     brand,
		MachineModel:     req.MachineModel,
		SerialNumber:     req.SerialNumber,
		SiteName:         req.SiteName,
		InspectorName:    req.InspectorName,
		SMUHours:         req.SMUHours,
		Language:         lang,
		WeatherTemp:      req.WeatherTemp,
		WeatherCondition: req.WeatherCondition,
		Status:           models.InspectionPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.CreateInspection(ctx, insp); err != nil {
		return nil, err
	}
	return insp, nil
}

// RecordRequest is one component's evidence as submitted by the operator.
type RecordRequest struct {
	ComponentName string `json:"component_name"`
	SectionName   string `json:"section_name"`
	SectionOrder  int    `json:"section_order"`
	VoiceNote     string `json:"voice_note"`
	ImageBase64   string `json:"image_base64"`
	ImageRef      string `json:"image_ref"`
}

// Record classifies one component and appends the resulting finding. The
// classifier runs before the store is touched, so the slow call never sits
// inside the tally critical section. A classifier outage or malformed
// response never blocks the operator: the component is recorded with the
// fail-safe CAUTION default instead of being dropped.
func (s *Service) Record(ctx context.Context, inspectionID string, req RecordRequest) (*models.Finding, *models.Inspection, error) {
	if req.ComponentName == "" {
		return nil, nil, fmt.Errorf("%w: component_name required", ErrValidation)
	}

	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, nil, err
	}
	if insp.Status == models.InspectionComplete {
		return nil, nil, store.ErrInspectionClosed
	}

	weatherCtx := ""
	if insp.WeatherTemp != nil {
		weatherCtx = fmt.Sprintf("Temperature: %.0fF, Condition: %s", *insp.WeatherTemp, insp.WeatherCondition)
	}

	finding := &models.Finding{
		ID:            uuid.NewString(),
		InspectionID:  inspectionID,
		ComponentName: req.ComponentName,
		SectionName:   defaultSection(req.SectionName),
		SectionOrder:  req.SectionOrder,
		VoiceNote:     req.VoiceNote,
		ImageRef:      req.ImageRef,
		CreatedAt:     time.Now().UTC(),
	}

	result, err := s.classifier.Classify(ctx, ai.ClassifyRequest{
		ComponentName:  req.ComponentName,
		SectionName:    req.SectionName,
		VoiceNote:      req.VoiceNote,
		ImageBase64:    req.ImageBase64,
		Language:       insp.Language,
		WeatherContext: weatherCtx,
	})
	if err != nil {
		// Ambiguity defaults to CAUTION: a spurious GO is unsafe and a
		// spurious NO-GO needlessly grounds the machine.
		log.Printf("Classifier failed for component %q on inspection %s: %v", req.ComponentName, inspectionID, err)
		finding.Status = models.StatusCaution
		finding.Confidence = FallbackConfidence
		finding.Finding = fallbackFinding
	} else {
		finding.Status = result.Status
		finding.Confidence = result.Confidence
		finding.Finding = result.Finding
		finding.ImmediateAction = result.ImmediateAction
		finding.PartsNeeded = result.PartsNeeded
		finding.RawResponse = result.Raw
	}

	updated, err := s.store.AppendFinding(ctx, finding)
	if err != nil {
		return nil, nil, err
	}
	return finding, updated, nil
}

// MarkGo records a GO finding directly, bypassing the classifier. Used
// when the operator asserts a component is fine without evidence.
func (s *Service) MarkGo(ctx context.Context, inspectionID string, req RecordRequest) (*models.Finding, *models.Inspection, error) {
	if req.ComponentName == "" {
		return nil, nil, fmt.Errorf("%w: component_name required", ErrValidation)
	}
	finding := &models.Finding{
		ID:            uuid.NewString(),
		InspectionID:  inspectionID,
		ComponentName: req.ComponentName,
		SectionName:   defaultSection(req.SectionName),
		SectionOrder:  req.SectionOrder,
		Status:        models.StatusGo,
		Confidence:    100,
		Finding:       "Marked GO by inspector.",
		CreatedAt:     time.Now().UTC(),
	}
	updated, err := s.store.AppendFinding(ctx, finding)
	if err != nil {
		return nil, nil, err
	}
	return finding, updated, nil
}

// Finalize computes the verdict from the tallies, stamps the content hash
// and flips the inspection to complete. The store guarantees this happens
// exactly once; a duplicate call surfaces store.ErrAlreadyCompleted.
func (s *Service) Finalize(ctx context.Context, inspectionID string) (*models.Inspection, error) {
	return s.store.FinalizeInspection(ctx, inspectionID, func(insp models.Inspection) (models.Verdict, string, time.Time) {
		v := verdict.Compute(insp.GoCount, insp.CautionCount, insp.NoGoCount)
		completedAt := time.Now().UTC()
		return v, contentHash(insp.ID, v.OverallStatus, v.RiskScore, completedAt), completedAt
	})
}

// Anchor writes the frozen summary to the ledger. Idempotent: once a
// reference is stored the adapter is never called again for this
// inspection, and a transient ledger failure leaves no trace.
func (s *Service) Anchor(ctx context.Context, inspectionID string) (*models.Inspection, error) {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if insp.Status != models.InspectionComplete {
		return nil, store.ErrNotFinalized
	}
	if insp.LedgerReference != "" {
		return insp, nil
	}

	risk := 0
	if insp.RiskScore != nil {
		risk = *insp.RiskScore
	}
	anchor, err := s.anchorer.Anchor(ctx, ledger.Summary{
		InspectionID: insp.ID,
		ReportNumber: insp.ReportNumber,
		MachineModel: insp.MachineModel,
		Status:       insp.OverallStatus,
		RiskScore:    risk,
		NoGoCount:    insp.NoGoCount,
		CautionCount: insp.CautionCount,
		ContentHash:  insp.ContentHash,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnchorFailed, err)
	}
	return s.store.SetAnchor(ctx, inspectionID, anchor.Reference, anchor.ExplorerURL, anchor.AnchoredAt)
}

// Get returns the inspection with its findings in section order.
func (s *Service) Get(ctx context.Context, inspectionID string) (*models.Inspection, error) {
	insp, err := s.store.GetInspection(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	findings, err := s.store.ListFindings(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	insp.Findings = findings
	return insp, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]models.Inspection, error) {
	return s.store.ListInspections(ctx, limit)
}

// VerifyByReference resolves an inspection from a ledger reference or a
// content hash for the public verification page.
func (s *Service) VerifyByReference(ctx context.Context, reference string) (*models.Inspection, error) {
	return s.store.FindByReference(ctx, reference)
}

func defaultSection(name string) string {
	if name == "" {
		return "General"
	}
	return name
}

// newReportNumber builds the human-facing FM-<YYYYMMDD>-<4 digits> report
// number. Not globally unique; the uuid stays the true key.
func newReportNumber() string {
	return fmt.Sprintf("FM-%s-%04d", time.Now().UTC().Format("20060102"), rand.Intn(10000))
}

// contentHash is the SHA-256 of a canonical serialization of the frozen
// summary, hex-encoded.
func contentHash(id, overallStatus string, riskScore int, completedAt time.Time) string {
	payload, _ := json.Marshal(struct {
		ID            string `json:"id"`
		OverallStatus string `json:"overall_status"`
		RiskScore     int    `json:"risk_score"`
		CompletedAt   string `json:"completed_at"`
	}{id, overallStatus, riskScore, completedAt.UTC().Format(time.RFC3339Nano)})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
