package models

import (
	"time"
)

// Component statuses returned by the classifier and rolled up into the
// overall verdict.
const (
	StatusGo      = "GO"
	StatusCaution = "CAUTION"
	StatusNoGo    = "NO-GO"
)

// Inspection lifecycle states. An inspection stays "pending" while findings
// are being recorded and becomes "complete" exactly once, at finalization.
const (
	InspectionPending  = "pending"
	InspectionComplete = "complete"
)

// Inspection is the aggregate root for one walk-around of a single machine.
// Tallies are incremented once per recorded finding; verdict fields stay
// empty until the inspection is finalized and are frozen afterwards.
type Inspection struct {
	ID               string     `bson:"_id" json:"id"`
	ReportNumber     string     `bson:"report_number" json:"report_number"`
	MachineType      string     `bson:"machine_type" json:"machine_type"`
	MachineBrand     string     `bson:"machine_brand" json:"machine_brand"`
	MachineModel     string     `bson:"machine_model" json:"machine_model"`
	SerialNumber     string     `bson:"serial_number" json:"serial_number"`
	SiteName         string     `bson:"site_name" json:"site_name"`
	InspectorName    string     `bson:"inspector_name" json:"inspector_name"`
	SMUHours         int        `bson:"smu_hours" json:"smu_hours"`
	Language         string     `bson:"language" json:"language"`
	WeatherTemp      *float64   `bson:"weather_temp,omitempty" json:"weather_temp,omitempty"`
	WeatherCondition string     `bson:"weather_condition" json:"weather_condition"`
	GoCount          int        `bson:"go_count" json:"go_count"`
	CautionCount     int        `bson:"caution_count" json:"caution_count"`
	NoGoCount        int        `bson:"nogo_count" json:"nogo_count"`
	Status           string     `bson:"status" json:"status"`
	OverallStatus    string     `bson:"overall_status,omitempty" json:"overall_status,omitempty"`
	RiskScore        *int       `bson:"risk_score,omitempty" json:"risk_score,omitempty"`
	ContentHash      string     `bson:"content_hash,omitempty" json:"content_hash,omitempty"`
	LedgerReference  string     `bson:"ledger_reference,omitempty" json:"ledger_reference,omitempty"`
	LedgerURL        string     `bson:"ledger_url,omitempty" json:"ledger_url,omitempty"`
	AnchoredAt       *time.Time `bson:"anchored_at,omitempty" json:"anchored_at,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	CompletedAt      *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	// Populated on fetch, never stored on the inspection document itself.
	Findings []Finding `bson:"-" json:"findings,omitempty"`
}

// Finding is one immutable assessment of a single inspected component.
// Corrections are new findings for the same component, never edits.
type Finding struct {
	ID              string    `bson:"_id" json:"id"`
	InspectionID    string    `bson:"inspection_id" json:"inspection_id"`
	ComponentName   string    `bson:"component_name" json:"component_name"`
	SectionName     string    `bson:"section_name" json:"section_name"`
	SectionOrder    int       `bson:"section_order" json:"section_order"`
	Status          string    `bson:"status" json:"status"`
	Confidence      int       `bson:"confidence" json:"confidence"`
	Finding         string    `bson:"finding" json:"finding"`
	VoiceNote       string    `bson:"voice_note,omitempty" json:"voice_note,omitempty"`
	ImageRef        string    `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	ImmediateAction string    `bson:"immediate_action,omitempty" json:"immediate_action,omitempty"`
	PartsNeeded     []Part    `bson:"parts_needed,omitempty" json:"parts_needed,omitempty"`
	RawResponse     string    `bson:"ai_response,omitempty" json:"-"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// Part references a replacement part recommended by the classifier.
type Part struct {
	PartNumber string `bson:"part_number" json:"part_number"`
	PartName   string `bson:"part_name" json:"part_name"`
	Quantity   int    `bson:"quantity" json:"quantity"`
}

// Verdict is the frozen outcome of finalizing an inspection.
type Verdict struct {
	OverallStatus string `json:"overall_status"`
	RiskScore     int    `json:"risk_score"`
	GoCount       int    `json:"go_count"`
	CautionCount  int    `json:"caution_count"`
	NoGoCount     int    `json:"nogo_count"`
}
