package models

import "time"

// Credentialing record statuses. The stored value is a cache of the status
// derived from the phase entries; services recompute it on every write.
const (
	RecordStatusNotStarted = "not_started"
	RecordStatusPending    = "pending"
	RecordStatusInProgress = "in_progress"
	RecordStatusApproved   = "approved"
	RecordStatusRejected   = "rejected"
)

// The eight credentialing phases in canonical order.
const (
	PhaseDocumentReview        = "document_review"
	PhaseIdentityVerification  = "identity_verification"
	PhaseLicenseVerification   = "license_verification"
	PhaseEducationVerification = "education_verification"
	PhaseBackgroundCheck       = "background_check"
	PhaseInsuranceVerification = "insurance_verification"
	PhaseExclusionCheck        = "exclusion_check"
	PhaseFinalReview           = "final_review"
)

// PhaseOrder is the canonical pipeline order. Phase i+1 cannot complete
// before phase i.
var PhaseOrder = []string{
	PhaseDocumentReview,
	PhaseIdentityVerification,
	PhaseLicenseVerification,
	PhaseEducationVerification,
	PhaseBackgroundCheck,
	PhaseInsuranceVerification,
	PhaseExclusionCheck,
	PhaseFinalReview,
}

const (
	PhaseStatusPending    = "pending"
	PhaseStatusInProgress = "in_progress"
	PhaseStatusCompleted  = "completed"
	PhaseStatusFailed     = "failed"
)

type CredentialingRecord struct {
	RecordID   int    `gorm:"primaryKey;column:record_id" json:"record_id"`
	ProviderID int    `gorm:"column:provider_id;uniqueIndex" json:"provider_id"`
	Status     string `gorm:"column:status" json:"status"`

	// Version guards concurrent phase updates (optimistic check).
	Version int `gorm:"column:version" json:"-"`

	CreateAt    time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Relations
	Provider Provider     `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Phases   []PhaseEntry `gorm:"foreignKey:RecordID" json:"phases,omitempty"`
	Notes    []Note       `gorm:"foreignKey:RecordID" json:"notes,omitempty"`
}

func (CredentialingRecord) TableName() string {
	return "credentialing_records"
}

// IsTerminal reports whether the current cycle is closed.
func (r *CredentialingRecord) IsTerminal() bool {
	return r.Status == RecordStatusApproved || r.Status == RecordStatusRejected
}

type PhaseEntry struct {
	PhaseEntryID int        `gorm:"primaryKey;column:phase_entry_id" json:"phase_entry_id"`
	RecordID     int        `gorm:"column:record_id;uniqueIndex:idx_record_phase" json:"record_id"`
	Phase        string     `gorm:"column:phase;uniqueIndex:idx_record_phase" json:"phase"`
	Status       string     `gorm:"column:status" json:"status"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"-"`
}

func (PhaseEntry) TableName() string {
	return "credentialing_phase_entries"
}
