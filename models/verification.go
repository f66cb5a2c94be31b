package models

import "time"

// Automated verification types. One current outcome per (provider, type).
const (
	VerificationIdentityNumber     = "identity_number"
	VerificationDEARegistration    = "controlled_substance_registration"
	VerificationExclusionPrimary   = "exclusion_registry_primary"
	VerificationExclusionSecondary = "exclusion_registry_secondary"
)

// VerificationTypes lists every known verification type.
var VerificationTypes = []string{
	VerificationIdentityNumber,
	VerificationDEARegistration,
	VerificationExclusionPrimary,
	VerificationExclusionSecondary,
}

const (
	VerificationStatusNotStarted     = "not_started"
	VerificationStatusInProgress     = "in_progress"
	VerificationStatusVerified       = "verified"
	VerificationStatusFailed         = "failed"
	VerificationStatusRequiresReview = "requires_review"
)

type Verification struct {
	VerificationID   int        `gorm:"primaryKey;column:verification_id" json:"verification_id"`
	ProviderID       int        `gorm:"column:provider_id;uniqueIndex:idx_provider_vtype" json:"provider_id"`
	VerificationType string     `gorm:"column:verification_type;uniqueIndex:idx_provider_vtype" json:"verification_type"`
	Status           string     `gorm:"column:status" json:"status"`
	Source           *string    `gorm:"column:source" json:"source,omitempty"`
	Notes            *string    `gorm:"column:notes" json:"notes,omitempty"`
	VerifiedAt       *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`
	CreateAt         time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"-"`
}

func (Verification) TableName() string {
	return "provider_verifications"
}

// IsValidVerificationType reports whether t is one of the known types.
func IsValidVerificationType(t string) bool {
	for _, known := range VerificationTypes {
		if t == known {
			return true
		}
	}
	return false
}
