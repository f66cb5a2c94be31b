package models

import "time"

// Alert severities.
const (
	AlertSeverityCritical = "critical"
	AlertSeverityWarning  = "warning"
	AlertSeverityInfo     = "info"
)

// Alert types raised by the alert engine and the verification service.
const (
	AlertTypeDocumentExpiring        = "document_expiring"
	AlertTypeVerificationFailed      = "verification_failed"
	AlertTypeVerificationNeedsReview = "verification_needs_review"
	AlertTypeExclusionMatch          = "exclusion_match"
)

type Alert struct {
	AlertID    int    `gorm:"primaryKey;column:alert_id" json:"alert_id"`
	ProviderID int    `gorm:"column:provider_id" json:"provider_id"`
	AlertType  string `gorm:"column:alert_type" json:"alert_type"`

	// DedupeKey identifies the underlying condition (e.g. a document id or a
	// verification type) so re-evaluation never duplicates an unresolved alert.
	DedupeKey string `gorm:"column:dedupe_key" json:"-"`

	Severity   string     `gorm:"column:severity" json:"severity"`
	Message    string     `gorm:"column:message" json:"message"`
	Resolved   bool       `gorm:"column:resolved" json:"resolved"`
	ResolvedAt *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreateAt   time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"-"`
}

func (Alert) TableName() string {
	return "provider_alerts"
}
