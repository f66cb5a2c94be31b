package services

import (
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/config"
	"credentialing-api/models"
	"credentialing-api/utils"

	"gorm.io/gorm"
)

// AlertService derives severity-classified alerts from verification failures
// and document expirations. Evaluation is idempotent against unresolved
// alerts: one unresolved alert per (type, dedupe key) per provider.
type AlertService struct {
	db     *gorm.DB
	now    func() time.Time
	mailTo []string
}

func NewAlertService(db *gorm.DB) *AlertService {
	var mailTo []string
	for _, addr := range strings.Split(os.Getenv("ALERT_MAIL_TO"), ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if !utils.ValidateEmail(addr) {
			log.Printf("Warning: ignoring invalid alert recipient %q", addr)
			continue
		}
		mailTo = append(mailTo, addr)
	}
	return &AlertService{db: db, now: time.Now, mailTo: mailTo}
}

// AlertCondition is one underlying condition that must be represented by
// exactly one unresolved alert.
type AlertCondition struct {
	AlertType string
	DedupeKey string
	Severity  string
	Message   string
}

// AlertUpdate escalates an existing unresolved alert in place instead of
// creating a duplicate.
type AlertUpdate struct {
	AlertID  int
	Severity string
	Message  string
}

// severityForExpiration maps an expiration status to an alert severity.
// Status none maps to ""; an already-expired document stays critical until
// it is replaced or the alert is resolved.
func severityForExpiration(status ExpirationStatus) string {
	switch status {
	case ExpirationCritical, ExpirationExpired:
		return models.AlertSeverityCritical
	case ExpirationWarning:
		return models.AlertSeverityWarning
	case ExpirationNotice:
		return models.AlertSeverityInfo
	default:
		return ""
	}
}

// alertTypeForFailedVerification keeps the verification service and the
// evaluation sweep in agreement so neither duplicates the other's alerts.
func alertTypeForFailedVerification(verificationType string) string {
	switch verificationType {
	case models.VerificationExclusionPrimary, models.VerificationExclusionSecondary:
		return models.AlertTypeExclusionMatch
	default:
		return models.AlertTypeVerificationFailed
	}
}

// ExpirationConditions derives document_expiring conditions, keyed by
// document id, from documents that carry an expiration date.
func ExpirationConditions(documents []models.Document, now time.Time) []AlertCondition {
	var conditions []AlertCondition
	for _, doc := range documents {
		if doc.ExpiresAt == nil || doc.DeleteAt != nil {
			continue
		}
		status, days := ComputeExpirationStatus(*doc.ExpiresAt, now)
		severity := severityForExpiration(status)
		if severity == "" {
			continue
		}

		var message string
		if days < 0 {
			message = fmt.Sprintf("Document '%s' (%s) expired %d days ago", doc.OriginalFilename, doc.DocumentType, -days)
		} else {
			message = fmt.Sprintf("Document '%s' (%s) expires in %d days", doc.OriginalFilename, doc.DocumentType, days)
		}

		conditions = append(conditions, AlertCondition{
			AlertType: models.AlertTypeDocumentExpiring,
			DedupeKey: fmt.Sprintf("document:%d", doc.DocumentID),
			Severity:  severity,
			Message:   message,
		})
	}
	return conditions
}

// VerificationConditions derives conditions from failed and requires_review
// verification outcomes, keyed by verification type.
func VerificationConditions(verifications []models.Verification) []AlertCondition {
	var conditions []AlertCondition
	for _, v := range verifications {
		switch v.Status {
		case models.VerificationStatusFailed:
			conditions = append(conditions, AlertCondition{
				AlertType: alertTypeForFailedVerification(v.VerificationType),
				DedupeKey: fmt.Sprintf("verification:%s", v.VerificationType),
				Severity:  models.AlertSeverityCritical,
				Message:   fmt.Sprintf("Verification '%s' failed", v.VerificationType),
			})
		case models.VerificationStatusRequiresReview:
			conditions = append(conditions, AlertCondition{
				AlertType: models.AlertTypeVerificationNeedsReview,
				DedupeKey: fmt.Sprintf("verification:%s", v.VerificationType),
				Severity:  models.AlertSeverityWarning,
				Message:   fmt.Sprintf("Verification '%s' needs manual review", v.VerificationType),
			})
		}
	}
	return conditions
}

// PlanAlertChanges compares the desired conditions against the unresolved
// alerts and returns what to create and what to escalate in place. Running it
// twice over unchanged inputs plans nothing.
func PlanAlertChanges(unresolved []models.Alert, conditions []AlertCondition) ([]AlertCondition, []AlertUpdate) {
	existing := make(map[string]models.Alert, len(unresolved))
	for _, alert := range unresolved {
		existing[alert.AlertType+"|"+alert.DedupeKey] = alert
	}

	var creates []AlertCondition
	var updates []AlertUpdate
	for _, cond := range conditions {
		alert, ok := existing[cond.AlertType+"|"+cond.DedupeKey]
		if !ok {
			creates = append(creates, cond)
			continue
		}
		if alert.Severity != cond.Severity {
			updates = append(updates, AlertUpdate{AlertID: alert.AlertID, Severity: cond.Severity, Message: cond.Message})
		}
	}
	return creates, updates
}

// EvaluateProvider re-derives the provider's alert set. Safe to run
// repeatedly; returns how many alerts were created and escalated.
func (s *AlertService) EvaluateProvider(providerID int) (int, int, error) {
	now := s.now()

	var documents []models.Document
	if err := s.db.Where("provider_id = ? AND delete_at IS NULL AND expires_at IS NOT NULL", providerID).
		Find(&documents).Error; err != nil {
		return 0, 0, apperrors.Storage("failed to load documents", err)
	}

	var verifications []models.Verification
	if err := s.db.Where("provider_id = ?", providerID).Find(&verifications).Error; err != nil {
		return 0, 0, apperrors.Storage("failed to load verifications", err)
	}

	conditions := append(ExpirationConditions(documents, now), VerificationConditions(verifications)...)

	unlock := LockProvider(providerID)
	defer unlock()

	var unresolved []models.Alert
	if err := s.db.Where("provider_id = ? AND resolved = ?", providerID, false).
		Find(&unresolved).Error; err != nil {
		return 0, 0, apperrors.Storage("failed to load alerts", err)
	}

	creates, updates := PlanAlertChanges(unresolved, conditions)

	for _, cond := range creates {
		if err := s.create(providerID, cond, now); err != nil {
			return 0, 0, err
		}
	}
	for _, update := range updates {
		if err := s.db.Model(&models.Alert{}).
			Where("alert_id = ?", update.AlertID).
			Updates(map[string]interface{}{
				"severity":  update.Severity,
				"message":   update.Message,
				"update_at": now,
			}).Error; err != nil {
			return 0, 0, apperrors.Storage("failed to escalate alert", err)
		}
	}

	return len(creates), len(updates), nil
}

// Ensure creates one alert for a single condition unless an unresolved alert
// with the same (type, key) already exists. The verification service uses it
// to raise alerts at the moment an outcome lands. Callers hold the provider
// lock.
func (s *AlertService) Ensure(providerID int, cond AlertCondition) error {
	var count int64
	if err := s.db.Model(&models.Alert{}).
		Where("provider_id = ? AND alert_type = ? AND dedupe_key = ? AND resolved = ?",
			providerID, cond.AlertType, cond.DedupeKey, false).
		Count(&count).Error; err != nil {
		return apperrors.Storage("failed to check existing alerts", err)
	}
	if count > 0 {
		return nil
	}
	return s.create(providerID, cond, s.now())
}

func (s *AlertService) create(providerID int, cond AlertCondition, now time.Time) error {
	alert := models.Alert{
		ProviderID: providerID,
		AlertType:  cond.AlertType,
		DedupeKey:  cond.DedupeKey,
		Severity:   cond.Severity,
		Message:    cond.Message,
		CreateAt:   now,
	}
	if err := s.db.Create(&alert).Error; err != nil {
		return apperrors.Storage("failed to create alert", err)
	}

	if cond.Severity == models.AlertSeverityCritical {
		s.notifyCritical(providerID, &alert)
	}
	return nil
}

// Resolve marks an alert resolved. Resolution is one-way: a recurring
// condition fires a fresh alert on the next evaluation instead of reopening
// this one, preserving the count of how many times it fired.
func (s *AlertService) Resolve(alertID int) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.Where("alert_id = ?", alertID).First(&alert).Error; err != nil {
		return nil, apperrors.NotFound("alert not found")
	}

	if alert.Resolved {
		return &alert, nil
	}

	now := s.now()
	alert.Resolved = true
	alert.ResolvedAt = &now
	alert.UpdateAt = &now
	if err := s.db.Save(&alert).Error; err != nil {
		return nil, apperrors.Storage("failed to resolve alert", err)
	}
	return &alert, nil
}

// AlertFilter narrows List results. Nil fields mean "any".
type AlertFilter struct {
	ProviderID *int
	Severity   *string
	Resolved   *bool
}

func (s *AlertService) List(filter AlertFilter) ([]models.Alert, error) {
	query := s.db.Model(&models.Alert{})
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}

	var alerts []models.Alert
	if err := query.Order("resolved ASC, create_at DESC").Find(&alerts).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch alerts", err)
	}
	return alerts, nil
}

var criticalAlertMailTemplate = template.Must(template.New("critical_alert").Parse(`
<p>A critical credentialing alert was raised.</p>
<p><b>Provider:</b> {{.ProviderID}}<br/>
<b>Type:</b> {{.AlertType}}<br/>
<b>Message:</b> {{.Message}}</p>
`))

func (s *AlertService) notifyCritical(providerID int, alert *models.Alert) {
	if len(s.mailTo) == 0 {
		return
	}

	var body strings.Builder
	if err := criticalAlertMailTemplate.Execute(&body, map[string]interface{}{
		"ProviderID": providerID,
		"AlertType":  alert.AlertType,
		"Message":    alert.Message,
	}); err != nil {
		log.Printf("Warning: failed to render alert mail: %v", err)
		return
	}

	subject := fmt.Sprintf("[Credentialing] Critical alert for provider %d", providerID)
	if err := config.SendMail(s.mailTo, subject, body.String()); err != nil {
		log.Printf("Warning: failed to send alert mail: %v", err)
	}
}
