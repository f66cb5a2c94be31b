package services

import (
	"database/sql/driver"
	"regexp"
	"strings"
	"testing"
	"time"

	"credentialing-api/models"
)

func docExpiring(id int, name, docType string, expiresAt time.Time) models.Document {
	return models.Document{
		DocumentID:       id,
		DocumentType:     docType,
		OriginalFilename: name,
		ExpiresAt:        &expiresAt,
	}
}

func TestExpirationConditionsSeverities(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	documents := []models.Document{
		docExpiring(1, "license.pdf", models.DocTypeLicense, now.AddDate(0, 0, 5)),
		docExpiring(2, "insurance.pdf", models.DocTypeLiabilityInsurance, now.AddDate(0, 0, 20)),
		docExpiring(3, "dea.pdf", models.DocTypeDEACertificate, now.AddDate(0, 0, 45)),
		docExpiring(4, "board.pdf", models.DocTypeBoardCertification, now.AddDate(0, 0, 90)),
		docExpiring(5, "id.pdf", models.DocTypeGovernmentID, now.AddDate(0, 0, -3)),
	}

	conditions := ExpirationConditions(documents, now)
	if len(conditions) != 4 {
		t.Fatalf("expected 4 conditions, got %d: %+v", len(conditions), conditions)
	}

	bySeverity := map[string]string{}
	for _, cond := range conditions {
		if cond.AlertType != models.AlertTypeDocumentExpiring {
			t.Fatalf("unexpected alert type %s", cond.AlertType)
		}
		bySeverity[cond.DedupeKey] = cond.Severity
	}

	want := map[string]string{
		"document:1": models.AlertSeverityCritical,
		"document:2": models.AlertSeverityWarning,
		"document:3": models.AlertSeverityInfo,
		"document:5": models.AlertSeverityCritical,
	}
	for key, severity := range want {
		if bySeverity[key] != severity {
			t.Fatalf("%s: got severity %q, want %q", key, bySeverity[key], severity)
		}
	}
}

func TestExpirationConditionsMessages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	conditions := ExpirationConditions([]models.Document{
		docExpiring(1, "license.pdf", models.DocTypeLicense, now.AddDate(0, 0, -3)),
		docExpiring(2, "insurance.pdf", models.DocTypeLiabilityInsurance, now.AddDate(0, 0, 20)),
	}, now)
	if len(conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conditions))
	}
	if !strings.Contains(conditions[0].Message, "expired 3 days ago") {
		t.Fatalf("expired message: %q", conditions[0].Message)
	}
	if !strings.Contains(conditions[1].Message, "expires in 20 days") {
		t.Fatalf("countdown message: %q", conditions[1].Message)
	}
}

func TestExpirationConditionsSkipsDeletedAndUndated(t *testing.T) {
	now := time.Now()
	deleted := docExpiring(1, "license.pdf", models.DocTypeLicense, now.AddDate(0, 0, 3))
	deleted.DeleteAt = &now

	conditions := ExpirationConditions([]models.Document{
		deleted,
		{DocumentID: 2, DocumentType: models.DocTypeTranscript, OriginalFilename: "transcript.pdf"},
	}, now)
	if len(conditions) != 0 {
		t.Fatalf("expected no conditions, got %+v", conditions)
	}
}

func TestVerificationConditions(t *testing.T) {
	verifications := []models.Verification{
		{VerificationType: models.VerificationIdentityNumber, Status: models.VerificationStatusFailed},
		{VerificationType: models.VerificationExclusionPrimary, Status: models.VerificationStatusFailed},
		{VerificationType: models.VerificationDEARegistration, Status: models.VerificationStatusRequiresReview},
		{VerificationType: models.VerificationExclusionSecondary, Status: models.VerificationStatusVerified},
	}

	conditions := VerificationConditions(verifications)
	if len(conditions) != 3 {
		t.Fatalf("expected 3 conditions, got %d: %+v", len(conditions), conditions)
	}

	byKey := map[string]AlertCondition{}
	for _, cond := range conditions {
		byKey[cond.DedupeKey] = cond
	}

	identity := byKey["verification:"+models.VerificationIdentityNumber]
	if identity.AlertType != models.AlertTypeVerificationFailed || identity.Severity != models.AlertSeverityCritical {
		t.Fatalf("failed identity check: %+v", identity)
	}

	// A failed exclusion check is a registry match, not a plain failure.
	exclusion := byKey["verification:"+models.VerificationExclusionPrimary]
	if exclusion.AlertType != models.AlertTypeExclusionMatch || exclusion.Severity != models.AlertSeverityCritical {
		t.Fatalf("failed exclusion check: %+v", exclusion)
	}

	review := byKey["verification:"+models.VerificationDEARegistration]
	if review.AlertType != models.AlertTypeVerificationNeedsReview || review.Severity != models.AlertSeverityWarning {
		t.Fatalf("requires_review check: %+v", review)
	}
}

func TestPlanAlertChangesIsIdempotent(t *testing.T) {
	conditions := []AlertCondition{
		{AlertType: models.AlertTypeDocumentExpiring, DedupeKey: "document:1", Severity: models.AlertSeverityWarning, Message: "expires in 20 days"},
		{AlertType: models.AlertTypeVerificationFailed, DedupeKey: "verification:identity_number", Severity: models.AlertSeverityCritical, Message: "failed"},
	}

	creates, updates := PlanAlertChanges(nil, conditions)
	if len(creates) != 2 || len(updates) != 0 {
		t.Fatalf("first pass: %d creates, %d updates", len(creates), len(updates))
	}

	unresolved := make([]models.Alert, 0, len(creates))
	for i, cond := range creates {
		unresolved = append(unresolved, models.Alert{
			AlertID:   i + 1,
			AlertType: cond.AlertType,
			DedupeKey: cond.DedupeKey,
			Severity:  cond.Severity,
		})
	}

	creates, updates = PlanAlertChanges(unresolved, conditions)
	if len(creates) != 0 || len(updates) != 0 {
		t.Fatalf("second pass must plan nothing: %d creates, %d updates", len(creates), len(updates))
	}
}

func TestPlanAlertChangesEscalatesInPlace(t *testing.T) {
	unresolved := []models.Alert{
		{
			AlertID:   7,
			AlertType: models.AlertTypeDocumentExpiring,
			DedupeKey: "document:1",
			Severity:  models.AlertSeverityWarning,
		},
	}
	conditions := []AlertCondition{
		{
			AlertType: models.AlertTypeDocumentExpiring,
			DedupeKey: "document:1",
			Severity:  models.AlertSeverityCritical,
			Message:   "expires in 5 days",
		},
	}

	creates, updates := PlanAlertChanges(unresolved, conditions)
	if len(creates) != 0 {
		t.Fatalf("escalation must not create: %+v", creates)
	}
	if len(updates) != 1 || updates[0].AlertID != 7 || updates[0].Severity != models.AlertSeverityCritical {
		t.Fatalf("unexpected updates: %+v", updates)
	}
}

func TestListOrdersUnresolvedFirst(t *testing.T) {
	providerID := 1
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `provider_alerts` WHERE provider_id = \\? ORDER BY resolved ASC, create_at DESC"),
			columns: []string{"alert_id", "provider_id", "alert_type", "severity", "resolved"},
			rows: [][]driver.Value{
				{int64(2), int64(1), models.AlertTypeDocumentExpiring, models.AlertSeverityWarning, false},
				{int64(1), int64(1), models.AlertTypeVerificationFailed, models.AlertSeverityCritical, true},
			},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	alerts, err := NewAlertService(db).List(AlertFilter{ProviderID: &providerID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 2 || alerts[0].Resolved || !alerts[1].Resolved {
		t.Fatalf("unexpected order: %+v", alerts)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestPlanAlertChangesIgnoresResolvedAlerts(t *testing.T) {
	// A resolved alert is never passed in as unresolved, so the same
	// condition recurring plans a fresh create.
	conditions := []AlertCondition{
		{AlertType: models.AlertTypeDocumentExpiring, DedupeKey: "document:1", Severity: models.AlertSeverityWarning, Message: "expires in 20 days"},
	}
	creates, updates := PlanAlertChanges([]models.Alert{}, conditions)
	if len(creates) != 1 || len(updates) != 0 {
		t.Fatalf("recurring condition: %d creates, %d updates", len(creates), len(updates))
	}
}
