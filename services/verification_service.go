package services

import (
	"context"
	"fmt"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/models"
	"credentialing-api/utils"

	"gorm.io/gorm"
)

// VerificationService runs automated checks against external registries and
// persists their outcomes. Outcomes upsert: re-running a type replaces the
// prior record, so re-verification needs no separate retry path.
type VerificationService struct {
	db     *gorm.DB
	lookup RegistryLookupFunc
	alerts *AlertService
	now    func() time.Time
}

func NewVerificationService(db *gorm.DB, lookup RegistryLookupFunc, alerts *AlertService) *VerificationService {
	return &VerificationService{db: db, lookup: lookup, alerts: alerts, now: time.Now}
}

// Outcome is the decided persistence state for one lookup.
type Outcome struct {
	Status string
	Notes  string
}

// DecideOutcome maps a registry lookup result onto a verification status.
//   - lookup error: requires_review — ambiguity must surface to a human, the
//     prior state is never silently kept.
//   - excluded or inactive match: failed.
//   - clean active match: verified.
//   - no record: verified for exclusion registries (absence from the list is
//     the clean outcome), requires_review for everything else.
func DecideOutcome(verificationType string, result *LookupResult, lookupErr error) Outcome {
	if lookupErr != nil {
		return Outcome{
			Status: models.VerificationStatusRequiresReview,
			Notes:  fmt.Sprintf("lookup failed: %v", lookupErr),
		}
	}

	exclusion := verificationType == models.VerificationExclusionPrimary ||
		verificationType == models.VerificationExclusionSecondary

	if !result.Matched {
		if exclusion {
			return Outcome{Status: models.VerificationStatusVerified, Notes: "no exclusion record found"}
		}
		return Outcome{
			Status: models.VerificationStatusRequiresReview,
			Notes:  "identifier not found in registry",
		}
	}

	switch result.Status {
	case RegistryStatusExcluded:
		return Outcome{Status: models.VerificationStatusFailed, Notes: "exclusion match: " + result.Details}
	case RegistryStatusInactive:
		return Outcome{Status: models.VerificationStatusFailed, Notes: "registration inactive: " + result.Details}
	case RegistryStatusActive:
		if exclusion {
			// An active exclusion record is still an exclusion.
			return Outcome{Status: models.VerificationStatusFailed, Notes: "exclusion match: " + result.Details}
		}
		return Outcome{Status: models.VerificationStatusVerified, Notes: result.Details}
	default:
		return Outcome{
			Status: models.VerificationStatusRequiresReview,
			Notes:  fmt.Sprintf("unrecognized registry status '%s'", result.Status),
		}
	}
}

// identifierFor picks what gets sent to the registry for each check.
func identifierFor(provider *models.Provider, verificationType string) (string, error) {
	switch verificationType {
	case models.VerificationIdentityNumber:
		if provider.NPINumber == nil || *provider.NPINumber == "" {
			return "", apperrors.Validation("provider has no identity number on file")
		}
		if !utils.ValidateNPINumber(*provider.NPINumber) {
			return "", apperrors.Validation("identity number fails the check digit")
		}
		return *provider.NPINumber, nil
	case models.VerificationDEARegistration:
		if provider.DEANumber == nil || *provider.DEANumber == "" {
			return "", apperrors.Validation("provider has no controlled substance registration on file")
		}
		if !utils.ValidateDEANumber(*provider.DEANumber) {
			return "", apperrors.Validation("controlled substance registration number is malformed")
		}
		return *provider.DEANumber, nil
	case models.VerificationExclusionPrimary, models.VerificationExclusionSecondary:
		if provider.NPINumber != nil && *provider.NPINumber != "" {
			return *provider.NPINumber, nil
		}
		return provider.FullName(), nil
	default:
		return "", apperrors.Validation("unknown verification type '%s'", verificationType)
	}
}

// RunVerification executes one check. The registry call runs outside the
// provider lock; only the upsert and alert raise are serialized.
func (s *VerificationService) RunVerification(ctx context.Context, providerID int, verificationType string) (*models.Verification, error) {
	if !models.IsValidVerificationType(verificationType) {
		return nil, apperrors.Validation("unknown verification type '%s'", verificationType)
	}

	var provider models.Provider
	if err := s.db.Where("provider_id = ? AND delete_at IS NULL", providerID).First(&provider).Error; err != nil {
		return nil, apperrors.NotFound("provider not found")
	}

	identifier, err := identifierFor(&provider, verificationType)
	if err != nil {
		return nil, err
	}

	result, lookupErr := s.lookup(ctx, verificationType, identifier)
	outcome := DecideOutcome(verificationType, result, lookupErr)

	source := "registry"
	if result != nil && result.Source != "" {
		source = result.Source
	}

	unlock := LockProvider(providerID)
	defer unlock()

	verification, err := s.upsert(providerID, verificationType, outcome, source)
	if err != nil {
		return nil, err
	}

	if err := s.raiseAlerts(providerID, verificationType, outcome); err != nil {
		return nil, err
	}

	// Cache the confirmed identity number onto the provider profile. This is
	// the only provider field credentialing ever writes.
	if verificationType == models.VerificationIdentityNumber &&
		outcome.Status == models.VerificationStatusVerified {
		now := s.now()
		if err := s.db.Model(&models.Provider{}).
			Where("provider_id = ?", providerID).
			Updates(map[string]interface{}{"npi_number": identifier, "update_at": now}).Error; err != nil {
			return nil, apperrors.Storage("failed to cache identity number", err)
		}
	}

	return verification, nil
}

func (s *VerificationService) upsert(providerID int, verificationType string, outcome Outcome, source string) (*models.Verification, error) {
	now := s.now()

	var verification models.Verification
	err := s.db.Where("provider_id = ? AND verification_type = ?", providerID, verificationType).
		First(&verification).Error

	var verifiedAt *time.Time
	if outcome.Status == models.VerificationStatusVerified || outcome.Status == models.VerificationStatusFailed {
		verifiedAt = &now
	}

	if err != nil {
		verification = models.Verification{
			ProviderID:       providerID,
			VerificationType: verificationType,
			Status:           outcome.Status,
			Source:           &source,
			Notes:            &outcome.Notes,
			VerifiedAt:       verifiedAt,
			CreateAt:         now,
		}
		if createErr := s.db.Create(&verification).Error; createErr != nil {
			return nil, apperrors.Storage("failed to create verification", createErr)
		}
		return &verification, nil
	}

	verification.Status = outcome.Status
	verification.Source = &source
	verification.Notes = &outcome.Notes
	verification.VerifiedAt = verifiedAt
	verification.UpdateAt = &now
	if saveErr := s.db.Save(&verification).Error; saveErr != nil {
		return nil, apperrors.Storage("failed to update verification", saveErr)
	}
	return &verification, nil
}

func (s *VerificationService) raiseAlerts(providerID int, verificationType string, outcome Outcome) error {
	key := fmt.Sprintf("verification:%s", verificationType)
	switch outcome.Status {
	case models.VerificationStatusFailed:
		return s.alerts.Ensure(providerID, AlertCondition{
			AlertType: alertTypeForFailedVerification(verificationType),
			DedupeKey: key,
			Severity:  models.AlertSeverityCritical,
			Message:   fmt.Sprintf("Verification '%s' failed: %s", verificationType, outcome.Notes),
		})
	case models.VerificationStatusRequiresReview:
		return s.alerts.Ensure(providerID, AlertCondition{
			AlertType: models.AlertTypeVerificationNeedsReview,
			DedupeKey: key,
			Severity:  models.AlertSeverityWarning,
			Message:   fmt.Sprintf("Verification '%s' needs manual review: %s", verificationType, outcome.Notes),
		})
	}
	return nil
}

// BatchResult summarizes one type's outcome inside a batch run.
type BatchResult struct {
	VerificationType string `json:"verification_type"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
}

// RunBatch runs the identity check and both exclusion registry checks
// sequentially. One failure never blocks the others; each type upserts
// independently.
func (s *VerificationService) RunBatch(ctx context.Context, providerID int) ([]BatchResult, error) {
	var provider models.Provider
	if err := s.db.Where("provider_id = ? AND delete_at IS NULL", providerID).First(&provider).Error; err != nil {
		return nil, apperrors.NotFound("provider not found")
	}

	batch := []string{
		models.VerificationIdentityNumber,
		models.VerificationExclusionPrimary,
		models.VerificationExclusionSecondary,
	}

	results := make([]BatchResult, 0, len(batch))
	for _, verificationType := range batch {
		verification, err := s.RunVerification(ctx, providerID, verificationType)
		if err != nil {
			results = append(results, BatchResult{
				VerificationType: verificationType,
				Error:            err.Error(),
			})
			continue
		}
		results = append(results, BatchResult{
			VerificationType: verificationType,
			Status:           verification.Status,
		})
	}

	return results, nil
}

// ListByProvider returns the provider's current verification outcomes.
func (s *VerificationService) ListByProvider(providerID int) ([]models.Verification, error) {
	var verifications []models.Verification
	if err := s.db.Where("provider_id = ?", providerID).
		Order("verification_type").
		Find(&verifications).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch verifications", err)
	}
	return verifications, nil
}
