package services

import (
	"math"
	"sort"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/models"

	"gorm.io/gorm"
)

// PhaseService owns the credentialing record and its eight-phase pipeline.
type PhaseService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPhaseService(db *gorm.DB) *PhaseService {
	return &PhaseService{db: db, now: time.Now}
}

// PhaseIndex returns the canonical position of a phase, -1 if unknown.
func PhaseIndex(phase string) int {
	for i, known := range models.PhaseOrder {
		if phase == known {
			return i
		}
	}
	return -1
}

// SortPhases orders entries canonically in place.
func SortPhases(entries []models.PhaseEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return PhaseIndex(entries[i].Phase) < PhaseIndex(entries[j].Phase)
	})
}

// CheckCompleteOrder enforces the no-gaps rule: a phase may complete only
// when every phase strictly before it is completed.
func CheckCompleteOrder(entries []models.PhaseEntry, phase string) error {
	target := PhaseIndex(phase)
	if target < 0 {
		return apperrors.Validation("unknown phase '%s'", phase)
	}
	for _, entry := range entries {
		if PhaseIndex(entry.Phase) < target && entry.Status != models.PhaseStatusCompleted {
			return apperrors.OrderViolation("phase '%s' cannot complete before '%s'", phase, entry.Phase)
		}
	}
	return nil
}

// verificationsForPhase lists the verification types that must be verified
// before the phase may complete. Empty for manual phases.
func verificationsForPhase(phase string) []string {
	switch phase {
	case models.PhaseIdentityVerification:
		return []string{models.VerificationIdentityNumber}
	case models.PhaseExclusionCheck:
		return []string{models.VerificationExclusionPrimary, models.VerificationExclusionSecondary}
	default:
		return nil
	}
}

// CheckVerificationGate enforces rule (b): the two automated phases complete
// only on verified backing records. There is no manual override here.
func CheckVerificationGate(phase string, verifications []models.Verification) error {
	required := verificationsForPhase(phase)
	if len(required) == 0 {
		return nil
	}

	byType := make(map[string]models.Verification, len(verifications))
	for _, v := range verifications {
		byType[v.VerificationType] = v
	}

	for _, verificationType := range required {
		v, ok := byType[verificationType]
		if !ok || v.Status != models.VerificationStatusVerified {
			return apperrors.UnverifiedPrerequisite(
				"phase '%s' requires a verified '%s' check", phase, verificationType)
		}
	}
	return nil
}

// ComputeOverallStatus derives the record status from its phases. Rejection
// is an explicit admin decision, so a rejected record stays rejected here.
func ComputeOverallStatus(record *models.CredentialingRecord, entries []models.PhaseEntry) string {
	if record.Status == models.RecordStatusRejected {
		return models.RecordStatusRejected
	}

	completed := 0
	active := false
	for _, entry := range entries {
		switch entry.Status {
		case models.PhaseStatusCompleted:
			completed++
		case models.PhaseStatusInProgress, models.PhaseStatusFailed:
			active = true
		}
	}

	switch {
	case completed == len(models.PhaseOrder) && completed > 0:
		return models.RecordStatusApproved
	case completed > 0 || active:
		return models.RecordStatusInProgress
	default:
		// Record exists but nothing has started: pending in storage terms.
		return models.RecordStatusPending
	}
}

// ProgressFraction is completed/8. The raw fraction is the value of record;
// rounding is presentation.
func ProgressFraction(entries []models.PhaseEntry) float64 {
	completed := 0
	for _, entry := range entries {
		if entry.Status == models.PhaseStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(models.PhaseOrder))
}

// ProgressPercent rounds the fraction for display.
func ProgressPercent(entries []models.PhaseEntry) int {
	return int(math.Round(ProgressFraction(entries) * 100))
}

// DaysInProcess counts whole days since the record was created, frozen at the
// completion timestamp once the record is terminal.
func DaysInProcess(record *models.CredentialingRecord, now time.Time) int {
	end := now
	if record.IsTerminal() && record.CompletedAt != nil {
		end = *record.CompletedAt
	}
	return int(end.Sub(record.CreateAt).Hours() / 24)
}

// EnsureRecord returns the provider's credentialing record, creating it with
// all eight phases pending on first use. Records are never deleted.
func (s *PhaseService) EnsureRecord(providerID int) (*models.CredentialingRecord, error) {
	unlock := LockProvider(providerID)
	defer unlock()
	return s.ensureRecordLocked(providerID)
}

func (s *PhaseService) ensureRecordLocked(providerID int) (*models.CredentialingRecord, error) {
	var record models.CredentialingRecord
	err := s.db.Where("provider_id = ?", providerID).First(&record).Error
	if err == nil {
		return &record, nil
	}

	var provider models.Provider
	if err := s.db.Where("provider_id = ? AND delete_at IS NULL", providerID).First(&provider).Error; err != nil {
		return nil, apperrors.NotFound("provider not found")
	}

	now := s.now()
	record = models.CredentialingRecord{
		ProviderID: providerID,
		Status:     models.RecordStatusPending,
		CreateAt:   now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, apperrors.Storage("failed to create credentialing record", err)
	}

	for _, phase := range models.PhaseOrder {
		entry := models.PhaseEntry{
			RecordID: record.RecordID,
			Phase:    phase,
			Status:   models.PhaseStatusPending,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return nil, apperrors.Storage("failed to seed phase entries", err)
		}
	}

	return &record, nil
}

// GetRecord loads the record with its phases in canonical order.
func (s *PhaseService) GetRecord(providerID int) (*models.CredentialingRecord, []models.PhaseEntry, error) {
	var record models.CredentialingRecord
	if err := s.db.Where("provider_id = ?", providerID).First(&record).Error; err != nil {
		return nil, nil, apperrors.NotFound("credentialing record not found")
	}

	entries, err := s.loadEntries(record.RecordID)
	if err != nil {
		return nil, nil, err
	}
	return &record, entries, nil
}

func (s *PhaseService) loadEntries(recordID int) ([]models.PhaseEntry, error) {
	var entries []models.PhaseEntry
	if err := s.db.Where("record_id = ?", recordID).Find(&entries).Error; err != nil {
		return nil, apperrors.Storage("failed to load phase entries", err)
	}
	SortPhases(entries)
	return entries, nil
}

// StartPhase moves a phase to in_progress. Allowed at any time while the
// record is open; completing is the guarded transition.
func (s *PhaseService) StartPhase(providerID int, phase string) (*models.PhaseEntry, error) {
	if PhaseIndex(phase) < 0 {
		return nil, apperrors.Validation("unknown phase '%s'", phase)
	}

	unlock := LockProvider(providerID)
	defer unlock()

	record, entries, err := s.GetRecord(providerID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, apperrors.Conflict("credentialing record is %s", record.Status)
	}

	entry := findEntry(entries, phase)
	if entry == nil {
		return nil, apperrors.NotFound("phase entry not found")
	}
	if entry.Status == models.PhaseStatusCompleted {
		return nil, apperrors.Conflict("phase '%s' is already completed", phase)
	}
	if entry.Status == models.PhaseStatusInProgress {
		return entry, nil
	}

	now := s.now()
	entry.Status = models.PhaseStatusInProgress
	entry.UpdateAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, apperrors.Storage("failed to update phase", err)
	}

	if err := s.refreshRecordStatus(record, entries); err != nil {
		return nil, err
	}
	return entry, nil
}

// CompletePhase applies the transition rules: strict canonical order, and a
// verified backing check for the two automated phases.
func (s *PhaseService) CompletePhase(providerID int, phase string) (*models.PhaseEntry, error) {
	if PhaseIndex(phase) < 0 {
		return nil, apperrors.Validation("unknown phase '%s'", phase)
	}

	unlock := LockProvider(providerID)
	defer unlock()

	record, entries, err := s.GetRecord(providerID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, apperrors.Conflict("credentialing record is %s", record.Status)
	}

	entry := findEntry(entries, phase)
	if entry == nil {
		return nil, apperrors.NotFound("phase entry not found")
	}
	if entry.Status == models.PhaseStatusCompleted {
		return entry, nil
	}

	if err := CheckCompleteOrder(entries, phase); err != nil {
		return nil, err
	}

	if required := verificationsForPhase(phase); len(required) > 0 {
		var verifications []models.Verification
		if err := s.db.Where("provider_id = ?", providerID).Find(&verifications).Error; err != nil {
			return nil, apperrors.Storage("failed to load verifications", err)
		}
		if err := CheckVerificationGate(phase, verifications); err != nil {
			return nil, err
		}
	}

	now := s.now()
	entry.Status = models.PhaseStatusCompleted
	entry.CompletedAt = &now
	entry.UpdateAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, apperrors.Storage("failed to update phase", err)
	}

	if err := s.refreshRecordStatus(record, entries); err != nil {
		return nil, err
	}
	return entry, nil
}

// FailPhase marks an in_progress phase failed. For the automated phases the
// backing verification must actually have failed; for manual phases this is
// the admin recording an adverse finding.
func (s *PhaseService) FailPhase(providerID int, phase string) (*models.PhaseEntry, error) {
	if PhaseIndex(phase) < 0 {
		return nil, apperrors.Validation("unknown phase '%s'", phase)
	}

	unlock := LockProvider(providerID)
	defer unlock()

	record, entries, err := s.GetRecord(providerID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, apperrors.Conflict("credentialing record is %s", record.Status)
	}

	entry := findEntry(entries, phase)
	if entry == nil {
		return nil, apperrors.NotFound("phase entry not found")
	}
	if entry.Status != models.PhaseStatusInProgress {
		return nil, apperrors.Conflict("only in_progress phases can fail")
	}

	if required := verificationsForPhase(phase); len(required) > 0 {
		var failed int64
		if err := s.db.Model(&models.Verification{}).
			Where("provider_id = ? AND verification_type IN ? AND status = ?",
				providerID, required, models.VerificationStatusFailed).
			Count(&failed).Error; err != nil {
			return nil, apperrors.Storage("failed to load verifications", err)
		}
		if failed == 0 {
			return nil, apperrors.Conflict("phase '%s' can only fail on a failed verification", phase)
		}
	}

	now := s.now()
	entry.Status = models.PhaseStatusFailed
	entry.UpdateAt = &now
	if err := s.db.Save(entry).Error; err != nil {
		return nil, apperrors.Storage("failed to update phase", err)
	}

	if err := s.refreshRecordStatus(record, entries); err != nil {
		return nil, err
	}
	return entry, nil
}

// Reject closes the cycle. Failure alone never auto-rejects; this is the
// explicit admin confirmation, and it requires a failed phase to confirm.
func (s *PhaseService) Reject(providerID int) (*models.CredentialingRecord, error) {
	unlock := LockProvider(providerID)
	defer unlock()

	record, entries, err := s.GetRecord(providerID)
	if err != nil {
		return nil, err
	}
	if record.IsTerminal() {
		return nil, apperrors.Conflict("credentialing record is %s", record.Status)
	}

	hasFailed := false
	for _, entry := range entries {
		if entry.Status == models.PhaseStatusFailed {
			hasFailed = true
			break
		}
	}
	if !hasFailed {
		return nil, apperrors.Conflict("rejection requires a failed phase")
	}

	now := s.now()
	if err := s.updateRecordVersioned(record, map[string]interface{}{
		"status":       models.RecordStatusRejected,
		"completed_at": now,
		"update_at":    now,
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// Reopen lets an admin restart a rejected cycle: failed phases reset to
// pending and the clock resumes from the original creation date.
func (s *PhaseService) Reopen(providerID int) (*models.CredentialingRecord, error) {
	unlock := LockProvider(providerID)
	defer unlock()

	record, entries, err := s.GetRecord(providerID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.RecordStatusRejected {
		return nil, apperrors.Conflict("only rejected records can reopen")
	}

	now := s.now()
	for i := range entries {
		if entries[i].Status != models.PhaseStatusFailed {
			continue
		}
		entries[i].Status = models.PhaseStatusPending
		entries[i].UpdateAt = &now
		if err := s.db.Save(&entries[i]).Error; err != nil {
			return nil, apperrors.Storage("failed to reset phase", err)
		}
	}

	record.Status = models.RecordStatusInProgress
	if err := s.updateRecordVersioned(record, map[string]interface{}{
		"status":       ComputeOverallStatus(record, entries),
		"completed_at": nil,
		"update_at":    now,
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// ListPending returns open records for the admin queue, oldest first.
func (s *PhaseService) ListPending() ([]models.CredentialingRecord, error) {
	var records []models.CredentialingRecord
	if err := s.db.Preload("Provider").
		Where("status IN ?", []string{models.RecordStatusPending, models.RecordStatusInProgress}).
		Order("create_at ASC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch pending records", err)
	}
	return records, nil
}

// ActiveProviderIDs lists providers whose credentialing cycle is open. The
// alert sweep walks this set.
func (s *PhaseService) ActiveProviderIDs() ([]int, error) {
	var ids []int
	if err := s.db.Model(&models.CredentialingRecord{}).
		Where("status NOT IN ?", []string{models.RecordStatusApproved, models.RecordStatusRejected}).
		Pluck("provider_id", &ids).Error; err != nil {
		return nil, apperrors.Storage("failed to list active providers", err)
	}
	return ids, nil
}

func findEntry(entries []models.PhaseEntry, phase string) *models.PhaseEntry {
	for i := range entries {
		if entries[i].Phase == phase {
			return &entries[i]
		}
	}
	return nil
}

// refreshRecordStatus recomputes the derived status and persists it with the
// optimistic version check. The entries slice reflects the just-written state.
func (s *PhaseService) refreshRecordStatus(record *models.CredentialingRecord, entries []models.PhaseEntry) error {
	status := ComputeOverallStatus(record, entries)

	now := s.now()
	updates := map[string]interface{}{
		"status":    status,
		"update_at": now,
	}
	if status == models.RecordStatusApproved {
		updates["completed_at"] = now
	}

	return s.updateRecordVersioned(record, updates)
}

func (s *PhaseService) updateRecordVersioned(record *models.CredentialingRecord, updates map[string]interface{}) error {
	updates["version"] = record.Version + 1
	result := s.db.Model(&models.CredentialingRecord{}).
		Where("record_id = ? AND version = ?", record.RecordID, record.Version).
		Updates(updates)
	if result.Error != nil {
		return apperrors.Storage("failed to update record", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("credentialing record was modified concurrently")
	}

	record.Version++
	if status, ok := updates["status"].(string); ok {
		record.Status = status
	}
	return nil
}
