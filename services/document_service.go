package services

import (
	"log"
	"math"
	"time"

	"credentialing-api/apperrors"
	"credentialing-api/models"

	"gorm.io/gorm"
)

// MaxDocumentSize is the upload size limit.
const MaxDocumentSize = int64(10 * 1024 * 1024) // 10 MiB

// Expiration statuses shared between the document service and the alert
// engine so the thresholds stay identical everywhere.
type ExpirationStatus string

const (
	ExpirationNone     ExpirationStatus = "none"
	ExpirationNotice   ExpirationStatus = "notice"
	ExpirationWarning  ExpirationStatus = "warning"
	ExpirationCritical ExpirationStatus = "critical"
	ExpirationExpired  ExpirationStatus = "expired"
)

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"image/jpeg":         true,
	"image/jpg":          true,
	"image/png":          true,
	"image/gif":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// ComputeExpirationStatus classifies a document expiration date relative to
// now. daysRemaining is floor((expiration - now) / 1 day).
func ComputeExpirationStatus(expiresAt, now time.Time) (ExpirationStatus, int) {
	days := int(math.Floor(expiresAt.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return ExpirationExpired, days
	case days <= 7:
		return ExpirationCritical, days
	case days <= 30:
		return ExpirationWarning, days
	case days <= 60:
		return ExpirationNotice, days
	default:
		return ExpirationNone, days
	}
}

type DocumentService struct {
	db      *gorm.DB
	storage DocumentStorage
	alerts  *AlertService
	now     func() time.Time
}

func NewDocumentService(db *gorm.DB, storage DocumentStorage, alerts *AlertService) *DocumentService {
	return &DocumentService{
		db:      db,
		storage: storage,
		alerts:  alerts,
		now:     time.Now,
	}
}

type UploadInput struct {
	ProviderID       int
	Data             []byte
	OriginalFilename string
	MimeType         string
	DocumentType     string
	ExpiresAt        *time.Time
}

// ValidateUpload applies the upload rules without touching storage or the
// database: accepted type, allowed MIME, size limit, and a future expiration
// date for the expiration-bearing types.
func ValidateUpload(input *UploadInput, now time.Time) error {
	if !models.IsValidDocumentType(input.DocumentType) {
		return apperrors.Validation("unknown document type '%s'", input.DocumentType)
	}
	if !allowedMimeTypes[input.MimeType] {
		return apperrors.Validation("file type '%s' not allowed", input.MimeType)
	}
	if int64(len(input.Data)) > MaxDocumentSize {
		return apperrors.Validation("file size exceeds 10MB limit")
	}
	if len(input.Data) == 0 {
		return apperrors.Validation("empty file")
	}
	if models.ExpirationRequiredTypes[input.DocumentType] {
		if input.ExpiresAt == nil {
			return apperrors.Validation("document type '%s' requires an expiration date", input.DocumentType)
		}
		if !input.ExpiresAt.After(now) {
			return apperrors.Validation("expiration date must be in the future")
		}
	}
	return nil
}

// Upload stores the bytes first, then persists the metadata row under the
// provider lock. A failed row write deletes the stored bytes so a client
// disconnect never leaves a partial document.
func (s *DocumentService) Upload(input *UploadInput) (*models.Document, error) {
	now := s.now()
	if err := ValidateUpload(input, now); err != nil {
		return nil, err
	}

	ref, err := s.storage.Store(input.Data, StorageHints{
		ProviderID:       input.ProviderID,
		OriginalFilename: input.OriginalFilename,
		MimeType:         input.MimeType,
	})
	if err != nil {
		return nil, err
	}

	unlock := LockProvider(input.ProviderID)
	defer unlock()

	document := models.Document{
		ProviderID:       input.ProviderID,
		DocumentType:     input.DocumentType,
		StorageRef:       ref,
		OriginalFilename: input.OriginalFilename,
		FileSize:         int64(len(input.Data)),
		MimeType:         input.MimeType,
		ExpiresAt:        input.ExpiresAt,
		UploadedAt:       now,
	}

	if err := s.db.Create(&document).Error; err != nil {
		if delErr := s.storage.Delete(ref); delErr != nil {
			log.Printf("Warning: failed to remove orphaned upload %s: %v", ref, delErr)
		}
		return nil, apperrors.Storage("failed to save document record", err)
	}

	return &document, nil
}

// Verify toggles the verified flag and stores the reviewer notes, then
// re-evaluates the provider's alerts. The phase state machine is not advanced
// here; a newly verified document only unblocks a later admin action.
func (s *DocumentService) Verify(documentID int, verified bool, notes string) (*models.Document, error) {
	var document models.Document
	if err := s.db.Where("document_id = ? AND delete_at IS NULL", documentID).First(&document).Error; err != nil {
		return nil, apperrors.NotFound("document not found")
	}

	unlock := LockProvider(document.ProviderID)

	now := s.now()
	document.Verified = verified
	if notes != "" {
		document.VerifierNotes = &notes
	}
	document.UpdateAt = &now

	if err := s.db.Save(&document).Error; err != nil {
		unlock()
		return nil, apperrors.Storage("failed to update document", err)
	}
	unlock()

	if _, _, err := s.alerts.EvaluateProvider(document.ProviderID); err != nil {
		log.Printf("Warning: alert re-evaluation after document verify failed: %v", err)
	}

	return &document, nil
}

// Delete removes an unverified document. Verified documents are immutable and
// can only be superseded by a new upload. The metadata row is the source of
// truth, so a failed storage delete is logged and swallowed.
func (s *DocumentService) Delete(documentID int) error {
	var document models.Document
	if err := s.db.Where("document_id = ? AND delete_at IS NULL", documentID).First(&document).Error; err != nil {
		return apperrors.NotFound("document not found")
	}

	if document.Verified {
		return apperrors.Conflict("verified documents cannot be deleted")
	}

	unlock := LockProvider(document.ProviderID)
	now := s.now()
	document.DeleteAt = &now
	if err := s.db.Save(&document).Error; err != nil {
		unlock()
		return apperrors.Storage("failed to delete document", err)
	}
	unlock()

	if err := s.storage.Delete(document.StorageRef); err != nil {
		log.Printf("Warning: failed to delete stored file %s: %v", document.StorageRef, err)
	}

	return nil
}

// Get returns a single live document.
func (s *DocumentService) Get(documentID int) (*models.Document, error) {
	var document models.Document
	if err := s.db.Where("document_id = ? AND delete_at IS NULL", documentID).First(&document).Error; err != nil {
		return nil, apperrors.NotFound("document not found")
	}
	return &document, nil
}

// List returns a provider's live documents, newest first.
func (s *DocumentService) List(providerID int) ([]models.Document, error) {
	var documents []models.Document
	if err := s.db.Where("provider_id = ? AND delete_at IS NULL", providerID).
		Order("uploaded_at DESC").
		Find(&documents).Error; err != nil {
		return nil, apperrors.Storage("failed to fetch documents", err)
	}
	return documents, nil
}

// FetchBytes loads the raw file for download.
func (s *DocumentService) FetchBytes(document *models.Document) ([]byte, error) {
	return s.storage.Fetch(document.StorageRef)
}
