package models

import "time"

// Credentialing document types.
const (
	DocTypeLicense            = "license"
	DocTypeTranscript         = "transcript"
	DocTypeDiploma            = "diploma"
	DocTypeGovernmentID       = "government_id"
	DocTypeLiabilityInsurance = "liability_insurance"
	DocTypeDEACertificate     = "dea_certificate"
	DocTypeBoardCertification = "board_certification"
)

// DocumentTypes lists every accepted document type.
var DocumentTypes = []string{
	DocTypeLicense,
	DocTypeTranscript,
	DocTypeDiploma,
	DocTypeGovernmentID,
	DocTypeLiabilityInsurance,
	DocTypeDEACertificate,
	DocTypeBoardCertification,
}

// ExpirationRequiredTypes are the document types that must carry a future
// expiration date on upload.
var ExpirationRequiredTypes = map[string]bool{
	DocTypeLicense:            true,
	DocTypeGovernmentID:       true,
	DocTypeLiabilityInsurance: true,
	DocTypeDEACertificate:     true,
	DocTypeBoardCertification: true,
}

type Document struct {
	DocumentID       int        `gorm:"primaryKey;column:document_id" json:"document_id"`
	ProviderID       int        `gorm:"column:provider_id" json:"provider_id"`
	DocumentType     string     `gorm:"column:document_type" json:"document_type"`
	StorageRef       string     `gorm:"column:storage_ref" json:"-"`
	OriginalFilename string     `gorm:"column:original_filename" json:"original_filename"`
	FileSize         int64      `gorm:"column:file_size" json:"file_size"`
	MimeType         string     `gorm:"column:mime_type" json:"mime_type"`
	ExpiresAt        *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	Verified         bool       `gorm:"column:verified" json:"verified"`
	VerifierNotes    *string    `gorm:"column:verifier_notes" json:"verifier_notes,omitempty"`
	UploadedAt       time.Time  `gorm:"column:uploaded_at" json:"uploaded_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"-"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Provider Provider `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
}

func (Document) TableName() string {
	return "credentialing_documents"
}

// IsValidDocumentType reports whether t is one of the accepted types.
func IsValidDocumentType(t string) bool {
	for _, known := range DocumentTypes {
		if t == known {
			return true
		}
	}
	return false
}
