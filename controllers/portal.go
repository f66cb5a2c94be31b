package controllers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"credentialing-api/config"
	"credentialing-api/models"
	"credentialing-api/services"
	"credentialing-api/utils"

	"github.com/gin-gonic/gin"
)

// currentProvider resolves the provider profile behind the authenticated
// user. Writes the error response itself when there is none.
func currentProvider(c *gin.Context) (*models.Provider, bool) {
	userID, _ := c.Get("userID")

	var provider models.Provider
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&provider).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No provider profile for this account"})
		return nil, false
	}
	return &provider, true
}

// GetMyCredentialing returns the provider's own progress view. Creates the
// record on first visit.
func GetMyCredentialing(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	svc := phaseService()
	if _, err := svc.EnsureRecord(provider.ProviderID); err != nil {
		respondError(c, err)
		return
	}

	record, entries, err := svc.GetRecord(provider.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":           record,
		"phases":           entries,
		"progress_percent": services.ProgressPercent(entries),
		"days_in_process":  services.DaysInProcess(record, time.Now()),
	})
}

// GetMyDocuments lists the provider's own uploads.
func GetMyDocuments(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	documents, err := documentService().List(provider.ProviderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// UploadMyDocument accepts a multipart credentialing document. Expiration
// dates come in as YYYY-MM-DD.
func UploadMyDocument(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	documentType := c.PostForm("document_type")

	var expiresAt *time.Time
	if raw := c.PostForm("expires_at"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expiration date, expected YYYY-MM-DD"})
			return
		}
		expiresAt = &parsed
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if file.Size > services.MaxDocumentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 10MB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, services.MaxDocumentSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	// Uploading is the first provider action for new accounts.
	if _, err := phaseService().EnsureRecord(provider.ProviderID); err != nil {
		respondError(c, err)
		return
	}

	document, err := documentService().Upload(&services.UploadInput{
		ProviderID:       provider.ProviderID,
		Data:             data,
		OriginalFilename: utils.SanitizeFilename(file.Filename),
		MimeType:         file.Header.Get("Content-Type"),
		DocumentType:     documentType,
		ExpiresAt:        expiresAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Document uploaded successfully",
		"document": document,
	})
}

// DownloadMyDocument streams one of the provider's own documents.
func DownloadMyDocument(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	documentID, err := strconv.Atoi(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}

	svc := documentService()
	document, err := svc.Get(documentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if document.ProviderID != provider.ProviderID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	data, err := svc.FetchBytes(document)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+document.OriginalFilename+`"`)
	c.Data(http.StatusOK, document.MimeType, data)
}

// DeleteMyDocument removes one of the provider's own unverified documents.
func DeleteMyDocument(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	documentID, err := strconv.Atoi(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}

	svc := documentService()
	document, err := svc.Get(documentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if document.ProviderID != provider.ProviderID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if err := svc.Delete(documentID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// SubmitIdentityNumber records the provider's NPI and kicks off the identity
// verification against the registry.
func SubmitIdentityNumber(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	var req struct {
		IdentityNumber string `json:"identity_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	npi := utils.SanitizeInput(req.IdentityNumber)
	if !utils.ValidateNPINumber(npi) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identity number fails the check digit"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.Provider{}).
		Where("provider_id = ?", provider.ProviderID).
		Updates(map[string]interface{}{"npi_number": npi, "update_at": now}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save identity number"})
		return
	}

	if _, err := phaseService().EnsureRecord(provider.ProviderID); err != nil {
		respondError(c, err)
		return
	}

	verification, err := verificationService().RunVerification(
		c.Request.Context(), provider.ProviderID, models.VerificationIdentityNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verification": verification})
}

// GetMyAlerts lists the provider's own alerts, unresolved first.
func GetMyAlerts(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	alerts, err := alertService().List(services.AlertFilter{ProviderID: &provider.ProviderID})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
