package controllers

import (
	"net/http"
	"strconv"
	"time"

	"credentialing-api/config"
	"credentialing-api/models"
	"credentialing-api/services"

	"github.com/gin-gonic/gin"
)

// GetPendingProviders returns the admin review queue: open credentialing
// records with progress and age.
func GetPendingProviders(c *gin.Context) {
	records, err := phaseService().ListPending()
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	items := make([]gin.H, 0, len(records))
	for i := range records {
		record := &records[i]
		var entries []models.PhaseEntry
		if err := config.DB.Where("record_id = ?", record.RecordID).Find(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load phase entries"})
			return
		}
		services.SortPhases(entries)

		items = append(items, gin.H{
			"record":           record,
			"provider_name":    record.Provider.FullName(),
			"progress_percent": services.ProgressPercent(entries),
			"days_in_process":  services.DaysInProcess(record, now),
		})
	}

	c.JSON(http.StatusOK, gin.H{"providers": items})
}

// GetProviderDetail assembles everything the admin review screen shows:
// phases, documents, verifications, alerts, and notes.
func GetProviderDetail(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	var provider models.Provider
	if err := config.DB.Where("provider_id = ? AND delete_at IS NULL", providerID).First(&provider).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	record, entries, err := phaseService().GetRecord(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	documents, err := documentService().List(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	verifications, err := verificationService().ListByProvider(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts, err := alertService().List(services.AlertFilter{ProviderID: &providerID})
	if err != nil {
		respondError(c, err)
		return
	}

	var notes []models.Note
	if err := config.DB.Preload("Author").
		Where("record_id = ?", record.RecordID).
		Order("create_at DESC").
		Find(&notes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider":          provider,
		"record":            record,
		"phases":            entries,
		"documents":         documents,
		"verifications":     verifications,
		"alerts":            alerts,
		"notes":             notes,
		"progress_fraction": services.ProgressFraction(entries),
		"progress_percent":  services.ProgressPercent(entries),
		"days_in_process":   services.DaysInProcess(record, time.Now()),
	})
}

// RunVerifications triggers the batch of automated checks for a provider.
func RunVerifications(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	if _, err := phaseService().EnsureRecord(providerID); err != nil {
		respondError(c, err)
		return
	}

	results, err := verificationService().RunBatch(c.Request.Context(), providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// RunSingleVerification triggers one verification type, including the DEA
// check that the default batch leaves out.
func RunSingleVerification(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}
	verificationType := c.Param("type")

	if _, err := phaseService().EnsureRecord(providerID); err != nil {
		respondError(c, err)
		return
	}

	verification, err := verificationService().RunVerification(c.Request.Context(), providerID, verificationType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"verification": verification})
}

// StartPhase moves a phase to in_progress.
func StartPhase(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	entry, err := phaseService().StartPhase(providerID, c.Param("phase"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"phase": entry})
}

// CompletePhase applies the guarded completion transition.
func CompletePhase(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	entry, err := phaseService().CompletePhase(providerID, c.Param("phase"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"phase": entry})
}

// FailPhase records an adverse finding on an in_progress phase. The rationale
// lands in the notes log.
func FailPhase(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := phaseService().FailPhase(providerID, c.Param("phase"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := appendDecisionNote(c, providerID, "Phase "+c.Param("phase")+" failed: "+req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"phase": entry})
}

// RejectProvider is the explicit terminal admin decision for the cycle.
func RejectProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := phaseService().Reject(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := appendDecisionNote(c, providerID, "Application rejected: "+req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// ReopenProvider resets failed phases and reopens a rejected cycle.
func ReopenProvider(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := phaseService().Reopen(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := appendDecisionNote(c, providerID, "Application reopened: "+req.Reason); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// AddNote appends an annotation to the record. Notes are append-only; there
// is deliberately no update or delete handler.
func AddNote(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	var req struct {
		Text         string `json:"text" binding:"required"`
		Category     string `json:"category"`
		InternalOnly bool   `json:"internal_only"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Category == "" {
		req.Category = models.NoteCategoryGeneral
	}
	if !models.IsValidNoteCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note category"})
		return
	}

	record, _, err := phaseService().GetRecord(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, _ := c.Get("userID")
	note := models.Note{
		RecordID:     record.RecordID,
		AuthorUserID: userID.(int),
		Text:         req.Text,
		Category:     req.Category,
		InternalOnly: req.InternalOnly,
		CreateAt:     time.Now(),
	}
	if err := config.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"note": note})
}

func appendDecisionNote(c *gin.Context, providerID int, text string) error {
	record, _, err := phaseService().GetRecord(providerID)
	if err != nil {
		return err
	}

	userID, _ := c.Get("userID")
	note := models.Note{
		RecordID:     record.RecordID,
		AuthorUserID: userID.(int),
		Text:         text,
		Category:     models.NoteCategoryDecision,
		InternalOnly: true,
		CreateAt:     time.Now(),
	}
	return config.DB.Create(&note).Error
}
