package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// VerifyDocument toggles the verified flag on a document and records the
// reviewer's notes. Admin only.
func VerifyDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("document_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}

	var req struct {
		Verified bool   `json:"verified"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	document, err := documentService().Verify(documentID, req.Verified, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": document})
}

// DownloadDocument streams a document's bytes to an admin.
func DownloadDocument(c *gin.Context) {
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

	data, err := svc.FetchBytes(document)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+document.OriginalFilename+`"`)
	c.Data(http.StatusOK, document.MimeType, data)
}
