package controllers

import (
	"net/http"

	"credentialing-api/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError translates a classified error to an HTTP response. Validation
// problems must read as "fix your input"; dependency failures as "try again",
// so the status codes keep the two apart.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindConflict:
		status = http.StatusConflict
	case apperrors.KindOrderViolation, apperrors.KindUnverifiedPrerequisite:
		status = http.StatusUnprocessableEntity
	case apperrors.KindStorage, apperrors.KindLookup:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
