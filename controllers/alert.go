package controllers

import (
	"net/http"
	"strconv"

	"credentialing-api/services"

	"github.com/gin-gonic/gin"
)

// GetAlerts lists alerts for the admin dashboard, filterable by severity and
// resolution state.
func GetAlerts(c *gin.Context) {
	filter := services.AlertFilter{}

	if severity := c.Query("severity"); severity != "" {
		filter.Severity = &severity
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolved filter"})
			return
		}
		filter.Resolved = &resolved
	}
	if raw := c.Query("provider_id"); raw != "" {
		providerID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
			return
		}
		filter.ProviderID = &providerID
	}

	alerts, err := alertService().List(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// ResolveAlert marks an alert handled. There is no unresolve; a recurring
// condition fires a new alert instead.
func ResolveAlert(c *gin.Context) {
	alertID, err := strconv.Atoi(c.Param("alert_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	alert, err := alertService().Resolve(alertID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// EvaluateProviderAlerts re-derives one provider's alert set on demand,
// outside the daily sweep.
func EvaluateProviderAlerts(c *gin.Context) {
	providerID, err := strconv.Atoi(c.Param("provider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider id"})
		return
	}

	created, escalated, err := alertService().EvaluateProvider(providerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"created":   created,
		"escalated": escalated,
	})
}
