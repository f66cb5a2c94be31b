package monitor

import (
	"time"

	"credentialing-api/config"
	"credentialing-api/models"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// RegisterMonitorPage exposes a small ops status page plus a JSON endpoint
// with credentialing counters.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Credentialing Monitor</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background: #111; color: #ddd; padding: 24px; }
    h1 { font-size: 1.6rem; margin-bottom: 1rem; }
    pre { background: #1c1c1c; padding: 16px; border-radius: 8px; }
  </style>
</head>
<body>
  <h1>Credentialing API</h1>
  <pre id="stats">loading...</pre>
  <script>
    fetch('/monitor/stats')
      .then(function (r) { return r.json(); })
      .then(function (s) { document.getElementById('stats').textContent = JSON.stringify(s, null, 2); })
      .catch(function () { document.getElementById('stats').textContent = 'unavailable'; });
  </script>
</body>
</html>`))
	})

	router.GET("/monitor/stats", func(c *gin.Context) {
		stats := gin.H{
			"uptime_seconds": int(time.Since(startTime).Seconds()),
		}

		var open int64
		if err := config.DB.Model(&models.CredentialingRecord{}).
			Where("status IN ?", []string{models.RecordStatusPending, models.RecordStatusInProgress}).
			Count(&open).Error; err == nil {
			stats["open_records"] = open
		}

		var unresolvedCritical int64
		if err := config.DB.Model(&models.Alert{}).
			Where("resolved = ? AND severity = ?", false, models.AlertSeverityCritical).
			Count(&unresolvedCritical).Error; err == nil {
			stats["unresolved_critical_alerts"] = unresolvedCritical
		}

		var unresolved int64
		if err := config.DB.Model(&models.Alert{}).
			Where("resolved = ?", false).
			Count(&unresolved).Error; err == nil {
			stats["unresolved_alerts"] = unresolved
		}

		c.JSON(200, stats)
	})
}
