package routes

import (
	"credentialing-api/controllers"
	"credentialing-api/middleware"
	"credentialing-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Credentialing API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)
			protected.POST("/logout", controllers.Logout)

			// Provider portal
			my := protected.Group("/my", middleware.RequireRole(models.RoleProvider))
			{
				my.GET("/credentialing", controllers.GetMyCredentialing)
				my.GET("/documents", controllers.GetMyDocuments)
				my.POST("/documents", controllers.UploadMyDocument)
				my.GET("/documents/:document_id/download", controllers.DownloadMyDocument)
				my.DELETE("/documents/:document_id", controllers.DeleteMyDocument)
				my.POST("/identity-number", controllers.SubmitIdentityNumber)
				my.GET("/alerts", controllers.GetMyAlerts)
			}

			// Admin credentialing review
			admin := protected.Group("", middleware.RequireRole(models.RoleAdmin))
			{
				credentialing := admin.Group("/credentialing")
				{
					credentialing.GET("/pending", controllers.GetPendingProviders)
					credentialing.GET("/:provider_id", controllers.GetProviderDetail)
					credentialing.POST("/:provider_id/verifications", controllers.RunVerifications)
					credentialing.POST("/:provider_id/verifications/:type", controllers.RunSingleVerification)
					credentialing.POST("/:provider_id/phases/:phase/start", controllers.StartPhase)
					credentialing.POST("/:provider_id/phases/:phase/complete", controllers.CompletePhase)
					credentialing.POST("/:provider_id/phases/:phase/fail", controllers.FailPhase)
					credentialing.POST("/:provider_id/reject", controllers.RejectProvider)
					credentialing.POST("/:provider_id/reopen", controllers.ReopenProvider)
					credentialing.POST("/:provider_id/notes", controllers.AddNote)
					credentialing.POST("/:provider_id/alerts/evaluate", controllers.EvaluateProviderAlerts)
				}

				documents := admin.Group("/documents")
				{
					documents.PUT("/:document_id/verify", controllers.VerifyDocument)
					documents.GET("/:document_id/download", controllers.DownloadDocument)
				}

				alerts := admin.Group("/alerts")
				{
					alerts.GET("", controllers.GetAlerts)
					alerts.POST("/:alert_id/resolve", controllers.ResolveAlert)
				}
			}
		}
	}
}
