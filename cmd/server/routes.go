package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadhub.backend/internal/domain/entities"
	"leadhub.backend/internal/interfaces/http/handlers"
	"leadhub.backend/internal/interfaces/http/middleware"
)

type routeDeps struct {
	authHandler     *handlers.AuthHandler
	leadHandler     *handlers.LeadHandler
	bulkHandler     *handlers.BulkHandler
	documentHandler *handlers.DocumentHandler
	authMiddleware  gin.HandlerFunc
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", d.authHandler.Login)
			auth.GET("/me", d.authMiddleware, d.authHandler.Me)
		}

		leads := api.Group("/leads")
		leads.Use(d.authMiddleware)
		{
			leads.GET("", d.leadHandler.List)
			leads.POST("", d.leadHandler.Create)

			// Static segments must register beside the :id routes.
			leads.POST("/bulk", d.bulkHandler.Import)
			leads.GET("/export", d.bulkHandler.Export)
			leads.GET("/template", d.bulkHandler.Template)
			leads.GET("/metrics/dashboard",
				middleware.RequireRole(entities.UserRoleCompanyAdmin),
				d.leadHandler.Dashboard)

			leads.GET("/:id", d.leadHandler.Get)
			leads.PUT("/:id/status", d.leadHandler.UpdateStatus)
			leads.POST("/:id/comments", d.leadHandler.AddComment)
			leads.POST("/:id/documents", d.documentHandler.Upload)
			leads.GET("/:id/documents/download", d.leadHandler.DownloadDocuments)
			leads.DELETE("/:id", d.leadHandler.Delete)
		}

		documents := api.Group("/documents")
		documents.Use(d.authMiddleware)
		{
			documents.GET("/:id/url", d.documentHandler.SignedURL)
			documents.DELETE("/:id", d.documentHandler.Delete)
		}
	}
}
