package main

import (
	"github.com/gin-gonic/gin"

	"call-pipeline/internal/auth"
	"call-pipeline/internal/httpapi"
	"call-pipeline/internal/storage"
	"call-pipeline/internal/webhook"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, wh webhook.Handler, repo storage.Repository, authManager *auth.Manager) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). Inbound webhook authentication is handled
	// upstream by the deployment environment.
	r.POST("/webhooks/justcall/call", wh.HandleCallCompleted)

	// protected read API
	v1 := r.Group("/v1")
	v1.Use(auth.RequireAccessToken(authManager))
	{
		h := httpapi.Handlers{Repo: repo}
		v1.GET("/calls/:call_sid", h.GetCall)
	}
}
