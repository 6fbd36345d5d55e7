// internal/app/router.go
package app

import (
	authHandler "pocket-agency-service/internal/handlers/auth"
	projectHandler "pocket-agency-service/internal/handlers/project"
	subscriptionHandler "pocket-agency-service/internal/handlers/subscription"
	webhookHandler "pocket-agency-service/internal/handlers/webhook"
	"pocket-agency-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler         *authHandler.AuthHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	WebhookHandler      *webhookHandler.WebhookHandler
	ProjectHandler      *projectHandler.ProjectHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Payment Gateway Webhook ====================
	// Server-to-server, authenticated by the gateway's own signing rules,
	// never by a user token.
	api.POST("/payfast/notify", h.WebhookHandler.HandleNotify)

	// ==================== Auth ====================
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.AuthHandler.Login)
		auth.POST("/accept-invite", h.AuthHandler.AcceptInvite)
	}

	// ==================== Plans ====================
	// Public price list for the marketing site.
	api.GET("/plans", h.SubscriptionHandler.ListPlans)

	// ==================== Subscriptions ====================
	subscriptions := api.Group("/subscriptions")
	{
		// Subscribe works with or without a token: anonymous visitors get
		// an association token to claim the subscription after signup.
		subscriptions.POST("", h.AuthMiddleware.OptionalAuth(), h.SubscriptionHandler.Subscribe)

		subscriptionsAuth := subscriptions.Group("")
		subscriptionsAuth.Use(h.AuthMiddleware.Auth())
		{
			subscriptionsAuth.POST("/claim", h.SubscriptionHandler.Claim)
			subscriptionsAuth.GET("/current", h.SubscriptionHandler.GetCurrent)
			subscriptionsAuth.PUT("/plan", h.SubscriptionHandler.ChangePlan)
			subscriptionsAuth.POST("/cancel", h.SubscriptionHandler.Cancel)
		}
	}

	// ==================== Projects ====================
	projects := api.Group("/projects")
	projects.Use(h.AuthMiddleware.Auth())
	{
		projects.POST("", h.ProjectHandler.CreateProject)
		projects.GET("", h.ProjectHandler.ListProjects)
		projects.GET("/:id", h.ProjectHandler.GetProject)

		staff := projects.Group("")
		staff.Use(h.AuthMiddleware.StaffOnly()...)
		{
			staff.PUT("/:id/status", h.ProjectHandler.UpdateStatus)
		}
	}

	// ==================== ADMIN ROUTES ====================
	admin := api.Group("/admin")
	{
		superAdmin := admin.Group("")
		superAdmin.Use(h.AuthMiddleware.SuperAdminOnly()...)
		{
			superAdmin.POST("/invites", h.AuthHandler.CreateInvite)
		}
	}
}
