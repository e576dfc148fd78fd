package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"frontdesk-platform/internal/auth"
	"frontdesk-platform/internal/config"
	"frontdesk-platform/internal/httpapi"
	"frontdesk-platform/internal/payments"
	"frontdesk-platform/internal/rbac"
	"frontdesk-platform/internal/telephony"
)

type routeDeps struct {
	cfg  config.Config
	rdb  *redis.Client
	auth *auth.Manager

	handlers httpapi.Handlers
	stripe   *payments.WebhookHandler
	twilio   *telephony.WebhookHandler
	sendgrid *httpapi.SendGridWebhook

	health func(ctx context.Context) error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		if d.health != nil {
			if err := d.health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider webhooks. Authenticated by provider signatures, not JWTs;
	// rate-limited per source IP because providers burst on retry.
	hooks := r.Group("/webhooks")
	hooks.Use(httpapi.RateLimit(d.rdb, 300, time.Minute))
	{
		hooks.POST("/stripe", d.stripe.Handle)
		hooks.POST("/sendgrid/events", d.sendgrid.Handle)

		twilio := hooks.Group("/twilio")
		twilio.Use(telephony.RequireSignature(d.cfg.Twilio.AuthToken, d.cfg.Twilio.PublicBaseURL))
		{
			twilio.POST("/voice", d.twilio.HandleInboundVoice)
			twilio.POST("/ivr", d.twilio.HandleIVRSelection)
			twilio.POST("/status", d.twilio.HandleStatusCallback)
			twilio.POST("/sms", d.twilio.HandleInboundSMS)
		}
	}

	v1 := r.Group("/v1")

	v1.POST("/auth/login", d.handlers.Login)

	protected := v1.Group("")
	protected.Use(auth.RequireAccessToken(d.auth))
	protected.Use(rbac.RequireAccount())
	{
		protected.GET("/me", d.handlers.Me)

		// Usage & billing history: any tenant role may read.
		usage := protected.Group("/usage")
		usage.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleStaff, rbac.RoleBilling, rbac.RoleSuperAdmin))
		{
			usage.GET("", d.handlers.GetUsage)
			usage.GET("/records", d.handlers.ListUsageRecords)
			usage.GET("/calls", d.handlers.GetCallsSummary)
		}

		// Admin actions. Hidden support role is intentionally NOT included.
		admin := protected.Group("/admin")
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			admin.POST("/accounts/:account_id/reconcile", d.handlers.AdminReconcile)
		}
	}
}
