package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/audit"
	"frontdesk-platform/internal/auth"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/internal/reporting"
	"frontdesk-platform/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Billing   *billing.Service
	Reporting *reporting.Service
	Audit     *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: credential validation (password/SSO) sits in front of this service;
// this endpoint trusts the identity fields and only mints tokens.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.AccountID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, account_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.AccountID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me echoes the caller's identity from the verified token.
func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	aid, _ := auth.AccountID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "account_id": aid, "role": role})
}

// --- Usage & billing ---

// GetUsage returns the caller's current-period usage report.
func (h Handlers) GetUsage(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account_id required"})
		return
	}
	report, err := h.Reporting.CurrentUsage(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "usage lookup failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListUsageRecords returns closed-period billing history, newest first.
func (h Handlers) ListUsageRecords(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account_id required"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	recs, err := h.Reporting.BillingHistory(c.Request.Context(), accountID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	if recs == nil {
		recs = []billing.UsageRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

// GetCallsSummary returns aggregated recent call outcomes.
func (h Handlers) GetCallsSummary(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account_id required"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	sum, err := h.Reporting.CallsSummary(c.Request.Context(), accountID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// --- Admin ---

// AdminReconcile closes the billing period for the account in the path.
// RBAC: owner or super_admin; re-running for the same period is a no-op.
func (h Handlers) AdminReconcile(c *gin.Context) {
	log := logger.FromGin(c)

	targetID := c.Param("account_id")
	if targetID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "account_id required"})
		return
	}

	rec, err := h.Billing.Reconcile(c.Request.Context(), targetID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrChargeFailed):
			// The record is persisted; only the charge is outstanding.
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "overage charge failed", "record": rec})
		case errors.Is(err, account.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			log.Error("manual reconcile failed", "target_account_id", targetID, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		}
		return
	}

	if h.Audit != nil {
		actorID, _ := auth.UserID(c.Request.Context())
		actorRole, _ := auth.Role(c.Request.Context())
		_ = h.Audit.LogAdminAction(c.Request.Context(), targetID, actorID, actorRole, c.ClientIP(),
			"manual billing reconcile", "")
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}
