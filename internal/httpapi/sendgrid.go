package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/pkg/logger"
	"frontdesk-platform/pkg/utils"
)

// SendGridWebhook meters outbound receptionist emails. SendGrid batches
// events into a JSON array and delivers at-least-once; each delivered event
// is claimed once in Redis before it counts against the tenant.
//
// The account is carried on each event via SendGrid custom args
// (unique_args.account_id set at send time).
type SendGridWebhook struct {
	Billing *billing.Service
	Redis   *redis.Client
}

type sendgridEvent struct {
	Event       string `json:"event"`
	SGEventID   string `json:"sg_event_id"`
	SGMessageID string `json:"sg_message_id"`
	AccountID   string `json:"account_id"`
}

func (h *SendGridWebhook) Handle(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	var events []sendgridEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	counted := 0
	for _, e := range events {
		// Only delivered mail is billable; bounces, opens and clicks are not.
		if e.Event != "delivered" {
			continue
		}
		if e.AccountID == "" {
			log.Warn("delivered event without account_id", "sg_event_id", e.SGEventID)
			continue
		}

		claimKey := ""
		if h.Redis != nil && e.SGEventID != "" {
			key := "webhook:sendgrid:" + e.SGEventID
			fresh, err := utils.ClaimEvent(ctx, h.Redis, key, 72*time.Hour)
			if err != nil {
				log.Warn("sendgrid event dedup unavailable", "sg_event_id", e.SGEventID, "err", err)
			} else if !fresh {
				continue
			} else {
				claimKey = key
			}
		}

		if err := h.Billing.IncrementUsage(ctx, e.AccountID, account.MetricEmails, 1); err != nil {
			// Release this event's claim so the redelivered batch bills it;
			// a held claim would skip the event and lose the email forever.
			if claimKey != "" {
				if derr := utils.ReleaseEvent(ctx, h.Redis, claimKey); derr != nil {
					log.Warn("sendgrid event claim release failed", "sg_event_id", e.SGEventID, "err", derr)
				}
			}
			log.Error("email metering failed",
				"account_id", e.AccountID,
				"sg_event_id", e.SGEventID,
				"err", err,
			)
			// Non-2xx makes SendGrid redeliver the whole batch; per-event
			// claims keep already-counted events from double-billing.
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "metering failed"})
			return
		}
		counted++
	}

	c.JSON(http.StatusOK, gin.H{"received": len(events), "counted": counted})
}
