package payments

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"frontdesk-platform/internal/billing"
	"frontdesk-platform/pkg/logger"
	"frontdesk-platform/pkg/utils"
)

const (
	// Stripe caps webhook payloads well under this.
	maxWebhookBody = 1 << 16

	// eventClaimTTL bounds the dedup keys; Stripe retries for up to 3 days,
	// but the underlying billing writes are idempotent beyond the TTL.
	eventClaimTTL = 72 * time.Hour
)

// WebhookHandler receives Stripe events and dispatches them to billing.
//
// Ordering: Stripe delivers at-least-once with no ordering guarantee, so each
// branch must stand alone. Dedup is best-effort via Redis; the billing layer's
// idempotence is the real guard.
type WebhookHandler struct {
	billing *billing.Service
	rdb     *redis.Client
	secret  string

	// verify is swappable in tests.
	verify func(payload []byte, header, secret string) (stripe.Event, error)
}

func NewWebhookHandler(b *billing.Service, rdb *redis.Client, secret string) *WebhookHandler {
	return &WebhookHandler{
		billing: b,
		rdb:     rdb,
		secret:  secret,
		verify:  webhook.ConstructEvent,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	event, err := h.verify(payload, c.GetHeader("Stripe-Signature"), h.secret)
	if err != nil {
		log.Warn("stripe signature verification failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	claimKey := "webhook:stripe:" + event.ID
	claimed := false
	if h.rdb != nil {
		fresh, err := utils.ClaimEvent(ctx, h.rdb, claimKey, eventClaimTTL)
		if err != nil {
			// Dedup is advisory; the handlers below are idempotent.
			log.Warn("stripe event dedup unavailable", "event_id", event.ID, "err", err)
		} else if !fresh {
			log.Info("duplicate stripe event dropped", "event_id", event.ID, "type", string(event.Type))
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		} else {
			claimed = true
		}
	}

	if err := h.dispatch(c, event); err != nil {
		// Release the claim so Stripe's redelivery is handled rather than
		// dropped as a duplicate; otherwise a transient failure here loses
		// the event for the whole claim TTL.
		if claimed {
			if derr := utils.ReleaseEvent(ctx, h.rdb, claimKey); derr != nil {
				log.Warn("stripe event claim release failed", "event_id", event.ID, "err", derr)
			}
		}
		log.Error("stripe event handling failed",
			"event_id", event.ID,
			"type", string(event.Type),
			"err", err,
		)
		// Non-2xx makes Stripe redeliver.
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "event handling failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) dispatch(c *gin.Context, event stripe.Event) error {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	switch event.Type {
	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return err
		}
		return h.billing.OnPaymentSucceeded(ctx, customerRef(inv.Customer))

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return err
		}
		return h.billing.OnPaymentFailed(ctx, customerRef(inv.Customer))

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		u := billing.SubscriptionUpdate{
			Status: accountStatusFromStripe(sub.Status),
		}
		if sub.CurrentPeriodStart > 0 && sub.CurrentPeriodEnd > sub.CurrentPeriodStart {
			u.PeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
			u.PeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		}
		return h.billing.OnSubscriptionUpdated(ctx, customerRef(sub.Customer), u)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return h.billing.OnSubscriptionCanceled(ctx, customerRef(sub.Customer))

	default:
		log.Debug("stripe event ignored", "type", string(event.Type))
		return nil
	}
}

func customerRef(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
