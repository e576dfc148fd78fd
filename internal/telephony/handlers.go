package telephony

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/internal/calls"
	"frontdesk-platform/internal/ivr"
	"frontdesk-platform/pkg/logger"
)

// Webhook paths, shared with route registration.
const (
	PathVoice  = "/webhooks/twilio/voice"
	PathIVR    = "/webhooks/twilio/ivr"
	PathStatus = "/webhooks/twilio/status"
	PathSMS    = "/webhooks/twilio/sms"
)

// WebhookHandler terminates Twilio callbacks: inbound voice, IVR digit
// collection, call status, and inbound SMS. The tenant is resolved from the
// dialed number; Twilio has no notion of our account IDs.
type WebhookHandler struct {
	Accounts account.Store
	Calls    calls.Store
	Billing  *billing.Service

	Clock func() time.Time
}

func (h *WebhookHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

// HandleInboundVoice answers a new call: resolves the tenant from the dialed
// number, opens a call record, and either plays the menu or the after-hours
// message.
func (h *WebhookHandler) HandleInboundVoice(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	f, err := ParseVoiceForm(c.Request)
	if err != nil || f.CallSid == "" || f.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	a, err := h.Accounts.FindByPhoneNumber(ctx, f.To)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			log.Warn("call to unknown number", "to", f.To)
			writeTwiML(c, new(Response).Reject("rejected"))
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if a.Status == account.StatusCanceled {
		writeTwiML(c, new(Response).Say("This number is no longer in service.").Hangup())
		return
	}

	now := h.now()
	call := calls.Call{
		ID:             uuid.NewString(),
		AccountID:      a.ID,
		ProviderCallID: f.CallSid,
		From:           f.From,
		To:             f.To,
		Status:         calls.StatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.Calls.Create(ctx, call); err != nil {
		log.Error("call record create failed", "call_sid", f.CallSid, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call setup failed"})
		return
	}

	hours := ivr.Hours{Timezone: a.Timezone, OpenHour: a.OpenHour, CloseHour: a.CloseHour}
	if !hours.OpenAt(now) {
		_ = h.Calls.AppendIVRStep(ctx, f.CallSid, "after_hours")
		writeTwiML(c, new(Response).
			Say(afterHoursText(a)).
			Record(120).
			Hangup())
		return
	}

	_ = h.Calls.AppendIVRStep(ctx, f.CallSid, "menu")
	writeTwiML(c, new(Response).
		Say(greetingText(a)).
		Gather(PathIVR, menuPrompt, 1))
}

// HandleIVRSelection handles the digits posted by the Gather verb.
func (h *WebhookHandler) HandleIVRSelection(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	f, err := ParseVoiceForm(c.Request)
	if err != nil || f.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	call, err := h.Calls.FindByProviderCallID(ctx, f.CallSid)
	if err != nil {
		log.Warn("ivr selection for unknown call", "call_sid", f.CallSid)
		writeTwiML(c, new(Response).Hangup())
		return
	}
	a, err := h.Accounts.FindByID(ctx, call.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	sel, ok := ivr.Resolve(f.Digits)
	if !ok {
		writeTwiML(c, new(Response).
			Gather(PathIVR, "Sorry, I didn't catch that. "+menuPrompt, 1))
		return
	}
	_ = h.Calls.AppendIVRStep(ctx, f.CallSid, string(sel))

	switch sel {
	case ivr.SelectionHours:
		writeTwiML(c, new(Response).Say(hoursText(a)).Hangup())
	case ivr.SelectionForward:
		if a.ForwardingNumber == "" {
			writeTwiML(c, new(Response).
				Say("No one is available to take your call right now. Please leave a message after the beep.").
				Record(120).
				Hangup())
			return
		}
		writeTwiML(c, new(Response).
			Say("Connecting you now, please hold.").
			Dial(a.ForwardingNumber))
	case ivr.SelectionVoicemail:
		writeTwiML(c, new(Response).
			Say("Please leave a message after the beep.").
			Record(120).
			Hangup())
	}
}

// HandleStatusCallback applies terminal call states and bills completed
// minutes. The store's Finish transition fires at most once per call, so a
// redelivered callback cannot double-bill.
func (h *WebhookHandler) HandleStatusCallback(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	f, err := ParseStatusForm(c.Request)
	if err != nil || f.CallSid == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	status := calls.StatusFromProvider(f.CallStatus)
	if !status.Terminal() {
		c.Status(http.StatusOK)
		return
	}

	call, transitioned, err := h.Calls.Finish(ctx, f.CallSid, status, f.DurationSeconds)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			log.Warn("status callback for unknown call", "call_sid", f.CallSid)
			c.Status(http.StatusOK)
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
		return
	}

	if transitioned && status == calls.StatusCompleted {
		minutes := billing.BillableMinutes(int64(f.DurationSeconds))
		if minutes > 0 {
			if err := h.Billing.IncrementUsage(ctx, call.AccountID, account.MetricMinutes, minutes); err != nil {
				// The call is already terminal, so a Twilio retry will not
				// re-bill; this needs the ops log, not a retry loop.
				log.Error("minute billing failed",
					"account_id", call.AccountID,
					"call_sid", f.CallSid,
					"minutes", minutes,
					"err", err,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "billing failed"})
				return
			}
		}
	}
	c.Status(http.StatusOK)
}

// HandleInboundSMS counts one inbound text against the tenant and queues the
// auto-reply.
func (h *WebhookHandler) HandleInboundSMS(c *gin.Context) {
	log := logger.FromGin(c)
	ctx := c.Request.Context()

	f, err := ParseSMSForm(c.Request)
	if err != nil || f.To == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	a, err := h.Accounts.FindByPhoneNumber(ctx, f.To)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			log.Warn("sms to unknown number", "to", f.To)
			writeTwiML(c, new(Response))
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	if err := h.Billing.IncrementUsage(ctx, a.ID, account.MetricSMS, 1); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "billing failed"})
		return
	}

	writeTwiML(c, new(Response).
		Message(fmt.Sprintf("Thanks for texting %s! A team member will get back to you shortly.", a.BusinessName)))
}

func writeTwiML(c *gin.Context, r *Response) {
	xml, err := r.Render()
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, xml)
}

func greetingText(a account.Account) string {
	return fmt.Sprintf("Thank you for calling %s.", a.BusinessName)
}

const menuPrompt = "Press 1 for business hours. Press 2 to speak with someone. Press 3 to leave a message."

func afterHoursText(a account.Account) string {
	return fmt.Sprintf("Thank you for calling %s. We are currently closed. Please leave a message after the beep and we will get back to you.", a.BusinessName)
}

func hoursText(a account.Account) string {
	if a.OpenHour == a.CloseHour {
		return "We are available around the clock."
	}
	return fmt.Sprintf("We are open from %s to %s.", clockText(a.OpenHour), clockText(a.CloseHour))
}

func clockText(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}
