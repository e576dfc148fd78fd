package telephony

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/audit"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/internal/calls"
	"frontdesk-platform/internal/plan"
)

type noopInvoicer struct{}

func (noopInvoicer) ChargeOverage(ctx context.Context, customerRef string, amountCents int64, description string) (string, error) {
	return "in_noop", nil
}

type webhookFixture struct {
	h        *WebhookHandler
	accounts *account.MemoryStore
	calls    *calls.MemoryStore
	now      time.Time
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	accounts := account.NewMemoryStore()
	callStore := calls.NewMemoryStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	billingSvc := billing.NewService(accounts, billing.NewMemoryRecordRepo(), noopInvoicer{},
		audit.NewService(audit.NewMemoryRepo()), log, 30*24*time.Hour)

	// Noon UTC with 9-17 UTC hours: the line is open.
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	err := accounts.Create(context.Background(), account.Account{
		ID:                 "acct-1",
		BusinessName:       "Bluebird Dental",
		PhoneNumber:        "+15550001111",
		ForwardingNumber:   "+15559998888",
		Plan:               plan.TierPro,
		Status:             account.StatusActive,
		CurrentPeriodStart: now.Add(-10 * 24 * time.Hour),
		CurrentPeriodEnd:   now.Add(20 * 24 * time.Hour),
		Timezone:           "UTC",
		OpenHour:           9,
		CloseHour:          17,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	return &webhookFixture{
		h: &WebhookHandler{
			Accounts: accounts,
			Calls:    callStore,
			Billing:  billingSvc,
			Clock:    func() time.Time { return now },
		},
		accounts: accounts,
		calls:    callStore,
		now:      now,
	}
}

func postForm(t *testing.T, fn gin.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	fn(c)
	return w
}

func TestHandleInboundVoice_PlaysMenu(t *testing.T) {
	f := newWebhookFixture(t)

	w := postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA100"},
		"From":    {"+15557770000"},
		"To":      {"+15550001111"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Bluebird Dental") {
		t.Fatalf("greeting missing business name:\n%s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("expected gather menu:\n%s", body)
	}

	call, err := f.calls.FindByProviderCallID(context.Background(), "CA100")
	if err != nil {
		t.Fatalf("call record not created: %v", err)
	}
	if call.AccountID != "acct-1" {
		t.Fatalf("call bound to %s", call.AccountID)
	}
	if len(call.IVRPath) != 1 || call.IVRPath[0] != "menu" {
		t.Fatalf("ivr path = %v", call.IVRPath)
	}
}

func TestHandleInboundVoice_UnknownNumberRejects(t *testing.T) {
	f := newWebhookFixture(t)

	w := postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA101"},
		"From":    {"+15557770000"},
		"To":      {"+15553334444"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<Reject") {
		t.Fatalf("expected reject:\n%s", w.Body.String())
	}
}

func TestHandleInboundVoice_AfterHoursTakesMessage(t *testing.T) {
	f := newWebhookFixture(t)
	f.h.Clock = func() time.Time {
		return time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)
	}

	w := postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA102"},
		"From":    {"+15557770000"},
		"To":      {"+15550001111"},
	})
	body := w.Body.String()
	if !strings.Contains(body, "currently closed") {
		t.Fatalf("expected after-hours message:\n%s", body)
	}
	if !strings.Contains(body, "<Record") {
		t.Fatalf("expected voicemail record:\n%s", body)
	}

	call, _ := f.calls.FindByProviderCallID(context.Background(), "CA102")
	if len(call.IVRPath) != 1 || call.IVRPath[0] != "after_hours" {
		t.Fatalf("ivr path = %v", call.IVRPath)
	}
}

func TestHandleIVRSelection_ForwardDials(t *testing.T) {
	f := newWebhookFixture(t)
	postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA103"},
		"To":      {"+15550001111"},
	})

	w := postForm(t, f.h.HandleIVRSelection, PathIVR, url.Values{
		"CallSid": {"CA103"},
		"Digits":  {"2"},
	})
	body := w.Body.String()
	if !strings.Contains(body, "<Number>+15559998888</Number>") {
		t.Fatalf("expected dial to forwarding number:\n%s", body)
	}

	call, _ := f.calls.FindByProviderCallID(context.Background(), "CA103")
	if len(call.IVRPath) != 2 || call.IVRPath[1] != "forward" {
		t.Fatalf("ivr path = %v", call.IVRPath)
	}
}

func TestHandleIVRSelection_UnknownDigitReprompts(t *testing.T) {
	f := newWebhookFixture(t)
	postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA104"},
		"To":      {"+15550001111"},
	})

	w := postForm(t, f.h.HandleIVRSelection, PathIVR, url.Values{
		"CallSid": {"CA104"},
		"Digits":  {"7"},
	})
	if !strings.Contains(w.Body.String(), "<Gather") {
		t.Fatalf("expected re-prompt gather:\n%s", w.Body.String())
	}
}

func TestHandleStatusCallback_BillsCeilingMinutesOnce(t *testing.T) {
	f := newWebhookFixture(t)
	postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA105"},
		"To":      {"+15550001111"},
	})

	form := url.Values{
		"CallSid":      {"CA105"},
		"CallStatus":   {"completed"},
		"CallDuration": {"245"},
	}
	w := postForm(t, f.h.HandleStatusCallback, PathStatus, form)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	ctx := context.Background()
	a, _ := f.accounts.FindByID(ctx, "acct-1")
	if a.MinutesUsed != 5 {
		t.Fatalf("minutes = %d, want 5 (ceil of 245s)", a.MinutesUsed)
	}

	// Redelivered callback must not double-bill.
	w = postForm(t, f.h.HandleStatusCallback, PathStatus, form)
	if w.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", w.Code)
	}
	a, _ = f.accounts.FindByID(ctx, "acct-1")
	if a.MinutesUsed != 5 {
		t.Fatalf("minutes = %d after redelivery, want 5", a.MinutesUsed)
	}
}

func TestHandleStatusCallback_IgnoresProgressEvents(t *testing.T) {
	f := newWebhookFixture(t)
	postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA106"},
		"To":      {"+15550001111"},
	})

	w := postForm(t, f.h.HandleStatusCallback, PathStatus, url.Values{
		"CallSid":    {"CA106"},
		"CallStatus": {"ringing"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	call, _ := f.calls.FindByProviderCallID(context.Background(), "CA106")
	if call.Status.Terminal() {
		t.Fatalf("progress event must not finish the call")
	}
}

func TestHandleStatusCallback_FailedCallBillsNothing(t *testing.T) {
	f := newWebhookFixture(t)
	postForm(t, f.h.HandleInboundVoice, PathVoice, url.Values{
		"CallSid": {"CA107"},
		"To":      {"+15550001111"},
	})

	postForm(t, f.h.HandleStatusCallback, PathStatus, url.Values{
		"CallSid":    {"CA107"},
		"CallStatus": {"no-answer"},
	})

	a, _ := f.accounts.FindByID(context.Background(), "acct-1")
	if a.MinutesUsed != 0 {
		t.Fatalf("failed call billed %d minutes", a.MinutesUsed)
	}
}

func TestHandleInboundSMS_CountsAndReplies(t *testing.T) {
	f := newWebhookFixture(t)

	w := postForm(t, f.h.HandleInboundSMS, PathSMS, url.Values{
		"MessageSid": {"SM100"},
		"From":       {"+15557770000"},
		"To":         {"+15550001111"},
		"Body":       {"Do you take walk-ins?"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Bluebird Dental") {
		t.Fatalf("auto-reply missing business name:\n%s", w.Body.String())
	}

	a, _ := f.accounts.FindByID(context.Background(), "acct-1")
	if a.SMSUsed != 1 {
		t.Fatalf("sms = %d, want 1", a.SMSUsed)
	}
}

func TestHandleInboundSMS_UnknownNumberEmptyResponse(t *testing.T) {
	f := newWebhookFixture(t)

	w := postForm(t, f.h.HandleInboundSMS, PathSMS, url.Values{
		"MessageSid": {"SM101"},
		"To":         {"+15553334444"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "<Message>") {
		t.Fatalf("unknown number must not get a reply:\n%s", w.Body.String())
	}
}
