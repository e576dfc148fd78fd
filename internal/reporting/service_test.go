package reporting

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

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

type reportFixture struct {
	svc      *Service
	accounts *account.MemoryStore
	records  *billing.MemoryRecordRepo
	calls    *calls.MemoryStore
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	accounts := account.NewMemoryStore()
	records := billing.NewMemoryRecordRepo()
	callStore := calls.NewMemoryStore()

	now := time.Unix(1700000000, 0).UTC()
	err := accounts.Create(context.Background(), account.Account{
		ID:                 "acct-1",
		BusinessName:       "Bluebird Dental",
		PhoneNumber:        "+15550001111",
		Plan:               plan.TierPro,
		Status:             account.StatusActive,
		CurrentPeriodStart: now.Add(-10 * 24 * time.Hour),
		CurrentPeriodEnd:   now.Add(20 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	billingSvc := billing.NewService(accounts, records, noopInvoicer{},
		audit.NewService(audit.NewMemoryRepo()), log, 30*24*time.Hour)

	return &reportFixture{
		svc:      NewService(accounts, billingSvc, records, callStore),
		accounts: accounts,
		records:  records,
		calls:    callStore,
	}
}

func TestCurrentUsage(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_ = f.accounts.IncrementUsage(ctx, "acct-1", account.MetricMinutes, 2_200)
	_ = f.accounts.IncrementUsage(ctx, "acct-1", account.MetricSMS, 1_000)

	r, err := f.svc.CurrentUsage(ctx, "acct-1")
	if err != nil {
		t.Fatalf("current usage: %v", err)
	}

	if r.Minutes.Used != 2_200 || r.Minutes.Included != 2_000 {
		t.Fatalf("minutes = %+v", r.Minutes)
	}
	if r.Minutes.PercentUsed != 110 {
		t.Fatalf("minutes percent = %v, want 110", r.Minutes.PercentUsed)
	}
	if r.Minutes.Remaining != 0 {
		t.Fatalf("blown quota must report zero remaining, got %d", r.Minutes.Remaining)
	}
	if r.Minutes.OverageUnits != 200 || r.Minutes.OverageCostMills != 30_000 {
		t.Fatalf("minutes overage = %+v", r.Minutes)
	}

	if r.SMS.PercentUsed != 20 {
		t.Fatalf("sms percent = %v, want 20", r.SMS.PercentUsed)
	}
	if r.SMS.Remaining != 4_000 {
		t.Fatalf("sms remaining = %d, want 4000", r.SMS.Remaining)
	}

	if r.ProjectedOverageMills != 30_000 || r.ProjectedTotalMills != 209_000 {
		t.Fatalf("projection = %d / %d", r.ProjectedOverageMills, r.ProjectedTotalMills)
	}
}

func TestCurrentUsage_Validation(t *testing.T) {
	f := newReportFixture(t)

	if _, err := f.svc.CurrentUsage(context.Background(), ""); err != ErrInvalidRequest {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := f.svc.CurrentUsage(context.Background(), "missing"); err != account.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBillingHistory(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	base := time.Unix(1690000000, 0).UTC()
	for i := 0; i < 3; i++ {
		start := base.AddDate(0, 0, 30*i)
		err := f.records.Insert(ctx, billing.UsageRecord{
			ID:          "rec-" + string(rune('a'+i)),
			AccountID:   "acct-1",
			PeriodStart: start,
			PeriodEnd:   start.AddDate(0, 0, 30),
			Plan:        plan.TierPro,
			TotalMills:  179_000,
			CreatedAt:   start,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	recs, err := f.svc.BillingHistory(ctx, "acct-1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if !recs[0].PeriodStart.After(recs[1].PeriodStart) {
		t.Fatalf("expected newest first")
	}
}

func TestCallsSummary(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	seed := []struct {
		sid      string
		status   calls.Status
		duration int
	}{
		{"CA1", calls.StatusCompleted, 120},
		{"CA2", calls.StatusCompleted, 60},
		{"CA3", calls.StatusNoAnswer, 0},
	}
	for i, c := range seed {
		call := calls.Call{
			ID:             c.sid,
			AccountID:      "acct-1",
			ProviderCallID: c.sid,
			Status:         calls.StatusRinging,
			CreatedAt:      time.Unix(int64(1700000000+i), 0).UTC(),
		}
		if err := f.calls.Create(ctx, call); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, _, err := f.calls.Finish(ctx, c.sid, c.status, c.duration); err != nil {
			t.Fatalf("finish: %v", err)
		}
	}

	sum, err := f.svc.CallsSummary(ctx, "acct-1", 50)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalCalls != 3 || sum.CompletedCalls != 2 || sum.NoAnswerCalls != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TotalDurationSeconds != 180 || sum.AverageDurationSeconds != 60 {
		t.Fatalf("durations: %+v", sum)
	}
}
