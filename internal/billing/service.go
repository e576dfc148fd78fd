package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/audit"
	"frontdesk-platform/internal/plan"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Invoicer is the payment boundary for overage charges. Amounts cross this
// boundary in whole cents; everything inside billing stays in mills.
type Invoicer interface {
	ChargeOverage(ctx context.Context, customerRef string, amountCents int64, description string) (invoiceID string, err error)
}

// ErrChargeFailed means the usage record was persisted but the overage charge
// did not go through after retries. The record stays unpaid for a later sweep;
// callers receive the record alongside this error.
var ErrChargeFailed = errors.New("billing: overage charge failed")

const chargeAttempts = 3

// Service owns usage metering and end-of-period reconciliation.
type Service struct {
	accounts account.Store
	records  RecordRepository
	invoicer Invoicer
	audit    *audit.Service
	log      *slog.Logger

	// cycle is the fixed billing period length.
	cycle time.Duration

	// clock is injectable for deterministic tests.
	clock func() time.Time

	// chargeRetryInterval seeds the backoff between charge attempts.
	chargeRetryInterval time.Duration
}

func NewService(accounts account.Store, records RecordRepository, invoicer Invoicer, auditSvc *audit.Service, log *slog.Logger, cycle time.Duration) *Service {
	if cycle <= 0 {
		cycle = 30 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		accounts:            accounts,
		records:             records,
		invoicer:            invoicer,
		audit:               auditSvc,
		log:                 log,
		cycle:               cycle,
		clock:               time.Now,
		chargeRetryInterval: time.Second,
	}
}

// IncrementUsage records consumption of one metered resource. The underlying
// store applies the delta atomically, so concurrent webhook deliveries never
// lose updates.
func (s *Service) IncrementUsage(ctx context.Context, accountID string, metric account.Metric, amount int64) error {
	if accountID == "" || amount <= 0 || !account.ValidMetric(metric) {
		return account.ErrInvalidArgument
	}
	if err := s.accounts.IncrementUsage(ctx, accountID, metric, amount); err != nil {
		return err
	}
	s.log.Debug("usage incremented",
		"account_id", accountID,
		"metric", string(metric),
		"amount", amount,
	)
	return nil
}

// Statement prices the account's current counters without persisting anything.
// Used by the reporting surface for mid-period projections.
func (s *Service) Statement(ctx context.Context, accountID string) (Statement, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return Statement{}, err
	}
	entry, err := plan.Lookup(a.Plan)
	if err != nil {
		return Statement{}, err
	}
	return Calculate(entry, a.Counters()), nil
}

// Reconcile closes the account's current billing period: it prices the
// counters, persists an immutable usage record, and (when the account opted
// in) charges the overage.
//
// Idempotency: a second reconcile for the same period returns the existing
// record with no error and charges nothing. A failed charge still persists
// the record; the caller gets the record plus ErrChargeFailed.
//
// Reconcile deliberately does not reset counters. Counters reset only when
// the payment provider confirms the new period (OnPaymentSucceeded), so a
// failed charge never silently forgives usage.
func (s *Service) Reconcile(ctx context.Context, accountID string) (UsageRecord, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return UsageRecord{}, err
	}
	entry, err := plan.Lookup(a.Plan)
	if err != nil {
		return UsageRecord{}, fmt.Errorf("reconcile %s: %w", accountID, err)
	}

	st := Calculate(entry, a.Counters())
	rec := recordFromStatement(a, st, s.clock().UTC())

	if err := s.records.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicatePeriod) {
			existing, ferr := s.records.FindByPeriodStart(ctx, a.ID, a.CurrentPeriodStart)
			if ferr != nil {
				return UsageRecord{}, ferr
			}
			s.log.Info("period already reconciled",
				"account_id", a.ID,
				"usage_record_id", existing.ID,
			)
			return existing, nil
		}
		return UsageRecord{}, err
	}

	if st.TotalOverageMills > 0 && a.AutoPayOverages && a.StripeCustomerID != "" {
		desc := fmt.Sprintf("Usage overage %s to %s ($%s)",
			rec.PeriodStart.Format("2006-01-02"),
			rec.PeriodEnd.Format("2006-01-02"),
			plan.DollarsFromMills(st.TotalOverageMills),
		)
		invoiceID, cerr := s.chargeWithRetry(ctx, a.StripeCustomerID, plan.CentsFromMills(st.TotalOverageMills), desc)
		if cerr != nil {
			s.log.Warn("overage charge failed",
				"account_id", a.ID,
				"usage_record_id", rec.ID,
				"overage_mills", st.TotalOverageMills,
				"error", cerr.Error(),
			)
			if s.audit != nil {
				_ = s.audit.LogChargeFailed(ctx, a.ID, rec.ID, cerr.Error())
			}
			return rec, fmt.Errorf("%w: %v", ErrChargeFailed, cerr)
		}

		paidAt := s.clock().UTC()
		if err := s.records.MarkPaid(ctx, rec.ID, invoiceID, paidAt); err != nil {
			return rec, err
		}
		rec.StripeInvoiceID = invoiceID
		rec.Paid = true
		rec.PaidAt = &paidAt
	}

	if s.audit != nil {
		_ = s.audit.LogReconcile(ctx, a.ID, rec.ID, rec.StripeInvoiceID,
			fmt.Sprintf("period closed, overage $%s", plan.DollarsFromMills(rec.TotalOverageMills)))
	}
	s.log.Info("period reconciled",
		"account_id", a.ID,
		"usage_record_id", rec.ID,
		"overage_mills", rec.TotalOverageMills,
		"paid", rec.Paid,
	)
	return rec, nil
}

func (s *Service) chargeWithRetry(ctx context.Context, customerRef string, amountCents int64, description string) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.chargeRetryInterval
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	var invoiceID string
	op := func() error {
		id, err := s.invoicer.ChargeOverage(ctx, customerRef, amountCents, description)
		if err != nil {
			return err
		}
		invoiceID = id
		return nil
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), chargeAttempts-1)); err != nil {
		return "", err
	}
	return invoiceID, nil
}

func recordFromStatement(a account.Account, st Statement, now time.Time) UsageRecord {
	return UsageRecord{
		ID:          uuid.NewString(),
		AccountID:   a.ID,
		PeriodStart: a.CurrentPeriodStart,
		PeriodEnd:   a.CurrentPeriodEnd,

		Plan:           st.Plan,
		BasePriceMills: st.BasePriceMills,

		MinutesIncluded:  st.Minutes.Included,
		MinutesUsed:      st.Minutes.Used,
		MinutesOverage:   st.Minutes.Overage,
		MinutesCostMills: st.Minutes.CostMills,

		SMSIncluded:  st.SMS.Included,
		SMSUsed:      st.SMS.Used,
		SMSOverage:   st.SMS.Overage,
		SMSCostMills: st.SMS.CostMills,

		EmailsIncluded:  st.Emails.Included,
		EmailsUsed:      st.Emails.Used,
		EmailsOverage:   st.Emails.Overage,
		EmailsCostMills: st.Emails.CostMills,

		TotalOverageMills: st.TotalOverageMills,
		TotalMills:        st.TotalMills,

		CreatedAt: now,
	}
}
