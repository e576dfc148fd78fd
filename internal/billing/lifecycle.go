package billing

import (
	"context"
	"errors"
	"time"

	"frontdesk-platform/internal/account"
)

// Payment-provider lifecycle handlers. These are called from the webhook
// layer after signature verification and event dedup; each one is safe to
// re-run because the underlying writes are idempotent.

// SubscriptionUpdate carries the provider's view of a subscription after a
// customer.subscription.* event, already mapped to internal types.
type SubscriptionUpdate struct {
	Status      account.Status
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// OnPaymentSucceeded handles a paid subscription invoice: the account enters
// a fresh billing period, so the counters reset and the window rolls forward
// from now. Unknown customer references are logged and dropped; billing
// providers replay events for customers that were deleted locally.
func (s *Service) OnPaymentSucceeded(ctx context.Context, customerRef string) error {
	a, err := s.accounts.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.log.Warn("payment succeeded for unknown customer", "customer_ref", customerRef)
			return nil
		}
		return err
	}

	// One atomic store write: zeroed counters must never coexist with a
	// past_due status if we fail part way through.
	now := s.clock().UTC()
	if err := s.accounts.ResetPeriod(ctx, a.ID, account.StatusActive, now, now.Add(s.cycle)); err != nil {
		return err
	}

	if s.audit != nil {
		_ = s.audit.LogPeriodReset(ctx, a.ID, "counters reset on paid invoice")
	}
	s.log.Info("billing period reset",
		"account_id", a.ID,
		"period_start", now,
		"period_end", now.Add(s.cycle),
	)
	return nil
}

// OnPaymentFailed marks the account past_due. Counters are left untouched;
// the period stays open until a successful payment closes it.
func (s *Service) OnPaymentFailed(ctx context.Context, customerRef string) error {
	a, err := s.accounts.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.log.Warn("payment failed for unknown customer", "customer_ref", customerRef)
			return nil
		}
		return err
	}
	if err := s.accounts.SetStatus(ctx, a.ID, account.StatusPastDue); err != nil {
		return err
	}
	s.log.Warn("account past due", "account_id", a.ID)
	return nil
}

// OnSubscriptionUpdated mirrors the provider's subscription state onto the
// account. When the provider supplies a period window it becomes
// authoritative for the account's window; counters are not touched.
func (s *Service) OnSubscriptionUpdated(ctx context.Context, customerRef string, u SubscriptionUpdate) error {
	a, err := s.accounts.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.log.Warn("subscription update for unknown customer", "customer_ref", customerRef)
			return nil
		}
		return err
	}
	if !u.PeriodStart.IsZero() && u.PeriodEnd.After(u.PeriodStart) {
		return s.accounts.SetStatusAndPeriod(ctx, a.ID, u.Status, u.PeriodStart, u.PeriodEnd)
	}
	return s.accounts.SetStatus(ctx, a.ID, u.Status)
}

// OnSubscriptionCanceled marks the account canceled. Historical usage records
// are retained.
func (s *Service) OnSubscriptionCanceled(ctx context.Context, customerRef string) error {
	a, err := s.accounts.FindByCustomerRef(ctx, customerRef)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.log.Warn("subscription cancel for unknown customer", "customer_ref", customerRef)
			return nil
		}
		return err
	}
	if err := s.accounts.SetStatus(ctx, a.ID, account.StatusCanceled); err != nil {
		return err
	}
	s.log.Info("account canceled", "account_id", a.ID)
	return nil
}
