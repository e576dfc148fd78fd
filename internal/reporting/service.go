package reporting

import (
	"context"
	"errors"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service produces read-only tenant-facing summaries. It never writes; all
// figures derive from the account counters, the immutable usage records, and
// the call log. Pricing goes through the billing service so projections and
// real reconciliations can never disagree.
type Service struct {
	accounts account.Store
	billing  *billing.Service
	records  billing.RecordRepository
	calls    calls.Store
}

func NewService(accounts account.Store, billingSvc *billing.Service, records billing.RecordRepository, callStore calls.Store) *Service {
	return &Service{accounts: accounts, billing: billingSvc, records: records, calls: callStore}
}

// CurrentUsage reports the open period's counters priced as if the period
// closed right now.
func (s *Service) CurrentUsage(ctx context.Context, accountID string) (UsageReport, error) {
	if accountID == "" {
		return UsageReport{}, ErrInvalidRequest
	}
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return UsageReport{}, err
	}
	st, err := s.billing.Statement(ctx, accountID)
	if err != nil {
		return UsageReport{}, err
	}
	return UsageReport{
		AccountID:   a.ID,
		Plan:        a.Plan,
		Status:      a.Status,
		PeriodStart: a.CurrentPeriodStart,
		PeriodEnd:   a.CurrentPeriodEnd,

		Minutes: metricUsage(st.Minutes),
		SMS:     metricUsage(st.SMS),
		Emails:  metricUsage(st.Emails),

		BasePriceMills:        st.BasePriceMills,
		ProjectedOverageMills: st.TotalOverageMills,
		ProjectedTotalMills:   st.TotalMills,
	}, nil
}

// BillingHistory returns closed-period records, newest first.
func (s *Service) BillingHistory(ctx context.Context, accountID string, limit int) ([]billing.UsageRecord, error) {
	if accountID == "" {
		return nil, ErrInvalidRequest
	}
	return s.records.ListByAccount(ctx, accountID, limit)
}

// CallsSummary aggregates the account's most recent calls.
func (s *Service) CallsSummary(ctx context.Context, accountID string, limit int) (CallsSummary, error) {
	if accountID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	rows, err := s.calls.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{AccountID: accountID}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		switch c.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusNoAnswer:
			out.NoAnswerCalls++
		case calls.StatusBusy:
			out.BusyCalls++
		case calls.StatusCanceled:
			out.CanceledCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

func metricUsage(l billing.Line) MetricUsage {
	u := MetricUsage{
		Metric:           l.Metric,
		Used:             l.Used,
		Included:         l.Included,
		OverageUnits:     l.Overage,
		OverageCostMills: l.CostMills,
	}
	if remaining := l.Included - l.Used; remaining > 0 {
		u.Remaining = remaining
	}
	if l.Included > 0 {
		u.PercentUsed = float64(l.Used) / float64(l.Included) * 100
	} else if l.Used > 0 {
		u.PercentUsed = 100
	}
	return u
}
