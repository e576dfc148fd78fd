package billing

import (
	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/plan"
)

// Line is the priced breakdown of one metered resource.
type Line struct {
	Metric    account.Metric `json:"metric"`
	Included  int64          `json:"included"`
	Used      int64          `json:"used"`
	Overage   int64          `json:"overage"`
	RateMills int64          `json:"rate_mills"`
	CostMills int64          `json:"cost_mills"`
}

// Statement is the full priced statement for one period's usage against a
// catalog entry. All amounts are in mills.
type Statement struct {
	Plan           plan.Tier `json:"plan"`
	BasePriceMills int64     `json:"base_price_mills"`

	Minutes Line `json:"minutes"`
	SMS     Line `json:"sms"`
	Emails  Line `json:"emails"`

	TotalOverageMills int64 `json:"total_overage_mills"`
	TotalMills        int64 `json:"total_mills"`
}

// Calculate prices a usage snapshot against a catalog entry.
//
// Pure function: no clock, no I/O. Overage is max(0, used-included) per
// resource; there is no cross-resource netting, so unused quota on one
// resource never offsets overage on another.
func Calculate(e plan.Entry, c account.Counters) Statement {
	st := Statement{
		Plan:           e.Tier,
		BasePriceMills: e.BasePriceMills,
		Minutes:        priceLine(account.MetricMinutes, e.Included.Minutes, c.Minutes, e.Overage.MinuteMills),
		SMS:            priceLine(account.MetricSMS, e.Included.SMS, c.SMS, e.Overage.SMSMills),
		Emails:         priceLine(account.MetricEmails, e.Included.Emails, c.Emails, e.Overage.EmailMills),
	}
	st.TotalOverageMills = st.Minutes.CostMills + st.SMS.CostMills + st.Emails.CostMills
	st.TotalMills = st.BasePriceMills + st.TotalOverageMills
	return st
}

func priceLine(metric account.Metric, included, used, rateMills int64) Line {
	overage := used - included
	if overage < 0 {
		overage = 0
	}
	return Line{
		Metric:    metric,
		Included:  included,
		Used:      used,
		Overage:   overage,
		RateMills: rateMills,
		CostMills: overage * rateMills,
	}
}

// BillableMinutes converts a call duration in seconds to billed minutes,
// rounding any partial minute up. Zero and negative durations bill nothing.
func BillableMinutes(seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}
