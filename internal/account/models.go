package account

import (
	"time"

	"frontdesk-platform/internal/plan"
)

// Account is one paying business tenant of the receptionist service.
//
// Counter invariant: the three usage counters are monotonically non-decreasing
// within a billing period. The only write paths are the store's atomic
// IncrementUsage and ResetPeriod; nothing else may touch them.
//
// Period invariant: CurrentPeriodStart < CurrentPeriodEnd.
type Account struct {
	ID           string `json:"id" db:"id"`
	BusinessName string `json:"business_name" db:"business_name"`

	// PhoneNumber is the provisioned receptionist number (E.164); inbound
	// webhooks resolve the tenant by the dialed number.
	PhoneNumber string `json:"phone_number" db:"phone_number"`

	// ForwardingNumber receives calls when a caller asks for a person.
	ForwardingNumber string `json:"forwarding_number,omitempty" db:"forwarding_number"`

	Plan   plan.Tier `json:"plan" db:"plan"`
	Status Status    `json:"status" db:"status"`

	MinutesUsed int64 `json:"minutes_used" db:"minutes_used"`
	SMSUsed     int64 `json:"sms_used" db:"sms_used"`
	EmailsUsed  int64 `json:"emails_used" db:"emails_used"`

	CurrentPeriodStart time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end" db:"current_period_end"`

	AutoPayOverages bool `json:"auto_pay_overages" db:"auto_pay_overages"`

	// StripeCustomerID is the external billing-customer reference; empty until
	// the tenant completes checkout.
	StripeCustomerID     string `json:"stripe_customer_id,omitempty" db:"stripe_customer_id"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty" db:"stripe_subscription_id"`

	// Business-hours window in the account's local time, used by the IVR.
	Timezone  string `json:"timezone" db:"timezone"`
	OpenHour  int    `json:"open_hour" db:"open_hour"`
	CloseHour int    `json:"close_hour" db:"close_hour"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Metric identifies one metered resource.
type Metric string

const (
	MetricMinutes Metric = "minutes"
	MetricSMS     Metric = "sms"
	MetricEmails  Metric = "emails"
)

// ValidMetric reports whether m is one of the three metered resources.
func ValidMetric(m Metric) bool {
	switch m {
	case MetricMinutes, MetricSMS, MetricEmails:
		return true
	default:
		return false
	}
}

// Counters is a point-in-time snapshot of the period's usage.
type Counters struct {
	Minutes int64 `json:"minutes"`
	SMS     int64 `json:"sms"`
	Emails  int64 `json:"emails"`
}

// Counters returns the account's current usage snapshot.
func (a Account) Counters() Counters {
	return Counters{Minutes: a.MinutesUsed, SMS: a.SMSUsed, Emails: a.EmailsUsed}
}
