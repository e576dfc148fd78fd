package billing

import (
	"time"

	"frontdesk-platform/internal/plan"
)

// UsageRecord is the frozen line-item history for one closed billing period.
//
// Records are append-only: quotas, rates and the base price are snapshotted at
// reconciliation time so later catalog changes never rewrite history. At most
// one record exists per (account_id, period_start); the store enforces this
// with a unique constraint.
type UsageRecord struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"account_id" db:"account_id"`

	PeriodStart time.Time `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time `json:"period_end" db:"period_end"`

	Plan           plan.Tier `json:"plan" db:"plan"`
	BasePriceMills int64     `json:"base_price_mills" db:"base_price_mills"`

	MinutesIncluded  int64 `json:"minutes_included" db:"minutes_included"`
	MinutesUsed      int64 `json:"minutes_used" db:"minutes_used"`
	MinutesOverage   int64 `json:"minutes_overage" db:"minutes_overage"`
	MinutesCostMills int64 `json:"minutes_cost_mills" db:"minutes_cost_mills"`

	SMSIncluded  int64 `json:"sms_included" db:"sms_included"`
	SMSUsed      int64 `json:"sms_used" db:"sms_used"`
	SMSOverage   int64 `json:"sms_overage" db:"sms_overage"`
	SMSCostMills int64 `json:"sms_cost_mills" db:"sms_cost_mills"`

	EmailsIncluded  int64 `json:"emails_included" db:"emails_included"`
	EmailsUsed      int64 `json:"emails_used" db:"emails_used"`
	EmailsOverage   int64 `json:"emails_overage" db:"emails_overage"`
	EmailsCostMills int64 `json:"emails_cost_mills" db:"emails_cost_mills"`

	TotalOverageMills int64 `json:"total_overage_mills" db:"total_overage_mills"`
	TotalMills        int64 `json:"total_mills" db:"total_mills"`

	// StripeInvoiceID is set once the overage charge succeeds; empty when
	// nothing was charged (no overage, auto-pay off, or charge still pending).
	StripeInvoiceID string     `json:"stripe_invoice_id,omitempty" db:"stripe_invoice_id"`
	Paid            bool       `json:"paid" db:"paid"`
	PaidAt          *time.Time `json:"paid_at,omitempty" db:"paid_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
