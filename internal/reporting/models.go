package reporting

import (
	"time"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/plan"
)

// MetricUsage is one metered resource's position against its quota.
type MetricUsage struct {
	Metric    account.Metric `json:"metric"`
	Used      int64          `json:"used"`
	Included  int64          `json:"included"`
	Remaining int64          `json:"remaining"`

	// PercentUsed can exceed 100 once the quota is blown.
	PercentUsed float64 `json:"percent_used"`

	OverageUnits     int64 `json:"overage_units"`
	OverageCostMills int64 `json:"overage_cost_mills"`
}

// UsageReport is the dashboard view of the current open period: where each
// counter stands and what the bill would be if the period closed now.
type UsageReport struct {
	AccountID string         `json:"account_id"`
	Plan      plan.Tier      `json:"plan"`
	Status    account.Status `json:"status"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Minutes MetricUsage `json:"minutes"`
	SMS     MetricUsage `json:"sms"`
	Emails  MetricUsage `json:"emails"`

	BasePriceMills        int64 `json:"base_price_mills"`
	ProjectedOverageMills int64 `json:"projected_overage_mills"`
	ProjectedTotalMills   int64 `json:"projected_total_mills"`
}

// CallsSummary aggregates recent call outcomes for one account.
type CallsSummary struct {
	AccountID string `json:"account_id"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`
	BusyCalls      int `json:"busy_calls"`
	CanceledCalls  int `json:"canceled_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}
