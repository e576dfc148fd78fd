package calls

import "time"

// Call is one tenant-scoped receptionist call.
//
// Multi-tenant invariant: AccountID is required on every row.
//
// Billing note: minutes are charged from the provider's completed status
// callback, keyed by ProviderCallID. The Complete transition below is the
// only path to status completed, which keeps duplicate callbacks from
// double-billing.
type Call struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"account_id" db:"account_id"`

	// ProviderCallID is the provider's identifier (Twilio CallSid).
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status Status `json:"status" db:"status"`

	DurationSeconds int `json:"duration_seconds" db:"duration_seconds"`

	// IVRPath records the caller's menu journey in order ("menu", "hours",
	// "forward", ...). Stored as JSONB.
	IVRPath []string `json:"ivr_path,omitempty" db:"ivr_path"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoAnswer   Status = "no_answer"
	StatusBusy       Status = "busy"
	StatusCanceled   Status = "canceled"
)

// StatusFromProvider maps a Twilio CallStatus string to the internal enum.
// Unknown values map to failed so they still terminate the call record.
func StatusFromProvider(s string) Status {
	switch s {
	case "queued":
		return StatusQueued
	case "ringing", "initiated":
		return StatusRinging
	case "in-progress", "answered":
		return StatusInProgress
	case "completed":
		return StatusCompleted
	case "busy":
		return StatusBusy
	case "no-answer":
		return StatusNoAnswer
	case "canceled":
		return StatusCanceled
	default:
		return StatusFailed
	}
}

// Terminal reports whether s is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy, StatusCanceled:
		return true
	default:
		return false
	}
}
