package payments

import (
	stripe "github.com/stripe/stripe-go/v81"

	"frontdesk-platform/internal/account"
)

// accountStatusFromStripe maps Stripe's subscription lifecycle onto the
// internal account states. Anything where Stripe is still trying to collect
// maps to past_due so service access degrades rather than cutting off.
func accountStatusFromStripe(s stripe.SubscriptionStatus) account.Status {
	switch s {
	case stripe.SubscriptionStatusActive:
		return account.StatusActive
	case stripe.SubscriptionStatusTrialing:
		return account.StatusTrial
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return account.StatusCanceled
	default:
		// past_due, unpaid, incomplete, paused
		return account.StatusPastDue
	}
}
