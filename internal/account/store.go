package account

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("account: not found")
	ErrInvalidArgument = errors.New("account: invalid argument")
)

// Store is the persistence contract for tenant accounts.
//
// Counter discipline: IncrementUsage must be a single atomic read-modify-write
// against the backing store (UPDATE ... SET x = x + ?). Concurrent increments
// from parallel webhook deliveries are commutative and must never lose
// updates. There is no decrement; ResetPeriod is the only path back to zero.
//
// Increment failures propagate to the caller; the webhook layer owns retry.
type Store interface {
	Create(ctx context.Context, a Account) error
	FindByID(ctx context.Context, id string) (Account, error)
	FindByCustomerRef(ctx context.Context, customerRef string) (Account, error)
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (Account, error)

	IncrementUsage(ctx context.Context, id string, metric Metric, amount int64) error

	// ResetPeriod zeroes all three counters, rolls the billing window, and
	// sets the account status in one atomic write. A payment-confirmed reset
	// must never leave zeroed counters on a still-past_due account.
	ResetPeriod(ctx context.Context, id string, status Status, start, end time.Time) error

	SetStatus(ctx context.Context, id string, status Status) error
	SetStatusAndPeriod(ctx context.Context, id string, status Status, start, end time.Time) error
}
