package calls

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// Store is the persistence contract for call records.
type Store interface {
	Create(ctx context.Context, c Call) error
	FindByProviderCallID(ctx context.Context, providerCallID string) (Call, error)

	// AppendIVRStep adds one step to the call's menu journey.
	AppendIVRStep(ctx context.Context, providerCallID, step string) error

	// Finish applies a terminal provider status. It returns the updated call
	// and whether this invocation performed the transition; re-delivered
	// callbacks for an already-terminal call return transitioned=false so the
	// caller bills at most once.
	Finish(ctx context.Context, providerCallID string, status Status, durationSeconds int) (Call, bool, error)

	ListByAccount(ctx context.Context, accountID string, limit int) ([]Call, error)
}
