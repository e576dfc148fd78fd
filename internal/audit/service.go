package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// There are no Update/Delete methods and none should be added.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.AccountID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogReconcile records one completed billing-cycle close.
func (s *Service) LogReconcile(ctx context.Context, accountID, recordID, invoiceID, message string) error {
	return s.Append(ctx, Event{
		AccountID:     accountID,
		Type:          EventTypeReconcile,
		UsageRecordID: recordID,
		InvoiceID:     invoiceID,
		Message:       message,
	})
}

// LogChargeFailed records an exhausted overage-charge attempt.
// The usage record stays unpaid; this event is the ops breadcrumb.
func (s *Service) LogChargeFailed(ctx context.Context, accountID, recordID, message string) error {
	return s.Append(ctx, Event{
		AccountID:     accountID,
		Type:          EventTypeChargeFailed,
		UsageRecordID: recordID,
		Message:       message,
	})
}

// LogPeriodReset records a counter reset triggered by a payment event.
func (s *Service) LogPeriodReset(ctx context.Context, accountID, message string) error {
	return s.Append(ctx, Event{
		AccountID: accountID,
		Type:      EventTypePeriodReset,
		Message:   message,
	})
}

// LogAdminAction records a privileged manual action (including hidden roles).
func (s *Service) LogAdminAction(ctx context.Context, accountID, actorUserID, actorRole, ip, message, metadata string) error {
	return s.Append(ctx, Event{
		AccountID:   accountID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
		Metadata:    metadata,
	})
}
