package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists accounts in the accounts table.
//
// Assumed schema highlights:
// - PRIMARY KEY (id)
// - UNIQUE (phone_number)
// - stripe_customer_id indexed for webhook lookups
// - counters are BIGINT NOT NULL DEFAULT 0
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const accountColumns = `
id, business_name, phone_number, forwarding_number, plan, status,
minutes_used, sms_used, emails_used,
current_period_start, current_period_end, auto_pay_overages,
stripe_customer_id, stripe_subscription_id,
timezone, open_hour, close_hour, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, a Account) error {
	if a.ID == "" || a.PhoneNumber == "" {
		return ErrInvalidArgument
	}
	const q = `
INSERT INTO accounts (` + accountColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`
	_, err := s.db.ExecContext(ctx, q,
		a.ID, a.BusinessName, a.PhoneNumber, a.ForwardingNumber, a.Plan, a.Status,
		a.MinutesUsed, a.SMSUsed, a.EmailsUsed,
		a.CurrentPeriodStart, a.CurrentPeriodEnd, a.AutoPayOverages,
		a.StripeCustomerID, a.StripeSubscriptionID,
		a.Timezone, a.OpenHour, a.CloseHour, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresStore) FindByCustomerRef(ctx context.Context, customerRef string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE stripe_customer_id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, customerRef))
}

func (s *PostgresStore) FindByPhoneNumber(ctx context.Context, phoneNumber string) (Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE phone_number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, q, phoneNumber))
}

// IncrementUsage applies one atomic counter increment.
// A single UPDATE keeps concurrent webhook deliveries commutative; there is
// deliberately no read-then-write here.
func (s *PostgresStore) IncrementUsage(ctx context.Context, id string, metric Metric, amount int64) error {
	if id == "" || amount <= 0 {
		return ErrInvalidArgument
	}
	col, err := counterColumn(metric)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`UPDATE accounts SET %s = %s + $1, updated_at = $2 WHERE id = $3`, col, col)
	res, err := s.db.ExecContext(ctx, q, amount, s.clock().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ResetPeriod is a single UPDATE so the counter zeroing, the new window, and
// the status change land together or not at all.
func (s *PostgresStore) ResetPeriod(ctx context.Context, id string, status Status, start, end time.Time) error {
	if id == "" || !start.Before(end) {
		return ErrInvalidArgument
	}
	const q = `
UPDATE accounts
SET minutes_used = 0, sms_used = 0, emails_used = 0, status = $1,
    current_period_start = $2, current_period_end = $3, updated_at = $4
WHERE id = $5
`
	res, err := s.db.ExecContext(ctx, q, status, start, end, s.clock().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) SetStatus(ctx context.Context, id string, status Status) error {
	const q = `UPDATE accounts SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, q, status, s.clock().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) SetStatusAndPeriod(ctx context.Context, id string, status Status, start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidArgument
	}
	const q = `
UPDATE accounts
SET status = $1, current_period_start = $2, current_period_end = $3, updated_at = $4
WHERE id = $5
`
	res, err := s.db.ExecContext(ctx, q, status, start, end, s.clock().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PostgresStore) scanOne(row *sql.Row) (Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.BusinessName, &a.PhoneNumber, &a.ForwardingNumber, &a.Plan, &a.Status,
		&a.MinutesUsed, &a.SMSUsed, &a.EmailsUsed,
		&a.CurrentPeriodStart, &a.CurrentPeriodEnd, &a.AutoPayOverages,
		&a.StripeCustomerID, &a.StripeSubscriptionID,
		&a.Timezone, &a.OpenHour, &a.CloseHour, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func counterColumn(metric Metric) (string, error) {
	// Whitelist column names; metric values never reach SQL text directly.
	switch metric {
	case MetricMinutes:
		return "minutes_used", nil
	case MetricSMS:
		return "sms_used", nil
	case MetricEmails:
		return "emails_used", nil
	default:
		return "", fmt.Errorf("%w: metric %q", ErrInvalidArgument, metric)
	}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
