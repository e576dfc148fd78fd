package billing

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrRecordNotFound = errors.New("billing: usage record not found")

	// ErrDuplicatePeriod means a record already exists for the account's
	// current period start. Reconciliation treats this as "already closed".
	ErrDuplicatePeriod = errors.New("billing: usage record already exists for period")
)

// RecordRepository persists closed-period usage records.
//
// Records are insert-once: the only mutation after insert is MarkPaid, which
// attaches the external invoice reference.
type RecordRepository interface {
	Insert(ctx context.Context, r UsageRecord) error
	FindByID(ctx context.Context, id string) (UsageRecord, error)
	FindByPeriodStart(ctx context.Context, accountID string, start time.Time) (UsageRecord, error)
	MarkPaid(ctx context.Context, id, invoiceID string, paidAt time.Time) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]UsageRecord, error)
}

// PostgresRecordRepo assumes a usage_records table with
// UNIQUE (account_id, period_start).
type PostgresRecordRepo struct {
	db *sql.DB
}

func NewPostgresRecordRepo(db *sql.DB) *PostgresRecordRepo {
	return &PostgresRecordRepo{db: db}
}

const recordColumns = `
id, account_id, period_start, period_end, plan, base_price_mills,
minutes_included, minutes_used, minutes_overage, minutes_cost_mills,
sms_included, sms_used, sms_overage, sms_cost_mills,
emails_included, emails_used, emails_overage, emails_cost_mills,
total_overage_mills, total_mills, stripe_invoice_id, paid, paid_at, created_at`

func (r *PostgresRecordRepo) Insert(ctx context.Context, rec UsageRecord) error {
	// ON CONFLICT DO NOTHING + rows-affected check keeps the duplicate guard
	// race-free without a preliminary SELECT.
	const q = `
INSERT INTO usage_records (` + recordColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
ON CONFLICT (account_id, period_start) DO NOTHING
`
	res, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.AccountID,
		rec.PeriodStart,
		rec.PeriodEnd,
		rec.Plan,
		rec.BasePriceMills,
		rec.MinutesIncluded,
		rec.MinutesUsed,
		rec.MinutesOverage,
		rec.MinutesCostMills,
		rec.SMSIncluded,
		rec.SMSUsed,
		rec.SMSOverage,
		rec.SMSCostMills,
		rec.EmailsIncluded,
		rec.EmailsUsed,
		rec.EmailsOverage,
		rec.EmailsCostMills,
		rec.TotalOverageMills,
		rec.TotalMills,
		rec.StripeInvoiceID,
		rec.Paid,
		rec.PaidAt,
		rec.CreatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicatePeriod
	}
	return nil
}

func (r *PostgresRecordRepo) FindByID(ctx context.Context, id string) (UsageRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM usage_records WHERE id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

func (r *PostgresRecordRepo) FindByPeriodStart(ctx context.Context, accountID string, start time.Time) (UsageRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM usage_records WHERE account_id = $1 AND period_start = $2`
	return scanRecord(r.db.QueryRowContext(ctx, q, accountID, start))
}

func (r *PostgresRecordRepo) MarkPaid(ctx context.Context, id, invoiceID string, paidAt time.Time) error {
	const q = `
UPDATE usage_records
SET stripe_invoice_id = $1, paid = TRUE, paid_at = $2
WHERE id = $3
`
	res, err := r.db.ExecContext(ctx, q, invoiceID, paidAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *PostgresRecordRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]UsageRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	const q = `
SELECT ` + recordColumns + `
FROM usage_records
WHERE account_id = $1
ORDER BY period_start DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (UsageRecord, error) {
	var rec UsageRecord
	var paidAt sql.NullTime
	err := row.Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.PeriodStart,
		&rec.PeriodEnd,
		&rec.Plan,
		&rec.BasePriceMills,
		&rec.MinutesIncluded,
		&rec.MinutesUsed,
		&rec.MinutesOverage,
		&rec.MinutesCostMills,
		&rec.SMSIncluded,
		&rec.SMSUsed,
		&rec.SMSOverage,
		&rec.SMSCostMills,
		&rec.EmailsIncluded,
		&rec.EmailsUsed,
		&rec.EmailsOverage,
		&rec.EmailsCostMills,
		&rec.TotalOverageMills,
		&rec.TotalMills,
		&rec.StripeInvoiceID,
		&rec.Paid,
		&paidAt,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UsageRecord{}, ErrRecordNotFound
		}
		return UsageRecord{}, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		rec.PaidAt = &t
	}
	return rec, nil
}
