package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends to the audit_events table. The table is INSERT-only;
// no update or delete statements exist anywhere in this package.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events (
  id, account_id, type, actor_user_id, actor_role, ip_address,
  usage_record_id, invoice_id, message, metadata, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		e.AccountID,
		e.Type,
		e.ActorUserID,
		e.ActorRole,
		e.IPAddress,
		e.UsageRecordID,
		e.InvoiceID,
		e.Message,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}
