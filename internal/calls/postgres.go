package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PostgresStore assumes a calls table with UNIQUE (provider_call_id) and
// ivr_path JSONB NOT NULL DEFAULT '[]'.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, clock: time.Now}
}

const callColumns = `
id, account_id, provider_call_id, from_number, to_number, status,
duration_seconds, ivr_path, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c Call) error {
	if c.ID == "" || c.AccountID == "" || c.ProviderCallID == "" {
		return ErrInvalidArgument
	}
	path, err := json.Marshal(pathOrEmpty(c.IVRPath))
	if err != nil {
		return err
	}
	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	_, err = s.db.ExecContext(ctx, q,
		c.ID,
		c.AccountID,
		c.ProviderCallID,
		c.From,
		c.To,
		c.Status,
		c.DurationSeconds,
		path,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) FindByProviderCallID(ctx context.Context, providerCallID string) (Call, error) {
	const q = `SELECT ` + callColumns + ` FROM calls WHERE provider_call_id = $1`
	return scanCall(s.db.QueryRowContext(ctx, q, providerCallID))
}

func (s *PostgresStore) AppendIVRStep(ctx context.Context, providerCallID, step string) error {
	if step == "" {
		return ErrInvalidArgument
	}
	const q = `
UPDATE calls
SET ivr_path = ivr_path || to_jsonb($1::text), updated_at = $2
WHERE provider_call_id = $3
`
	res, err := s.db.ExecContext(ctx, q, step, s.clock().UTC(), providerCallID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Finish(ctx context.Context, providerCallID string, status Status, durationSeconds int) (Call, bool, error) {
	if !status.Terminal() {
		return Call{}, false, ErrInvalidArgument
	}
	// The status guard makes the terminal transition first-writer-wins, so a
	// re-delivered callback cannot flip the call or bill twice.
	const q = `
UPDATE calls
SET status = $1, duration_seconds = $2, updated_at = $3
WHERE provider_call_id = $4
  AND status NOT IN ('completed','failed','no_answer','busy','canceled')
RETURNING ` + callColumns
	c, err := scanCall(s.db.QueryRowContext(ctx, q, status, durationSeconds, s.clock().UTC(), providerCallID))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Call{}, false, err
	}

	// Either the call does not exist or it was already terminal.
	existing, ferr := s.FindByProviderCallID(ctx, providerCallID)
	if ferr != nil {
		return Call{}, false, ferr
	}
	return existing, false, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string, limit int) ([]Call, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE account_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := s.db.QueryContext(ctx, q, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var path []byte
	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.ProviderCallID,
		&c.From,
		&c.To,
		&c.Status,
		&c.DurationSeconds,
		&path,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	if len(path) > 0 {
		if err := json.Unmarshal(path, &c.IVRPath); err != nil {
			return Call{}, err
		}
	}
	return c, nil
}

func pathOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
