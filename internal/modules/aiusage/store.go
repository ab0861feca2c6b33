package aiusage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles ai_usage persistence.
type Store struct {
	db    *pgxpool.Pool
	quota int
}

// NewStore returns a Store granting quota generations per month; a
// non-positive quota means DefaultMonthlyQuota.
func NewStore(db *pgxpool.Pool, quota int) *Store {
	if quota <= 0 {
		quota = DefaultMonthlyQuota
	}
	return &Store{db: db, quota: quota}
}

// Consume atomically checks the quota for month and deducts one generation,
// resetting the counter when the stored month is older. Returns
// ErrQuotaExhausted when no row was updated (quota spent or owner absent).
func (s *Store) Consume(ctx context.Context, owner, month string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE ai_usage SET
			tokens_remaining = CASE WHEN last_reset_month != $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, s.quota, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExhausted
	}
	return nil
}

// Ensure creates the owner's row with a full quota if it does not exist.
func (s *Store) Ensure(ctx context.Context, owner, month string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO ai_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, owner, s.quota, month)
	return err
}

// Get returns the stored usage; ok is false for an unknown owner.
func (s *Store) Get(ctx context.Context, owner string) (Usage, bool, error) {
	u := Usage{Owner: owner}
	err := s.db.QueryRow(ctx,
		`SELECT tokens_remaining, last_reset_month FROM ai_usage WHERE uid = $1`, owner,
	).Scan(&u.Remaining, &u.Month)
	if errors.Is(err, pgx.ErrNoRows) {
		return Usage{}, false, nil
	}
	if err != nil {
		return Usage{}, false, err
	}
	return u, true, nil
}
