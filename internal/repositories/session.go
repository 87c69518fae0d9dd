package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/soundexplorer/internal/shared"
)

// SessionRepository persists encoded session records in the sessions table.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used for expiry checks.
func (r *SessionRepository) WithClock(now func() time.Time) *SessionRepository {
	r.now = now
	return r
}

// Load returns the record for id, or nil when it does not exist or has expired.
func (r *SessionRepository) Load(ctx context.Context, id string) ([]byte, error) {
	query := `SELECT data FROM sessions WHERE id = ? AND expires_at > ?`

	var data []byte
	err := r.db.QueryRowContext(ctx, query, id, r.now().Unix()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return data, nil
}

// Save inserts or replaces the record for id, expiring ttl from now.
func (r *SessionRepository) Save(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if id == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", shared.ErrInvalidArgument)
	}

	query := `
		INSERT INTO sessions (id, data, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query, id, data, now.Add(ttl).Unix(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the record for id. Deleting a missing record is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every expired record and reports how many were removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}

// Count returns the number of stored records, expired or not.
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
