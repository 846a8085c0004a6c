package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/revittco/storeadmin/internal/store"
)

func (d *DB) CreateSession(ctx context.Context, s *store.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, provider, created_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.AccountID, s.Provider,
		formatTime(s.CreatedAt), formatTime(s.ExpiresAt), nullableTime(s.RevokedAt),
	)
	return translateWriteError(err)
}

func (d *DB) GetSession(ctx context.Context, id string) (*store.Session, error) {
	s, err := scanSession(d.q.QueryRowContext(ctx, `
		SELECT id, account_id, provider, created_at, expires_at, revoked_at
		FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return s, err
}

func (d *DB) RevokeSession(ctx context.Context, id string) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (d *DB) ListActiveSessions(ctx context.Context) ([]store.Session, error) {
	rows, err := d.q.QueryContext(ctx, `
		SELECT id, account_id, provider, created_at, expires_at, revoked_at
		FROM sessions
		WHERE revoked_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC`, formatTime(time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CleanupExpiredSessions deletes sessions that expired or were revoked
// before the cutoff.
func (d *DB) CleanupExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	cutoff := formatTime(before)
	res, err := d.q.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)`,
		cutoff, cutoff,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanSession(row rowScanner) (*store.Session, error) {
	var s store.Session
	var createdAt, expiresAt string
	var revokedAt sql.NullString
	if err := row.Scan(&s.ID, &s.AccountID, &s.Provider, &createdAt, &expiresAt, &revokedAt); err != nil {
		return nil, err
	}
	s.CreatedAt = parseTime(createdAt)
	s.ExpiresAt = parseTime(expiresAt)
	s.RevokedAt = timeFromNullable(revokedAt)
	return &s, nil
}
