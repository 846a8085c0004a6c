package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revittco/storeadmin/internal/store"
)

const accountColumns = `id, email, display_name, provider, password_hash,
	encrypted_credentials, last_sign_in_at, created_at, updated_at`

func (d *DB) CreateAccount(ctx context.Context, a *store.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	a.Email = strings.TrimSpace(a.Email)

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.DisplayName, a.Provider, a.PasswordHash,
		a.EncryptedCredentials, nullableTime(a.LastSignInAt),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return translateWriteError(err)
}

func (d *DB) GetAccount(ctx context.Context, id string) (*store.Account, error) {
	return scanAccount(d.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
}

// GetAccountByEmail matches case-insensitively.
func (d *DB) GetAccountByEmail(ctx context.Context, email string) (*store.Account, error) {
	return scanAccount(d.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`,
		strings.TrimSpace(email)))
}

func (d *DB) ListAccounts(ctx context.Context) ([]store.Account, error) {
	rows, err := d.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (d *DB) UpdateAccount(ctx context.Context, a *store.Account) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := d.q.ExecContext(ctx, `
		UPDATE accounts
		SET email = ?, display_name = ?, provider = ?, password_hash = ?,
		    last_sign_in_at = ?, updated_at = ?
		WHERE id = ?`,
		a.Email, a.DisplayName, a.Provider, a.PasswordHash,
		nullableTime(a.LastSignInAt), formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return translateWriteError(err)
	}
	return expectOneRow(res)
}

func (d *DB) UpdateAccountCredentials(ctx context.Context, id string, data []byte) error {
	res, err := d.q.ExecContext(ctx, `
		UPDATE accounts SET encrypted_credentials = ?, updated_at = ? WHERE id = ?`,
		data, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*store.Account, error) {
	var a store.Account
	var lastSignIn sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.Provider, &a.PasswordHash,
		&a.EncryptedCredentials, &lastSignIn, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.LastSignInAt = timeFromNullable(lastSignIn)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
