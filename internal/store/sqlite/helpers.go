package sqlite

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/revittco/storeadmin/internal/store"
)

// Timestamps are stored as fixed-width UTC text so that range queries on
// started_at and expires_at can compare strings.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeFormat, s)
	return t
}

// nullableTime maps an optional timestamp onto a nullable column.
func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timeFromNullable(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// jsonColumn returns data as text, or fallback for an absent payload.
func jsonColumn(data json.RawMessage, fallback string) string {
	if len(data) == 0 || string(data) == "null" {
		return fallback
	}
	return string(data)
}

// expectOneRow turns an UPDATE or DELETE that touched nothing into
// store.ErrNotFound.
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// translateWriteError maps sqlite UNIQUE and PRIMARY KEY violations onto
// store.ErrAlreadyExists.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed: primary key") {
		return store.ErrAlreadyExists
	}
	return err
}
