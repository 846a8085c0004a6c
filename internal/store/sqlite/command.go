package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/revittco/storeadmin/internal/store"
)

func (d *DB) InsertCommandRecord(ctx context.Context, r *store.CommandRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	_, err := d.q.ExecContext(ctx, `
		INSERT INTO command_records
			(id, timestamp, token, resource, op, entity_id, actor,
			 payload_redacted, status, error_message, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.Timestamp), r.Token, r.Resource, r.Op, r.EntityID,
		r.Actor, jsonColumn(r.PayloadRedacted, "{}"), r.Status,
		r.ErrorMessage, r.LatencyMs,
	)
	return err
}

// QueryCommandRecords returns one page of records, newest first, and the
// total number matching the filter.
func (d *DB) QueryCommandRecords(
	ctx context.Context, f store.CommandFilter,
) ([]store.CommandRecord, int, error) {
	where, args := buildCommandWhere(f)

	var total int
	if err := d.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM command_records"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	dataQ := `SELECT id, timestamp, token, resource, op, entity_id, actor,
		payload_redacted, status, error_message, latency_ms
		FROM command_records` + where +
		` ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	dataArgs := append(args, limit, f.Offset)

	rows, err := d.q.QueryContext(ctx, dataQ, dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []store.CommandRecord
	for rows.Next() {
		r, err := scanCommandRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// CountCommandRecords counts records per status, optionally for one
// resource.
func (d *DB) CountCommandRecords(ctx context.Context, resource string) (map[string]int, error) {
	q := `SELECT status, COUNT(*) FROM command_records`
	var args []any
	if resource != "" {
		q += ` WHERE resource = ?`
		args = append(args, resource)
	}
	q += ` GROUP BY status`

	rows, err := d.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan command count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func buildCommandWhere(f store.CommandFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Resource != nil {
		conds = append(conds, "resource = ?")
		args = append(args, *f.Resource)
	}
	if f.Op != nil {
		conds = append(conds, "op = ?")
		args = append(args, *f.Op)
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *f.Status)
	}
	if f.After != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(*f.After))
	}
	if f.Before != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, formatTime(*f.Before))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCommandRow(row rowScanner) (*store.CommandRecord, error) {
	var r store.CommandRecord
	var ts, payload string
	err := row.Scan(
		&r.ID, &ts, &r.Token, &r.Resource, &r.Op, &r.EntityID, &r.Actor,
		&payload, &r.Status, &r.ErrorMessage, &r.LatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("scan command row: %w", err)
	}
	r.PayloadRedacted = json.RawMessage(payload)
	r.Timestamp = parseTime(ts)
	return &r, nil
}
