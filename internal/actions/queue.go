package actions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/deskpanel/internal/signing"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

// Queue persists verified action requests in the action_queue table. A worker
// outside this service lists queued requests and marks them done or failed.
type Queue struct {
	db  *storage.DB
	now func() time.Time
}

// timeLayout is RFC 3339 with a fixed-width fraction so stored times sort
// lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewQueue returns a Queue over the action_queue table in db. The table is
// created by storage.Bootstrap.
func NewQueue(db *storage.DB) *Queue {
	return &Queue{db: db, now: time.Now}
}

// Enqueue stores act and returns the request id. A signed link is queued
// once: enqueueing the same signature again returns the first request's id.
func (q *Queue) Enqueue(ctx context.Context, act signing.Action, remoteAddr string) (string, error) {
	if err := Validate(act.Name, act.Params); err != nil {
		return "", err
	}
	params, err := json.Marshal(act.Params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}

	var signature sql.NullString
	if act.Signature != "" {
		signature = sql.NullString{String: act.Signature, Valid: true}
	}

	id := uuid.NewString()
	now := q.now().UTC().Format(timeLayout)
	_, err = q.db.ExecContext(ctx, q.db.Rebind(`
INSERT INTO action_queue(id, action, params, status, remote_addr, requested_at, expires_at, signature)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (signature) DO NOTHING;
`), id, act.Name, string(params), string(StatusQueued), remoteAddr, now, act.ExpiresAt.UTC().Format(time.RFC3339), signature)
	if err != nil {
		return "", fmt.Errorf("enqueue action: %w", err)
	}
	if !signature.Valid {
		return id, nil
	}

	var stored string
	err = q.db.QueryRowContext(ctx, q.db.Rebind(`SELECT id FROM action_queue WHERE signature = ?`), signature.String).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("enqueue action: %w", err)
	}
	return stored, nil
}

// List returns requests with status, oldest first. A limit <= 0 means no limit.
func (q *Queue) List(ctx context.Context, status Status, limit int) ([]Request, error) {
	query := `
SELECT id, action, params, status, remote_addr, requested_at, expires_at, completed_at
FROM action_queue
WHERE status = ?
ORDER BY requested_at ASC, id ASC`
	args := []any{string(status)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.db.QueryContext(ctx, q.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return out, nil
}

// Get returns the request with id.
func (q *Queue) Get(ctx context.Context, id string) (*Request, error) {
	rows, err := q.db.QueryContext(ctx, q.db.Rebind(`
SELECT id, action, params, status, remote_addr, requested_at, expires_at, completed_at
FROM action_queue
WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("get action: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get action: %w", err)
		}
		return nil, ErrNotFound
	}
	r, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Complete moves a queued request to status, which must be done or failed.
func (q *Queue) Complete(ctx context.Context, id string, status Status) error {
	if status != StatusDone && status != StatusFailed {
		return fmt.Errorf("invalid completion status %q", status)
	}
	now := q.now().UTC().Format(timeLayout)
	res, err := q.db.ExecContext(ctx, q.db.Rebind(`
UPDATE action_queue
SET status = ?, completed_at = ?
WHERE id = ? AND status = ?;
`), string(status), now, id, string(StatusQueued))
	if err != nil {
		return fmt.Errorf("complete action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete action: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRequest(rows *sql.Rows) (Request, error) {
	var (
		r           Request
		params      string
		status      string
		requestedAt string
		expiresAt   string
		completedAt sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.Action, &params, &status, &r.RemoteAddr, &requestedAt, &expiresAt, &completedAt); err != nil {
		return Request{}, fmt.Errorf("scan action: %w", err)
	}
	r.Status = Status(status)
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return Request{}, fmt.Errorf("decode params of %s: %w", r.ID, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, requestedAt); err == nil {
		r.RequestedAt = t
	}
	if t, err := time.Parse(time.RFC3339, expiresAt); err == nil {
		r.ExpiresAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			r.CompletedAt = &t
		}
	}
	return r, nil
}
