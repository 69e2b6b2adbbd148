package actions

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a queued request.
type Status string

const (
	StatusQueued Status = "queued"
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Request is a verified action waiting for, or handled by, a downstream worker.
type Request struct {
	ID          string            `json:"id"`
	Action      string            `json:"action"`
	Params      map[string]string `json:"params"`
	Status      Status            `json:"status"`
	RemoteAddr  string            `json:"remote_addr"`
	RequestedAt time.Time         `json:"requested_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

var (
	ErrNotFound      = errors.New("action request not found")
	ErrForbidden     = errors.New("forbidden")
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingParam  = errors.New("missing action parameter")
)
