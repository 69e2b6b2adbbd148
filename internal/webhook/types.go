package webhook

import (
	"context"
	"net/url"
)

// SidebarHandler runs the sidebar pipeline over a raw request.
type SidebarHandler interface {
	Handle(ctx context.Context, body []byte, signature string) (string, error)
}

// fixtureReporter is implemented by sidebar handlers that can ignore the
// request body entirely.
type fixtureReporter interface {
	FixtureMode() bool
}

// ActionSubmitter verifies and queues a signed action request.
type ActionSubmitter interface {
	Submit(ctx context.Context, values url.Values, remoteAddr string) (string, error)
}

// Config holds webhook server configuration.
type Config struct {
	Listen string

	// SidebarPath receives the helpdesk POST.
	SidebarPath string

	// ActionPath receives signed action links (GET).
	ActionPath string

	// SignatureHeader is the HTTP header carrying the request signature.
	SignatureHeader string

	// MaxBodySize is the maximum accepted sidebar body in bytes.
	MaxBodySize int64

	RateLimit RateLimit
}

// RateLimit is a per client IP token bucket. RPS 0 disables limiting.
type RateLimit struct {
	RPS   float64
	Burst int
}

// ActionResponse is the JSON response for a queued action.
type ActionResponse struct {
	ActionID string `json:"action_id"`
}

// ErrorResponse is the JSON response for action and ops errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// Default values
const (
	DefaultMaxBodySize     = 1048576 // 1 MB
	DefaultSidebarPath     = "/helpdesk/sidebar"
	DefaultActionPath      = "/helpdesk/action"
	DefaultSignatureHeader = "X-HelpScout-Signature"
)

// Sidebar texts produced by the server itself rather than the pipeline.
const (
	MessageTooLarge    = "Request body too large."
	MessageRateLimited = "Too many requests, try again shortly."
)
