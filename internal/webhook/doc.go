// Package webhook serves the helpdesk sidebar over HTTP.
//
// # Endpoints
//
//   - POST sidebar path (default /helpdesk/sidebar): the helpdesk posts the
//     ticket payload with its signature in the configured header. The answer is
//     always 200 with {"html": "..."}; rejected requests carry a readable
//     message instead of the panel, because the helpdesk only renders html.
//   - GET action path (default /helpdesk/action): signed action links from the
//     panel. 202 with {"action_id": ...} once queued, 403 for a bad or expired
//     signature, 400 for an action this service does not run.
//   - GET /healthz and GET /metrics (Prometheus).
//
// # Security Model
//
//   - Signatures are HMAC-SHA256 over canonical JSON, compared in constant time.
//   - Body size limits are enforced before anything is parsed.
//   - A per client IP token bucket guards the sidebar and action endpoints.
//   - Request logging excludes bodies, signatures and query strings.
//
// # Example Usage
//
//	server := webhook.New(webhook.Config{
//		Listen:          "127.0.0.1:8080",
//		SignatureHeader: "X-HelpScout-Signature",
//		RateLimit:       webhook.RateLimit{RPS: 10, Burst: 20},
//	}, pipeline, actionService, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
