package actions

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/mattjoyce/deskpanel/internal/signing"
)

// Enqueuer stores verified actions.
type Enqueuer interface {
	Enqueue(ctx context.Context, act signing.Action, remoteAddr string) (string, error)
}

// Service verifies signed action URLs and queues the actions they carry.
type Service struct {
	signer *signing.Signer
	queue  Enqueuer
	logger *slog.Logger
}

// NewService returns a Service that verifies links with signer and stores
// them in queue. A nil logger uses slog.Default.
func NewService(signer *signing.Signer, queue Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{signer: signer, queue: queue, logger: logger}
}

// Submit verifies the action in values and queues it. It returns ErrForbidden
// for a missing, tampered or expired signature, and ErrUnknownAction or
// ErrMissingParam for a validly signed action this service cannot run.
func (s *Service) Submit(ctx context.Context, values url.Values, remoteAddr string) (string, error) {
	act, ok := s.signer.VerifyAction(values)
	if !ok {
		return "", ErrForbidden
	}
	if err := Validate(act.Name, act.Params); err != nil {
		return "", err
	}

	id, err := s.queue.Enqueue(ctx, act, remoteAddr)
	if err != nil {
		return "", fmt.Errorf("queue %s: %w", act.Name, err)
	}
	s.logger.Info("action queued", "action_id", id, "action", act.Name)
	return id, nil
}
