// Package customer turns the emails a helpdesk knows for a person into customer
// identities of the commerce store and the full set of emails to search.
package customer

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Resolver maps emails to unique customer identities.
type Resolver struct {
	store  commerce.CustomerStore
	logger *slog.Logger
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store commerce.CustomerStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve looks up every email and returns the distinct customers found, in the
// order they were first seen. Emails without a customer are skipped, and so are
// lookups that fail; failures are logged and never abort the request.
func (r *Resolver) Resolve(ctx context.Context, emails []string) []commerce.Customer {
	seen := make(map[int64]struct{}, len(emails))
	out := make([]commerce.Customer, 0, len(emails))

	for _, email := range emails {
		c, err := r.store.CustomerByEmail(ctx, email)
		if err != nil {
			r.logger.Warn("customer lookup failed", "error", err)
			continue
		}
		if c == nil || c.ID == 0 {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, *c)
	}

	return out
}
