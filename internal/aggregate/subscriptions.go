package aggregate

import (
	"context"
	"sort"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Subscriptions returns the subscriptions of customers, newest first.
func (a *Aggregator) Subscriptions(ctx context.Context, customers []commerce.Customer) []commerce.Subscription {
	if !a.recurringAvailable() {
		return nil
	}

	var out []commerce.Subscription
	for _, c := range customers {
		subs, err := a.stores.Subscriptions.SubscriptionsByCustomer(ctx, c.ID)
		if err != nil {
			a.logger.Warn("subscription lookup failed", "customer_id", c.ID, "error", err)
			continue
		}
		for _, s := range subs {
			s.Color = commerce.SubscriptionColor(s.Status)
			s.AdminURL = a.adminLink("subscriptions", s.ID)
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}
