// Package aggregate collects the commerce history of resolved customers into the
// view the sidebar renders.
//
// Every lookup is best effort. A failing lookup drops the affected order,
// license or subscription and is logged; it never fails the request. Optional
// integrations are probed with Available before they are called, and an absent
// integration yields an empty section.
package aggregate

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/hooks"
	"github.com/mattjoyce/deskpanel/internal/payload"
	"github.com/mattjoyce/deskpanel/internal/signing"
)

// DefaultLinkTTL is how long signed action links stay valid.
const DefaultLinkTTL = 24 * time.Hour

// Stores are the commerce store interfaces the aggregator reads from. Licenses
// and Subscriptions may be nil when the integration does not exist at all.
type Stores struct {
	Orders        commerce.OrderStore
	Licenses      commerce.LicenseStore
	Subscriptions commerce.SubscriptionStore
}

// Config holds aggregator settings.
type Config struct {
	// AdminURL is the base URL of the commerce admin. Admin links are left
	// empty when it is not set.
	AdminURL string

	// LinkTTL is the lifetime of signed action links.
	LinkTTL time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator builds a View for a request.
type Aggregator struct {
	stores Stores
	hooks  *hooks.Registry
	signer *signing.Signer
	logger *slog.Logger
	cfg    Config
}

// New returns an Aggregator.
func New(stores Stores, reg *hooks.Registry, signer *signing.Signer, logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Aggregator{
		stores: stores,
		hooks:  reg,
		signer: signer,
		logger: logger,
		cfg:    cfg,
	}
}

// View is everything the sidebar shows for one request.
type View struct {
	Request       *payload.Request
	Customers     []commerce.Customer
	Emails        []string
	Orders        []commerce.Order
	Licenses      []commerce.License
	Subscriptions []commerce.Subscription

	LicensingAvailable bool
	RecurringAvailable bool
}

// Build aggregates orders, licenses and subscriptions for customers and emails.
func (a *Aggregator) Build(ctx context.Context, req *payload.Request, customers []commerce.Customer, emails []string) View {
	view := View{
		Request:            req,
		Customers:          make([]commerce.Customer, 0, len(customers)),
		Emails:             emails,
		LicensingAvailable: a.licensingAvailable(),
		RecurringAvailable: a.recurringAvailable(),
	}
	for _, c := range customers {
		c.AdminURL = a.adminLink("customers", c.ID)
		view.Customers = append(view.Customers, c)
	}

	view.Orders = a.Orders(ctx, emails, req)
	view.Licenses = a.Licenses(ctx, customers)
	view.Subscriptions = a.Subscriptions(ctx, customers)
	return view
}

func (a *Aggregator) licensingAvailable() bool {
	return a.stores.Licenses != nil && a.stores.Licenses.Available()
}

func (a *Aggregator) recurringAvailable() bool {
	return a.stores.Subscriptions != nil && a.stores.Subscriptions.Available()
}

func (a *Aggregator) adminLink(kind string, id int64) string {
	if a.cfg.AdminURL == "" {
		return ""
	}
	return strings.TrimRight(a.cfg.AdminURL, "/") + "/" + kind + "/" + strconv.FormatInt(id, 10)
}

// signedLink returns a signed action URL, or "" when signing fails.
func (a *Aggregator) signedLink(action string, params map[string]string) string {
	if a.signer == nil {
		return ""
	}
	link, err := a.signer.SignedURL(action, params, a.cfg.LinkTTL)
	if err != nil {
		a.logger.Warn("sign action link failed", "action", action, "error", err)
		return ""
	}
	return link
}
