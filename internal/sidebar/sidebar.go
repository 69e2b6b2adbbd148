// Package sidebar runs the request pipeline behind the helpdesk sidebar: parse
// the payload, verify its signature, resolve the customer, aggregate their
// commerce history and render it.
//
// Every stage short-circuits the request. Failures are reported as one of the
// sentinel errors below; the transport turns them into a message for the
// helpdesk with Message.
package sidebar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/customer"
	"github.com/mattjoyce/deskpanel/internal/hooks"
	"github.com/mattjoyce/deskpanel/internal/payload"
	"github.com/mattjoyce/deskpanel/internal/render"
	"github.com/mattjoyce/deskpanel/internal/signing"
)

var (
	// ErrSignatureInvalid is returned when the request signature does not match.
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrNoCustomerEmail is returned when no customer email is left to search.
	ErrNoCustomerEmail = customer.ErrNoCustomerEmail

	// ErrRender is returned when the view could not be rendered.
	ErrRender = errors.New("render failed")
)

// Messages shown to the helpdesk user.
const (
	MessageSignatureInvalid = "Invalid signature"
	MessageNoCustomerEmail  = "No customer email given."
	MessageRender           = "Something went wrong while building the customer overview."
)

// Options are the process-wide settings of the pipeline.
type Options struct {
	// SharedSecret signs and verifies requests and action links.
	SharedSecret string

	// FixtureMode replaces every request with a fixed payload and skips the
	// signature check. For local development only.
	FixtureMode bool

	// FixtureEmail is the customer email of the fixed payload.
	FixtureEmail string
}

// Deps are the collaborators of the pipeline. Renderer defaults to the HTML
// renderer. SignerOptions configure the signer built from Options.SharedSecret.
type Deps struct {
	Customers     commerce.CustomerStore
	Stores        aggregate.Stores
	Hooks         *hooks.Registry
	Renderer      render.Renderer
	Aggregate     aggregate.Config
	SignerOptions []signing.Option
}

// Pipeline handles sidebar requests. It is safe for concurrent use once built.
type Pipeline struct {
	opts     Options
	signer   *signing.Signer
	resolver *customer.Resolver
	emails   *customer.Aggregator
	byKey    *customer.LicenseEmailLookup
	agg      *aggregate.Aggregator
	composer *render.Composer
	logger   *slog.Logger
}

// New builds a Pipeline.
func New(opts Options, deps Deps, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FixtureEmail == "" {
		opts.FixtureEmail = payload.DefaultFixtureEmail
	}
	signer := signing.New(opts.SharedSecret, deps.SignerOptions...)

	return &Pipeline{
		opts:     opts,
		signer:   signer,
		resolver: customer.NewResolver(deps.Customers, logger),
		emails:   customer.NewAggregator(deps.Hooks),
		byKey:    customer.NewLicenseEmailLookup(deps.Stores.Licenses, deps.Stores.Orders, logger),
		agg:      aggregate.New(deps.Stores, deps.Hooks, signer, logger, deps.Aggregate),
		composer: render.NewComposer(deps.Renderer),
		logger:   logger,
	}
}

// Signer returns the signer shared by request verification and action links.
func (p *Pipeline) Signer() *signing.Signer {
	return p.signer
}

// FixtureMode reports whether the pipeline ignores request bodies.
func (p *Pipeline) FixtureMode() bool {
	return p.opts.FixtureMode
}

// Handle runs the pipeline over a raw request body and its signature header and
// returns the rendered sidebar HTML.
func (p *Pipeline) Handle(ctx context.Context, body []byte, signature string) (string, error) {
	req := p.request(body)

	if !req.HasEmail() {
		return "", ErrNoCustomerEmail
	}
	if !p.opts.FixtureMode && !p.signer.Verify(body, signature) {
		return "", ErrSignatureInvalid
	}

	view, err := p.build(ctx, req)
	if err != nil {
		return "", err
	}
	html, err := p.composer.Compose(view)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	p.logger.Debug("sidebar built",
		"ticket_id", int64(req.Ticket.ID),
		"customers", len(view.Customers),
		"emails", len(view.Emails),
		"orders", len(view.Orders),
		"licenses", len(view.Licenses),
		"subscriptions", len(view.Subscriptions),
	)
	return html, nil
}

// Lookup builds the view for emails as if a verified request had named them.
// It backs the lookup command.
func (p *Pipeline) Lookup(ctx context.Context, emails ...string) (aggregate.View, error) {
	req := &payload.Request{Customer: payload.Customer{Emails: emails}}
	if !req.HasEmail() {
		return aggregate.View{}, ErrNoCustomerEmail
	}
	return p.build(ctx, req)
}

func (p *Pipeline) build(ctx context.Context, req *payload.Request) (aggregate.View, error) {
	inbound := p.byKey.Prepend(ctx, req, req.Emails())
	identities := p.resolver.Resolve(ctx, inbound)
	emails, err := p.emails.Aggregate(inbound, identities, req)
	if err != nil {
		return aggregate.View{}, err
	}
	return p.agg.Build(ctx, req, identities, emails), nil
}

// request returns the payload to work on. A body that cannot be parsed is
// treated as an empty payload.
func (p *Pipeline) request(body []byte) *payload.Request {
	if p.opts.FixtureMode {
		return payload.Fixture(p.opts.FixtureEmail)
	}
	req, err := payload.Parse(body)
	if err != nil {
		p.logger.Debug("unparseable sidebar payload", "error", err)
		return &payload.Request{}
	}
	return req
}

// Message returns the text shown to the helpdesk user for a pipeline error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrSignatureInvalid):
		return MessageSignatureInvalid
	case errors.Is(err, ErrNoCustomerEmail):
		return MessageNoCustomerEmail
	default:
		return MessageRender
	}
}

// Outcome classifies the result of Handle for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSignatureInvalid):
		return "invalid_signature"
	case errors.Is(err, ErrNoCustomerEmail):
		return "no_customer_email"
	default:
		return "render_error"
	}
}
