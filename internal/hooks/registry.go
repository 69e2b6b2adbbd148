// Package hooks holds the ordered filter chains other code can register to
// adjust what the sidebar shows.
//
// Filters run in registration order and each one receives the previous one's
// result. Register every filter before the server starts; a Registry is not
// safe for registration concurrently with Apply calls.
package hooks

import (
	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

// CustomerEmailsFunc adjusts the set of emails that is searched for commerce data.
type CustomerEmailsFunc func(emails []string, req *payload.Request) []string

// CustomerPaymentsFunc supplies payment ids for a request. Returning an empty
// slice leaves the default lookup by email in charge.
type CustomerPaymentsFunc func(ids []int64, emails []string, req *payload.Request) []int64

// GatewayLinkFunc turns the label of an unrecognised gateway into a link.
type GatewayLinkFunc func(method commerce.PaymentMethod, gateway string, paymentID int64) commerce.PaymentMethod

// Registry is the set of registered filters.
type Registry struct {
	customerEmails   []CustomerEmailsFunc
	customerPayments []CustomerPaymentsFunc
	gatewayLinks     []GatewayLinkFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnCustomerEmails appends fn to the chain that decides which emails are
// searched.
func (r *Registry) OnCustomerEmails(fn CustomerEmailsFunc) {
	r.customerEmails = append(r.customerEmails, fn)
}

// OnCustomerPayments appends fn to the payment id chain.
func (r *Registry) OnCustomerPayments(fn CustomerPaymentsFunc) {
	r.customerPayments = append(r.customerPayments, fn)
}

// OnGatewayLink appends fn to the chain consulted for gateways without a
// built-in link.
func (r *Registry) OnGatewayLink(fn GatewayLinkFunc) {
	r.gatewayLinks = append(r.gatewayLinks, fn)
}

// CustomerEmails runs the customer email chain. A nil Registry returns emails
// unchanged.
func (r *Registry) CustomerEmails(emails []string, req *payload.Request) []string {
	if r == nil {
		return emails
	}
	for _, fn := range r.customerEmails {
		emails = fn(emails, req)
	}
	return emails
}

// CustomerPayments runs the payment id chain starting from an empty list.
func (r *Registry) CustomerPayments(emails []string, req *payload.Request) []int64 {
	ids := []int64{}
	if r == nil {
		return ids
	}
	for _, fn := range r.customerPayments {
		ids = fn(ids, emails, req)
	}
	return ids
}

// GatewayLink runs the gateway link chain for one payment.
func (r *Registry) GatewayLink(method commerce.PaymentMethod, gateway string, paymentID int64) commerce.PaymentMethod {
	if r == nil {
		return method
	}
	for _, fn := range r.gatewayLinks {
		method = fn(method, gateway, paymentID)
	}
	return method
}

// Len reports the number of registered filters across all chains.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.customerEmails) + len(r.customerPayments) + len(r.gatewayLinks)
}
