package customer

import (
	"errors"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/hooks"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

// ErrNoCustomerEmail is returned when no email is left to search commerce data for.
var ErrNoCustomerEmail = errors.New("no customer email given")

// EmailSet is an ordered list of distinct emails. Emails are compared as exact
// strings, so addresses differing only in case are distinct members.
type EmailSet []string

// Contains reports whether email is a member of the set.
func (s EmailSet) Contains(email string) bool {
	for _, e := range s {
		if e == email {
			return true
		}
	}
	return false
}

// Aggregator builds the EmailSet of a request.
type Aggregator struct {
	hooks *hooks.Registry
}

// NewAggregator returns an Aggregator that runs the customer email filters of reg.
func NewAggregator(reg *hooks.Registry) *Aggregator {
	return &Aggregator{hooks: reg}
}

// Aggregate unions the inbound emails with every email known for identities,
// passes the result through the customer email filters and removes duplicates.
func (a *Aggregator) Aggregate(inbound []string, identities []commerce.Customer, req *payload.Request) (EmailSet, error) {
	all := make([]string, 0, len(inbound))
	all = append(all, inbound...)
	for _, c := range identities {
		all = append(all, c.Emails...)
	}

	filtered := a.hooks.CustomerEmails(dedupe(all), req)
	set := dedupe(filtered)
	if len(set) == 0 {
		return nil, ErrNoCustomerEmail
	}
	return set, nil
}

func dedupe(emails []string) EmailSet {
	seen := make(map[string]struct{}, len(emails))
	out := make(EmailSet, 0, len(emails))
	for _, e := range emails {
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
