// Package commercetest provides an in-memory commerce store for tests.
package commercetest

import (
	"context"
	"sort"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Store is an in-memory implementation of the commerce store interfaces.
// Fields may be set directly; nil maps behave as empty.
type Store struct {
	CustomersByEmail map[string]*commerce.Customer
	Payments         map[int64]*commerce.Payment
	Notes            map[int64][]string
	Licenses         []commerce.License
	Sites            map[int64][]string
	Upgrades         map[int64][]commerce.UpgradeOffer
	Subscriptions    []commerce.Subscription

	LicensingEnabled bool
	LicensingVersion string
	RecurringEnabled bool

	// Errors returned by the lookups they are keyed by.
	CustomerErrs map[string]error
	PaymentErrs  map[int64]error
}

// New returns an empty Store with both integrations available.
func New() *Store {
	return &Store{
		CustomersByEmail: map[string]*commerce.Customer{},
		Payments:         map[int64]*commerce.Payment{},
		Notes:            map[int64][]string{},
		Sites:            map[int64][]string{},
		Upgrades:         map[int64][]commerce.UpgradeOffer{},
		CustomerErrs:     map[string]error{},
		PaymentErrs:      map[int64]error{},
		LicensingEnabled: true,
		LicensingVersion: "3.8.0",
		RecurringEnabled: true,
	}
}

// AddCustomer registers c under each of its emails.
func (s *Store) AddCustomer(c commerce.Customer) {
	if s.CustomersByEmail == nil {
		s.CustomersByEmail = map[string]*commerce.Customer{}
	}
	cp := c
	for _, e := range c.Emails {
		s.CustomersByEmail[e] = &cp
	}
}

// AddPayment stores p with its gateway notes.
func (s *Store) AddPayment(p commerce.Payment, notes ...string) {
	if s.Payments == nil {
		s.Payments = map[int64]*commerce.Payment{}
	}
	if s.Notes == nil {
		s.Notes = map[int64][]string{}
	}
	cp := p
	s.Payments[p.ID] = &cp
	s.Notes[p.ID] = notes
}

func (s *Store) CustomerByEmail(_ context.Context, email string) (*commerce.Customer, error) {
	if err := s.CustomerErrs[email]; err != nil {
		return nil, err
	}
	c, ok := s.CustomersByEmail[email]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) PaymentIDsByEmails(_ context.Context, emails []string) ([]int64, error) {
	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[e] = true
	}
	var ids []int64
	for id, p := range s.Payments {
		if want[p.Email] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

func (s *Store) Payment(_ context.Context, id int64) (*commerce.Payment, error) {
	if err := s.PaymentErrs[id]; err != nil {
		return nil, err
	}
	p, ok := s.Payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) PaymentNotes(_ context.Context, id int64) ([]string, error) {
	return s.Notes[id], nil
}

// Licensing returns the licensing integration view of the store.
func (s *Store) Licensing() *Licensing { return &Licensing{s: s} }

// Recurring returns the recurring billing integration view of the store.
func (s *Store) Recurring() *Recurring { return &Recurring{s: s} }

// Licensing implements commerce.LicenseStore over a Store.
type Licensing struct{ s *Store }

func (l *Licensing) Name() string { return "licensing" }
func (l *Licensing) Available() bool { return l.s.LicensingEnabled }
func (l *Licensing) Version() string { return l.s.LicensingVersion }

func (l *Licensing) LicensesByCustomer(_ context.Context, customerID int64) ([]commerce.License, error) {
	return l.filter(func(lic commerce.License) bool { return lic.CustomerID == customerID }), nil
}

func (l *Licensing) LicensesByPayment(_ context.Context, paymentID int64) ([]commerce.License, error) {
	return l.filter(func(lic commerce.License) bool { return lic.PaymentID == paymentID }), nil
}

func (l *Licensing) LicenseByKey(_ context.Context, key string) (*commerce.License, error) {
	for _, lic := range l.s.Licenses {
		if lic.Key == key {
			cp := lic
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *Licensing) Sites(_ context.Context, licenseID int64) ([]string, error) {
	return l.s.Sites[licenseID], nil
}

func (l *Licensing) UpgradeOffers(_ context.Context, licenseID int64) ([]commerce.UpgradeOffer, error) {
	return l.s.Upgrades[licenseID], nil
}

func (l *Licensing) filter(keep func(commerce.License) bool) []commerce.License {
	var out []commerce.License
	for _, lic := range l.s.Licenses {
		if keep(lic) {
			out = append(out, lic)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Recurring implements commerce.SubscriptionStore over a Store.
type Recurring struct{ s *Store }

func (r *Recurring) Name() string { return "recurring" }
func (r *Recurring) Available() bool { return r.s.RecurringEnabled }

func (r *Recurring) SubscriptionsByCustomer(_ context.Context, customerID int64) ([]commerce.Subscription, error) {
	var out []commerce.Subscription
	for _, sub := range r.s.Subscriptions {
		if sub.CustomerID == customerID {
			out = append(out, sub)
		}
	}
	return out, nil
}

var (
	_ commerce.CustomerStore     = (*Store)(nil)
	_ commerce.OrderStore        = (*Store)(nil)
	_ commerce.LicenseStore      = (*Licensing)(nil)
	_ commerce.SubscriptionStore = (*Recurring)(nil)
)
