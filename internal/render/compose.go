// Package render turns an aggregated customer view into the HTML fragment the
// helpdesk shows in its sidebar, and writes the JSON envelope around it.
package render

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Section names a part of the sidebar.
type Section string

const (
	SectionCustomers     Section = "customers"
	SectionLicenses      Section = "licenses"
	SectionOrders        Section = "orders"
	SectionSubscriptions Section = "subscriptions"
)

// Renderer turns the data of one section into a markup fragment.
type Renderer interface {
	Render(section Section, data any) (string, error)
}

// CustomersData is the data of the customers section.
type CustomersData struct {
	Customers []commerce.Customer
	Emails    []string
}

// LicensesData is the data of the licenses section.
type LicensesData struct {
	Licenses []commerce.License
}

// OrdersData is the data of the orders section. Emails are listed when no
// order was found.
type OrdersData struct {
	Orders []commerce.Order
	Emails []string
}

// SubscriptionsData is the data of the subscriptions section.
type SubscriptionsData struct {
	Subscriptions []commerce.Subscription
}

// Composer renders the sections of a view in a fixed order.
type Composer struct {
	renderer Renderer
}

// NewComposer returns a Composer rendering through r. A nil r selects the
// HTML renderer.
func NewComposer(r Renderer) *Composer {
	if r == nil {
		r = NewHTMLRenderer()
	}
	return &Composer{renderer: r}
}

type part struct {
	section Section
	data    any
}

// Sections returns the sections of view in display order. The licenses and
// subscriptions sections are left out when their integration is absent.
func Sections(view aggregate.View) []Section {
	parts := parts(view)
	out := make([]Section, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.section)
	}
	return out
}

func parts(view aggregate.View) []part {
	out := []part{{SectionCustomers, CustomersData{Customers: view.Customers, Emails: view.Emails}}}
	if view.LicensingAvailable {
		out = append(out, part{SectionLicenses, LicensesData{Licenses: view.Licenses}})
	}
	out = append(out, part{SectionOrders, OrdersData{Orders: view.Orders, Emails: view.Emails}})
	if view.RecurringAvailable {
		out = append(out, part{SectionSubscriptions, SubscriptionsData{Subscriptions: view.Subscriptions}})
	}
	return out
}

// Compose renders every section of view and concatenates the fragments. The
// first render error aborts composition.
func (c *Composer) Compose(view aggregate.View) (string, error) {
	var b strings.Builder
	for _, p := range parts(view) {
		fragment, err := c.renderer.Render(p.section, p.data)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", p.section, err)
		}
		b.WriteString(fragment)
	}
	return b.String(), nil
}
