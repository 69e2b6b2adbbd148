package hooks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

func TestCustomerEmailsRunsInOrder(t *testing.T) {
	r := NewRegistry()
	r.OnCustomerEmails(func(emails []string, _ *payload.Request) []string {
		return append(emails, "first@x.com")
	})
	r.OnCustomerEmails(func(emails []string, _ *payload.Request) []string {
		return append(emails, fmt.Sprintf("seen-%d@x.com", len(emails)))
	})

	got := r.CustomerEmails([]string{"a@x.com"}, &payload.Request{})
	assert.Equal(t, []string{"a@x.com", "first@x.com", "seen-2@x.com"}, got)
	assert.Equal(t, 2, r.Len())
}

func TestCustomerEmailsReceivesRequest(t *testing.T) {
	r := NewRegistry()
	var subject string
	r.OnCustomerEmails(func(emails []string, req *payload.Request) []string {
		subject = req.Ticket.Subject
		return emails
	})

	r.CustomerEmails(nil, &payload.Request{Ticket: payload.Ticket{Subject: "hello"}})
	assert.Equal(t, "hello", subject)
}

func TestCustomerPaymentsStartsEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []int64{}, r.CustomerPayments([]string{"a@x.com"}, nil))

	r.OnCustomerPayments(func(ids []int64, emails []string, _ *payload.Request) []int64 {
		assert.Empty(t, ids)
		assert.Equal(t, []string{"a@x.com"}, emails)
		return append(ids, 10, 9)
	})
	r.OnCustomerPayments(func(ids []int64, _ []string, _ *payload.Request) []int64 {
		return append(ids, 8)
	})

	assert.Equal(t, []int64{10, 9, 8}, r.CustomerPayments([]string{"a@x.com"}, nil))
}

func TestGatewayLink(t *testing.T) {
	r := NewRegistry()
	r.OnGatewayLink(func(m commerce.PaymentMethod, gateway string, id int64) commerce.PaymentMethod {
		if gateway != "mollie" {
			return m
		}
		m.URL = fmt.Sprintf("https://my.mollie.com/payments/%d", id)
		return m
	})

	got := r.GatewayLink(commerce.PaymentMethod{Label: "Mollie"}, "mollie", 12)
	assert.Equal(t, commerce.PaymentMethod{Label: "Mollie", URL: "https://my.mollie.com/payments/12"}, got)

	other := r.GatewayLink(commerce.PaymentMethod{Label: "Check"}, "check", 12)
	assert.Equal(t, commerce.PaymentMethod{Label: "Check"}, other)
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	assert.Equal(t, []string{"a"}, r.CustomerEmails([]string{"a"}, nil))
	assert.Equal(t, []int64{}, r.CustomerPayments(nil, nil))
	assert.Equal(t, commerce.PaymentMethod{Label: "x"}, r.GatewayLink(commerce.PaymentMethod{Label: "x"}, "x", 1))
	assert.Equal(t, 0, r.Len())
}
