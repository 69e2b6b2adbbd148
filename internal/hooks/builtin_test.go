package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

func TestGatewayLinkTemplate(t *testing.T) {
	fn := GatewayLinkTemplate("square", "https://squareup.com/dashboard/sales/transactions/{payment_id}")

	tests := []struct {
		name    string
		method  commerce.PaymentMethod
		gateway string
		want    string
	}{
		{"matching gateway", commerce.PaymentMethod{Label: "square"}, "square", "https://squareup.com/dashboard/sales/transactions/42"},
		{"other gateway", commerce.PaymentMethod{Label: "cash"}, "cash", ""},
		{"existing url kept", commerce.PaymentMethod{Label: "square", URL: "https://x.test/1"}, "square", "https://x.test/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fn(tt.method, tt.gateway, 42)
			assert.Equal(t, tt.want, got.URL)
			assert.Equal(t, tt.method.Label, got.Label)
		})
	}
}

func TestEmailAliases(t *testing.T) {
	fn := EmailAliases(map[string][]string{
		"Ada@X.com": {"ada@work.test", "a@x.com"},
		"b@x.com":   {"", "bee@x.com"},
	})

	got := fn([]string{"ada@x.com", "b@x.com", "z@x.com"}, nil)
	assert.Equal(t, []string{"ada@x.com", "b@x.com", "z@x.com", "ada@work.test", "a@x.com", "bee@x.com"}, got)

	assert.Equal(t, []string{"q@x.com"}, fn([]string{"q@x.com"}, nil))
}

func TestRegisteredBuiltinsRunThroughRegistry(t *testing.T) {
	r := NewRegistry()
	r.OnGatewayLink(GatewayLinkTemplate("square", "https://sq.test/{payment_id}"))
	r.OnGatewayLink(GatewayLinkTemplate("mollie", "https://mollie.test/{payment_id}"))

	got := r.GatewayLink(commerce.PaymentMethod{Label: "mollie"}, "mollie", 7)
	assert.Equal(t, "https://mollie.test/7", got.URL)
}
