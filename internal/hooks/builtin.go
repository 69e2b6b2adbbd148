package hooks

import (
	"strconv"
	"strings"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

// PaymentIDPlaceholder is replaced by the payment id in gateway link templates.
const PaymentIDPlaceholder = "{payment_id}"

// GatewayLinkTemplate links payments made through gateway to tmpl with the
// payment id filled in. Methods that already carry a URL are left alone.
func GatewayLinkTemplate(gateway, tmpl string) GatewayLinkFunc {
	return func(method commerce.PaymentMethod, got string, paymentID int64) commerce.PaymentMethod {
		if got != gateway || method.URL != "" {
			return method
		}
		method.URL = strings.ReplaceAll(tmpl, PaymentIDPlaceholder, strconv.FormatInt(paymentID, 10))
		return method
	}
}

// EmailAliases adds the known aliases of each email to the search set.
// Keys are matched case-insensitively.
func EmailAliases(aliases map[string][]string) CustomerEmailsFunc {
	byEmail := make(map[string][]string, len(aliases))
	for email, list := range aliases {
		key := strings.ToLower(strings.TrimSpace(email))
		byEmail[key] = append(byEmail[key], list...)
	}

	return func(emails []string, _ *payload.Request) []string {
		seen := make(map[string]bool, len(emails))
		for _, e := range emails {
			seen[strings.ToLower(e)] = true
		}
		out := append([]string(nil), emails...)
		for _, e := range emails {
			for _, alias := range byEmail[strings.ToLower(e)] {
				if alias == "" || seen[strings.ToLower(alias)] {
					continue
				}
				seen[strings.ToLower(alias)] = true
				out = append(out, alias)
			}
		}
		return out
	}
}
