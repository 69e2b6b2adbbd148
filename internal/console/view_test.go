package console

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/commerce"
)

func TestRender(t *testing.T) {
	view := aggregate.View{
		Emails:             []string{"a@x.com", "c@x.com"},
		Customers:          []commerce.Customer{{ID: 1, Name: "Ada Lovelace", Emails: []string{"a@x.com", "c@x.com"}}},
		LicensingAvailable: true,
		Licenses: []commerce.License{{
			Key:             "KEY-A",
			Status:          "active",
			Color:           commerce.ColorGreen,
			ActivationCount: 1,
			ActivationLimit: 3,
			ExpirationLabel: "2025-05-03",
			Sites:           []commerce.Site{{URL: "https://example.org"}},
			Children:        []commerce.License{{Key: "KEY-B", Status: "inactive", ExpirationLabel: "-"}},
		}},
		Orders: []commerce.Order{{
			ID:              100,
			Date:            time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC),
			FormattedAmount: "USD 49.50",
			Status:          "publish",
			Color:           commerce.ColorGreen,
			PaymentMethod:   commerce.PaymentMethod{Label: "PayPal", URL: "https://www.paypal.com/us/vst/id=TX123"},
			Items:           []commerce.OrderItem{{Title: "Pro plugin", PriceOption: "Single site"}},
		}},
	}

	out := Render(view, NewDefaultTheme())
	for _, want := range []string{
		"a@x.com, c@x.com",
		"Ada Lovelace #1",
		"KEY-A",
		"1 / 3",
		"expires 2025-05-03",
		"site https://example.org",
		"└─ KEY-B",
		"0 / unlimited",
		"#100",
		"2024-05-03",
		"USD 49.50",
		"https://www.paypal.com/us/vst/id=TX123",
		"Pro plugin (Single site)",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Subscriptions", "recurring integration is absent")

	customers := strings.Index(out, "Customers")
	licenses := strings.Index(out, "Licenses")
	orders := strings.Index(out, "Orders")
	assert.True(t, customers < licenses && licenses < orders)
}

func TestRenderEmpty(t *testing.T) {
	view := aggregate.View{
		Emails:             []string{"a@x.com", "b@x.com"},
		LicensingAvailable: true,
		RecurringAvailable: true,
	}

	out := Render(view, NewDefaultTheme())
	assert.Contains(t, out, "No customer found for a@x.com or b@x.com.")
	assert.Contains(t, out, "No licenses found.")
	assert.Contains(t, out, "No payments found.")
	assert.Contains(t, out, "No subscriptions found.")
}

func TestThemeStatus(t *testing.T) {
	theme := NewDefaultTheme()
	tests := []struct {
		color commerce.Color
		want  lipgloss.TerminalColor
	}{
		{commerce.ColorGreen, theme.Green.GetForeground()},
		{commerce.ColorRed, theme.Red.GetForeground()},
		{commerce.ColorOrange, theme.Orange.GetForeground()},
		{commerce.ColorNone, theme.Plain.GetForeground()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, theme.Status(tt.color).GetForeground(), "color %q", tt.color)
	}
}
