package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/commerce/commercetest"
	"github.com/mattjoyce/deskpanel/internal/hooks"
	"github.com/mattjoyce/deskpanel/internal/payload"
	"github.com/mattjoyce/deskpanel/internal/signing"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSigner() *signing.Signer {
	return signing.New("aggregate-secret",
		signing.WithClock(fixedClock{now: testNow}),
		signing.WithActionURL("https://shop.example.com/helpdesk/action"),
	)
}

func newTestAggregator(store *commercetest.Store, reg *hooks.Registry) *Aggregator {
	return New(
		Stores{Orders: store, Licenses: store.Licensing(), Subscriptions: store.Recurring()},
		reg,
		testSigner(),
		testLogger(),
		Config{
			AdminURL: "https://shop.example.com/admin/",
			Now:      func() time.Time { return testNow },
		},
	)
}

func TestOrdersPayPalScenario(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{
		ID:       100,
		Status:   "publish",
		Gateway:  "paypal",
		Amount:   49.5,
		Currency: "USD",
		Email:    "a@x.com",
		Items:    []commerce.PaymentItem{{ProductID: 1, Title: "Pro plugin", PriceOption: "Single site"}},
	}, "Payment received", "PayPal Transaction ID: TX123")

	agg := newTestAggregator(store, nil)
	orders := agg.Orders(context.Background(), []string{"a@x.com"}, &payload.Request{})
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, commerce.PaymentMethod{Label: "PayPal", URL: "https://www.paypal.com/us/vst/id=TX123"}, o.PaymentMethod)
	assert.Equal(t, commerce.ColorGreen, o.Color)
	assert.True(t, o.Completed)
	assert.Equal(t, "USD 49.50", o.FormattedAmount)
	assert.Equal(t, "https://shop.example.com/admin/payments/100", o.AdminURL)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Pro plugin", o.Items[0].Title)
	assert.Equal(t, "Single site", o.Items[0].PriceOption)

	require.NotEmpty(t, o.ResendReceiptLink)
	assert.True(t, testSigner().VerifyURLString(o.ResendReceiptLink))
	u, err := url.Parse(o.ResendReceiptLink)
	require.NoError(t, err)
	assert.Equal(t, "resend_purchase_receipt", u.Query().Get("action"))
	assert.Equal(t, "100", u.Query().Get("payment_id"))
}

func TestPaymentMethod(t *testing.T) {
	tests := []struct {
		name    string
		gateway string
		notes   []string
		want    commerce.PaymentMethod
	}{
		{
			name:    "paypal express",
			gateway: "paypalexpress",
			notes:   []string{"PayPal Transaction ID: 9XY"},
			want:    commerce.PaymentMethod{Label: "PayPal", URL: "https://www.paypal.com/us/vst/id=9XY"},
		},
		{
			name:    "paypal without transaction note",
			gateway: "paypal",
			notes:   []string{"Status changed"},
			want:    commerce.PaymentMethod{Label: "PayPal"},
		},
		{
			name:    "paypal note not at line start",
			gateway: "paypal",
			notes:   []string{"Note: PayPal Transaction ID: 9XY"},
			want:    commerce.PaymentMethod{Label: "PayPal"},
		},
		{
			name:    "stripe",
			gateway: "stripe",
			notes:   []string{"Stripe Charge ID: ch_123"},
			want:    commerce.PaymentMethod{Label: "Stripe", URL: "https://dashboard.stripe.com/payments/ch_123"},
		},
		{
			name:    "manual purchases",
			gateway: "manual_purchases",
			notes:   []string{"PayPal Transaction ID: ignored"},
			want:    commerce.PaymentMethod{Label: "Manual"},
		},
		{
			name:    "manual",
			gateway: "manual",
			want:    commerce.PaymentMethod{Label: "Manual"},
		},
		{
			name:    "unknown gateway keeps its name",
			gateway: "check",
			want:    commerce.PaymentMethod{Label: "check"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := commercetest.New()
			store.AddPayment(commerce.Payment{ID: 1, Gateway: tt.gateway, Email: "a@x.com"}, tt.notes...)

			orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
			require.Len(t, orders, 1)
			assert.Equal(t, tt.want, orders[0].PaymentMethod)
		})
	}
}

func TestGatewayLinkHook(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{ID: 5, Gateway: "mollie", Email: "a@x.com"})

	reg := hooks.NewRegistry()
	reg.OnGatewayLink(func(m commerce.PaymentMethod, gateway string, id int64) commerce.PaymentMethod {
		if gateway == "mollie" {
			return commerce.PaymentMethod{Label: "Mollie", URL: "https://my.mollie.com/dashboard/payments/5"}
		}
		return m
	})

	orders := newTestAggregator(store, reg).Orders(context.Background(), []string{"a@x.com"}, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, "https://my.mollie.com/dashboard/payments/5", orders[0].PaymentMethod.URL)
}

func TestOrdersOnlyPublishGetsResendLink(t *testing.T) {
	store := commercetest.New()
	for i, status := range []string{"publish", "pending", "refunded", "failed"} {
		store.AddPayment(commerce.Payment{ID: int64(i + 1), Status: status, Email: "a@x.com"})
	}

	orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
	require.Len(t, orders, 4)

	// newest first
	assert.Equal(t, int64(4), orders[0].ID)
	assert.Equal(t, commerce.ColorOrange, orders[0].Color)
	assert.Equal(t, commerce.ColorRed, orders[1].Color)
	assert.Equal(t, commerce.ColorNone, orders[2].Color)
	assert.Equal(t, commerce.ColorGreen, orders[3].Color)

	for _, o := range orders {
		if o.Status == "publish" {
			assert.NotEmpty(t, o.ResendReceiptLink)
			continue
		}
		assert.Empty(t, o.ResendReceiptLink, "status %s", o.Status)
		assert.False(t, o.Completed)
	}
}

func TestOrdersSkipsFailedLookups(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{ID: 1, Status: "publish", Email: "a@x.com"})
	store.AddPayment(commerce.Payment{ID: 2, Status: "publish", Email: "a@x.com"})
	store.PaymentErrs[2] = errors.New("connection reset")

	orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestOrdersEmailMatchIsExact(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{ID: 1, Email: "A@x.com"})

	orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
	assert.Empty(t, orders)
}

func TestOrdersFromPaymentHook(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{ID: 1, Email: "a@x.com"})
	store.AddPayment(commerce.Payment{ID: 2, Email: "other@x.com"})

	reg := hooks.NewRegistry()
	reg.OnCustomerPayments(func(ids []int64, _ []string, _ *payload.Request) []int64 {
		return append(ids, 2)
	})

	orders := newTestAggregator(store, reg).Orders(context.Background(), []string{"a@x.com"}, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(2), orders[0].ID)
}

func TestOrdersItemLicenses(t *testing.T) {
	store := commercetest.New()
	store.AddPayment(commerce.Payment{
		ID:     200,
		Status: "publish",
		Email:  "a@x.com",
		Items: []commerce.PaymentItem{
			{ProductID: 5, Title: "Bundle"},
			{ProductID: 6, Title: "Add-on"},
		},
	})
	store.Licenses = []commerce.License{
		{ID: 10, ProductID: 5, PaymentID: 200, Status: "active"},
		{ID: 11, ProductID: 5, PaymentID: 200, Status: "active"},
		{ID: 12, ProductID: 9, PaymentID: 200, ParentID: 10, Status: "inactive"},
		{ID: 13, ProductID: 7, PaymentID: 201},
	}
	store.Sites[10] = []string{"example.org"}

	t.Run("version above 3.6", func(t *testing.T) {
		store.LicensingVersion = "3.6.1"
		orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
		require.Len(t, orders, 1)
		items := orders[0].Items
		require.Len(t, items, 2)

		require.NotNil(t, items[0].License)
		assert.Equal(t, int64(10), items[0].License.ID)
		assert.Equal(t, commerce.ColorGreen, items[0].License.Color)
		require.Len(t, items[0].License.Sites, 1)
		assert.Equal(t, "https://example.org", items[0].License.Sites[0].URL)

		var childIDs []int64
		for _, c := range items[0].ChildLicenses {
			childIDs = append(childIDs, c.ID)
		}
		assert.Equal(t, []int64{11, 12}, childIDs)

		assert.Nil(t, items[1].License)
		assert.Empty(t, items[1].ChildLicenses)
	})

	t.Run("version 3.6 or older", func(t *testing.T) {
		for _, v := range []string{"3.6.0", "3.5", "not-a-version"} {
			store.LicensingVersion = v
			orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
			require.Len(t, orders, 1)
			assert.Nil(t, orders[0].Items[0].License, "version %s", v)
		}
	})

	t.Run("licensing absent", func(t *testing.T) {
		store.LicensingVersion = "3.8.0"
		store.LicensingEnabled = false
		defer func() { store.LicensingEnabled = true }()
		orders := newTestAggregator(store, nil).Orders(context.Background(), []string{"a@x.com"}, nil)
		require.Len(t, orders, 1)
		assert.Nil(t, orders[0].Items[0].License)
	})
}

func TestItemLicenses(t *testing.T) {
	licenses := []commerce.License{
		{ID: 3, ProductID: 1, ParentID: 1},
		{ID: 1, ProductID: 1},
		{ID: 2, ProductID: 2},
	}

	parent, children := ItemLicenses(licenses, 1)
	require.NotNil(t, parent)
	assert.Equal(t, int64(3), parent.ID, "first license for the product wins")
	require.Len(t, children, 1)
	assert.Equal(t, int64(1), children[0].ID)

	parent, children = ItemLicenses(licenses, 42)
	assert.Nil(t, parent)
	assert.Nil(t, children)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "USD 49.50", FormatAmount(49.5, "USD"))
	assert.Equal(t, "EUR 10.00", FormatAmount(10, "eur"))
	assert.Equal(t, "JPY 500", FormatAmount(500, "JPY"))
	assert.Equal(t, "QQQ 3.00", FormatAmount(3, "QQQ"))
	assert.Equal(t, "3.00", FormatAmount(3, ""))
}
