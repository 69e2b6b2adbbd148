package sidebar

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/commerce/commercetest"
	"github.com/mattjoyce/deskpanel/internal/render"
	"github.com/mattjoyce/deskpanel/internal/signing"
)

const testSecret = "sidebar-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testStore() *commercetest.Store {
	store := commercetest.New()
	store.AddCustomer(commerce.Customer{ID: 1, Name: "Ada Lovelace", Emails: []string{"a@x.com", "c@x.com"}})
	store.AddPayment(commerce.Payment{
		ID:       100,
		Status:   "publish",
		Gateway:  "paypal",
		Amount:   49.5,
		Currency: "USD",
		Email:    "c@x.com",
		Items:    []commerce.PaymentItem{{ProductID: 5, Title: "Pro plugin"}},
	}, "PayPal Transaction ID: TX123")
	store.Licenses = []commerce.License{
		{ID: 1, Key: "KEY-A", CustomerID: 1, Status: "active"},
		{ID: 2, Key: "KEY-B", CustomerID: 1, Status: "active", ParentID: 1},
	}
	store.Subscriptions = []commerce.Subscription{{ID: 3, CustomerID: 1, ProductTitle: "Pro yearly", Status: "active"}}
	return store
}

func newTestPipeline(opts Options, store *commercetest.Store, r render.Renderer) *Pipeline {
	if opts.SharedSecret == "" {
		opts.SharedSecret = testSecret
	}
	return New(opts, Deps{
		Customers: store,
		Stores:    aggregate.Stores{Orders: store, Licenses: store.Licensing(), Subscriptions: store.Recurring()},
		Renderer:  r,
		Aggregate: aggregate.Config{Now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }},
		SignerOptions: []signing.Option{
			signing.WithActionURL("https://shop.example.com/helpdesk/action"),
		},
	}, testLogger())
}

func sign(t *testing.T, body []byte) string {
	t.Helper()
	sig, err := signing.New(testSecret).Sign(body)
	require.NoError(t, err)
	return sig
}

func TestHandle(t *testing.T) {
	body := []byte(`{"ticket":{"id":9,"number":1,"subject":"Help"},"customer":{"emails":["a@x.com","b@x.com"]}}`)

	p := newTestPipeline(Options{}, testStore(), nil)
	html, err := p.Handle(context.Background(), body, sign(t, body))
	require.NoError(t, err)

	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "KEY-A")
	assert.Contains(t, html, "KEY-B")
	assert.Contains(t, html, "https://www.paypal.com/us/vst/id=TX123", "order found through an identity email")
	assert.Contains(t, html, "Resend receipt")
	assert.Contains(t, html, "Pro yearly")
}

func TestHandleOddIdentifiers(t *testing.T) {
	bodies := map[string][]byte{
		"word ticket id":  []byte(`{"ticket":{"id":"abc"},"customer":{"email":"a@x.com"}}`),
		"fraction number": []byte(`{"ticket":{"id":9,"number":1.5},"customer":{"email":"a@x.com"}}`),
		"string customer": []byte(`{"ticket":{"id":9},"customer":{"id":"c-77","email":"a@x.com"}}`),
	}

	p := newTestPipeline(Options{}, testStore(), nil)
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			html, err := p.Handle(context.Background(), body, sign(t, body))
			require.NoError(t, err)
			assert.Contains(t, html, "Ada Lovelace")
		})
	}
}

func TestHandleErrors(t *testing.T) {
	valid := []byte(`{"customer":{"email":"a@x.com"}}`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		wantErr   error
	}{
		{
			name:      "bad signature",
			body:      valid,
			signature: "bm90IGl0",
			wantErr:   ErrSignatureInvalid,
		},
		{
			name:    "missing signature",
			body:    valid,
			wantErr: ErrSignatureInvalid,
		},
		{
			name:      "no email is checked before the signature",
			body:      []byte(`{"customer":{"fname":"Ada"}}`),
			signature: "bm90IGl0",
			wantErr:   ErrNoCustomerEmail,
		},
		{
			name:    "malformed body",
			body:    []byte(`{"customer":`),
			wantErr: ErrNoCustomerEmail,
		},
		{
			name:    "empty body",
			wantErr: ErrNoCustomerEmail,
		},
	}

	p := newTestPipeline(Options{}, testStore(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := p.Handle(context.Background(), tt.body, tt.signature)
			assert.Empty(t, html)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandleFixtureMode(t *testing.T) {
	store := testStore()
	store.AddCustomer(commerce.Customer{ID: 2, Name: "Dev User", Emails: []string{"dev@example.org"}})

	p := newTestPipeline(Options{FixtureMode: true, FixtureEmail: "dev@example.org"}, store, nil)
	assert.True(t, p.FixtureMode())

	html, err := p.Handle(context.Background(), []byte("ignored"), "")
	require.NoError(t, err)
	assert.Contains(t, html, "Dev User")
	assert.Contains(t, html, "No payments found for <strong>dev@example.org</strong>.")
}

func TestHandleFixtureModeDefaultEmail(t *testing.T) {
	p := newTestPipeline(Options{FixtureMode: true}, commercetest.New(), nil)

	html, err := p.Handle(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Contains(t, html, "user@example.com")
}

type brokenRenderer struct{}

func (brokenRenderer) Render(render.Section, any) (string, error) {
	return "", errors.New("template: missing field")
}

func TestHandleRenderFailure(t *testing.T) {
	body := []byte(`{"customer":{"email":"a@x.com"}}`)
	p := newTestPipeline(Options{}, testStore(), brokenRenderer{})

	_, err := p.Handle(context.Background(), body, sign(t, body))
	require.ErrorIs(t, err, ErrRender)
	assert.Equal(t, MessageRender, Message(err))
	assert.NotContains(t, Message(err), "missing field")
}

func TestHandleLicenseKeyInSubject(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"
	store := testStore()
	store.AddCustomer(commerce.Customer{ID: 5, Name: "Key Owner", Emails: []string{"owner@x.com"}})
	store.AddPayment(commerce.Payment{ID: 300, Status: "publish", Email: "owner@x.com"})
	store.Licenses = append(store.Licenses, commerce.License{ID: 30, Key: key, PaymentID: 300, CustomerID: 5, Status: "active"})

	body := []byte(`{"ticket":{"subject":"Activation fails ` + key + `"},"customer":{"email":"someone@else.com"}}`)
	p := newTestPipeline(Options{}, store, nil)

	html, err := p.Handle(context.Background(), body, sign(t, body))
	require.NoError(t, err)
	assert.Contains(t, html, "Key Owner")
	assert.Contains(t, html, key)
}

func TestMessageAndOutcome(t *testing.T) {
	tests := []struct {
		err     error
		message string
		outcome string
	}{
		{nil, MessageRender, "ok"},
		{ErrSignatureInvalid, "Invalid signature", "invalid_signature"},
		{ErrNoCustomerEmail, "No customer email given.", "no_customer_email"},
		{ErrRender, "Something went wrong while building the customer overview.", "render_error"},
	}
	for _, tt := range tests {
		if tt.err != nil {
			assert.Equal(t, tt.message, Message(tt.err))
		}
		assert.Equal(t, tt.outcome, Outcome(tt.err))
	}
}

func TestLookup(t *testing.T) {
	p := newTestPipeline(Options{}, testStore(), nil)

	view, err := p.Lookup(context.Background(), "c@x.com")
	require.NoError(t, err)
	require.Len(t, view.Customers, 1)
	assert.Equal(t, "Ada Lovelace", view.Customers[0].Name)
	assert.Equal(t, []string{"c@x.com", "a@x.com"}, view.Emails)
	require.Len(t, view.Orders, 1)
	assert.Equal(t, int64(100), view.Orders[0].ID)

	_, err = p.Lookup(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNoCustomerEmail)
}
