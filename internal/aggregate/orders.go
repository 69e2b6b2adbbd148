package aggregate

import (
	"context"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/mattjoyce/deskpanel/internal/actions"
	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

var (
	paypalTransaction = regexp.MustCompile(`^PayPal Transaction ID: (\S+)`)
	stripeCharge      = regexp.MustCompile(`^Stripe Charge ID: (\S+)`)
)

var gatewayLabels = map[string]string{
	"paypal":           "PayPal",
	"paypalexpress":    "PayPal",
	"stripe":           "Stripe",
	"manual":           "Manual",
	"manual_purchases": "Manual",
}

// itemLicensesSince is the licensing version after which licenses are tied to
// the purchased items of an order.
var itemLicensesSince = semver.MustParse("3.6")

// Orders returns the customer's orders, newest first.
func (a *Aggregator) Orders(ctx context.Context, emails []string, req *payload.Request) []commerce.Order {
	ids := a.paymentIDs(ctx, emails, req)
	perItem := a.itemLicensesEnabled()

	orders := make([]commerce.Order, 0, len(ids))
	for _, id := range ids {
		order, ok := a.order(ctx, id, perItem)
		if !ok {
			continue
		}
		orders = append(orders, order)
	}
	return orders
}

func (a *Aggregator) paymentIDs(ctx context.Context, emails []string, req *payload.Request) []int64 {
	if ids := a.hooks.CustomerPayments(emails, req); len(ids) > 0 {
		return ids
	}
	if len(emails) == 0 {
		return nil
	}
	ids, err := a.stores.Orders.PaymentIDsByEmails(ctx, emails)
	if err != nil {
		a.logger.Warn("payment lookup failed", "emails", len(emails), "error", err)
		return nil
	}
	return ids
}

func (a *Aggregator) order(ctx context.Context, id int64, perItem bool) (commerce.Order, bool) {
	p, err := a.stores.Orders.Payment(ctx, id)
	if err != nil {
		a.logger.Warn("payment lookup failed", "payment_id", id, "error", err)
		return commerce.Order{}, false
	}
	if p == nil {
		a.logger.Warn("payment not found", "payment_id", id)
		return commerce.Order{}, false
	}

	method, err := a.paymentMethod(ctx, p)
	if err != nil {
		a.logger.Warn("payment notes lookup failed", "payment_id", id, "error", err)
		return commerce.Order{}, false
	}

	completed := p.Status == commerce.PaymentStatusPublish
	order := commerce.Order{
		ID:              p.ID,
		Date:            p.Date,
		Amount:          p.Amount,
		Currency:        p.Currency,
		FormattedAmount: FormatAmount(p.Amount, p.Currency),
		Status:          p.Status,
		Color:           commerce.OrderColor(p.Status),
		Completed:       completed,
		PaymentMethod:   method,
		AdminURL:        a.adminLink("payments", p.ID),
	}
	if completed {
		order.ResendReceiptLink = a.signedLink(actions.ResendReceipt, map[string]string{
			actions.ParamPaymentID: strconv.FormatInt(p.ID, 10),
		})
	}

	var licenses []commerce.License
	if perItem {
		licenses, err = a.stores.Licenses.LicensesByPayment(ctx, p.ID)
		if err != nil {
			a.logger.Warn("payment licenses lookup failed", "payment_id", id, "error", err)
			licenses = nil
		}
	}

	order.Items = make([]commerce.OrderItem, 0, len(p.Items))
	for _, it := range p.Items {
		item := commerce.OrderItem{
			Title:       it.Title,
			PriceOption: it.PriceOption,
			Files:       it.Files,
		}
		if len(licenses) > 0 {
			parent, children := ItemLicenses(licenses, it.ProductID)
			if parent != nil {
				decorated := a.decorateLicense(ctx, *parent, true)
				item.License = &decorated
			}
			for _, c := range children {
				item.ChildLicenses = append(item.ChildLicenses, a.decorateLicense(ctx, c, true))
			}
		}
		order.Items = append(order.Items, item)
	}

	return order, true
}

// paymentMethod describes how p was paid. PayPal and Stripe payments link to
// the transaction when the payment notes carry its id.
func (a *Aggregator) paymentMethod(ctx context.Context, p *commerce.Payment) (commerce.PaymentMethod, error) {
	method := commerce.PaymentMethod{Label: p.Gateway}
	if label, ok := gatewayLabels[p.Gateway]; ok {
		method.Label = label
	}

	var pattern *regexp.Regexp
	var prefix string
	switch p.Gateway {
	case "paypal", "paypalexpress":
		pattern, prefix = paypalTransaction, "https://www.paypal.com/us/vst/id="
	case "stripe":
		pattern, prefix = stripeCharge, "https://dashboard.stripe.com/payments/"
	case "manual", "manual_purchases":
		return method, nil
	}

	if pattern != nil {
		notes, err := a.stores.Orders.PaymentNotes(ctx, p.ID)
		if err != nil {
			return commerce.PaymentMethod{}, err
		}
		for _, note := range notes {
			if m := pattern.FindStringSubmatch(note); m != nil {
				method.URL = prefix + m[1]
				return method, nil
			}
		}
	}

	return a.hooks.GatewayLink(method, p.Gateway, p.ID), nil
}

func (a *Aggregator) itemLicensesEnabled() bool {
	if !a.licensingAvailable() {
		return false
	}
	ok, err := ItemLicensesSupported(a.stores.Licenses.Version())
	if err != nil {
		a.logger.Warn("unparseable licensing version", "version", a.stores.Licenses.Version(), "error", err)
		return false
	}
	return ok
}

// ItemLicensesSupported reports whether a licensing integration at version
// ties licenses to the purchased items of an order.
func ItemLicensesSupported(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, err
	}
	return v.GreaterThan(itemLicensesSince), nil
}

// ItemLicenses picks the licenses of one purchased product from the licenses of
// a payment. The first license for the product is the parent. Further licenses
// for the same product are returned as children, followed by the licenses whose
// parent is the chosen one.
func ItemLicenses(licenses []commerce.License, productID int64) (*commerce.License, []commerce.License) {
	var parent *commerce.License
	var children []commerce.License
	for i := range licenses {
		if licenses[i].ProductID != productID {
			continue
		}
		if parent == nil {
			parent = &licenses[i]
			continue
		}
		children = append(children, licenses[i])
	}
	if parent == nil {
		return nil, nil
	}

	seen := make(map[int64]bool, len(children)+1)
	seen[parent.ID] = true
	for _, c := range children {
		seen[c.ID] = true
	}
	for _, l := range licenses {
		if l.ParentID == parent.ID && !seen[l.ID] {
			seen[l.ID] = true
			children = append(children, l)
		}
	}

	p := *parent
	return &p, children
}
