// Package commerce holds the domain types of the customer overview and the narrow
// interfaces through which the commerce store is read.
//
// Everything in here is request scoped: values are built fresh for each sidebar
// request and dropped once the response is written.
package commerce

import "time"

// Customer is a resolved customer identity.
type Customer struct {
	ID       int64
	Name     string
	Emails   []string
	UserID   int64
	AdminURL string
}

// Payment is the raw payment record as read from the store.
type Payment struct {
	ID       int64
	Date     time.Time
	Status   string
	Amount   float64
	Currency string
	Gateway  string
	Email    string
	Items    []PaymentItem
}

// PaymentItem is one purchased product line of a payment.
type PaymentItem struct {
	ProductID   int64
	Title       string
	PriceOption string
	Files       []File
}

// File is a downloadable file attached to a purchased product.
type File struct {
	Name string
	URL  string
}

// PaymentMethod is a payment method label, optionally linked to the gateway dashboard.
type PaymentMethod struct {
	Label string
	URL   string
}

// Order is a payment prepared for display.
type Order struct {
	ID                int64
	Date              time.Time
	Amount            float64
	Currency          string
	FormattedAmount   string
	Status            string
	Color             Color
	Completed         bool
	PaymentMethod     PaymentMethod
	Items             []OrderItem
	ResendReceiptLink string
	AdminURL          string
}

// OrderItem is a purchased product of an order.
type OrderItem struct {
	Title         string
	PriceOption   string
	Files         []File
	License       *License
	ChildLicenses []License
}

// License is a license key. ParentID is zero for top-level licenses.
//
// Children only ever hang off a top-level license: a license with a parent has no
// children of its own.
type License struct {
	ID              int64
	Key             string
	ProductID       int64
	PaymentID       int64
	CustomerID      int64
	ActivationLimit int
	ActivationCount int
	ExpiresAt       *time.Time
	Lifetime        bool
	Status          string
	Color           Color
	ParentID        int64
	Sites           []Site
	ExpirationLabel string
	Upgrades        []UpgradeOffer
	Children        []License
	AdminURL        string
}

// Expired reports whether the license expiration lies before now.
// Lifetime licenses and licenses without an expiration never expire.
func (l License) Expired(now time.Time) bool {
	if l.Lifetime || l.ExpiresAt == nil {
		return false
	}
	return l.ExpiresAt.Before(now)
}

// Site is an activated site of a license.
type Site struct {
	URL            string
	DeactivateLink string
}

// UpgradeOffer is an upgrade path available to a license.
type UpgradeOffer struct {
	ProductTitle   string
	PriceOption    string
	Price          float64
	Currency       string
	FormattedPrice string
	PurchaseURL    string
}

// Subscription is a recurring billing subscription.
type Subscription struct {
	ID           int64
	CustomerID   int64
	ProductTitle string
	Status       string
	Color        Color
	AdminURL     string
}
