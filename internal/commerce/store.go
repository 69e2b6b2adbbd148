package commerce

import "context"

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/mattjoyce/deskpanel/internal/commerce CustomerStore

// CustomerStore looks up customer identities.
type CustomerStore interface {
	// CustomerByEmail returns (nil, nil) when no customer owns the address.
	CustomerByEmail(ctx context.Context, email string) (*Customer, error)
}

// OrderStore reads payments.
type OrderStore interface {
	// PaymentIDsByEmails returns ids of payments whose purchase email equals one of
	// emails (exact match), newest first.
	PaymentIDsByEmails(ctx context.Context, emails []string) ([]int64, error)
	Payment(ctx context.Context, id int64) (*Payment, error)
	PaymentNotes(ctx context.Context, id int64) ([]string, error)
}

// Extension is an optional integration of the commerce store. Callers must probe
// Available before using any other method of the integration.
type Extension interface {
	Name() string
	Available() bool
}

// LicenseStore is the licensing integration.
type LicenseStore interface {
	Extension
	// Version is the semantic version of the licensing integration.
	Version() string
	// LicensesByCustomer returns the customer's licenses ordered by ascending id.
	LicensesByCustomer(ctx context.Context, customerID int64) ([]License, error)
	LicensesByPayment(ctx context.Context, paymentID int64) ([]License, error)
	LicenseByKey(ctx context.Context, key string) (*License, error)
	Sites(ctx context.Context, licenseID int64) ([]string, error)
	UpgradeOffers(ctx context.Context, licenseID int64) ([]UpgradeOffer, error)
}

// SubscriptionStore is the recurring billing integration.
type SubscriptionStore interface {
	Extension
	SubscriptionsByCustomer(ctx context.Context, customerID int64) ([]Subscription, error)
}
