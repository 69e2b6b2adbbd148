package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Licensing is the licensing integration backed by the licenses tables.
type Licensing struct {
	s *Store
}

func (l *Licensing) Name() string { return "licensing" }

func (l *Licensing) Available() bool { return l.s.opts.LicensingEnabled }

func (l *Licensing) Version() string { return l.s.opts.LicensingVersion }

const licenseColumns = `id, license_key, product_id, payment_id, customer_id, activation_limit,
activation_count, expires_at, lifetime, status, parent_id`

// LicensesByCustomer returns the customer's licenses by ascending id.
func (l *Licensing) LicensesByCustomer(ctx context.Context, customerID int64) ([]commerce.License, error) {
	return l.list(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE customer_id = ? ORDER BY id`, customerID)
}

// LicensesByPayment returns the licenses issued by a payment by ascending id.
func (l *Licensing) LicensesByPayment(ctx context.Context, paymentID int64) ([]commerce.License, error) {
	return l.list(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE payment_id = ? ORDER BY id`, paymentID)
}

// LicenseByKey returns the license with key, or nil when there is none.
func (l *Licensing) LicenseByKey(ctx context.Context, key string) (*commerce.License, error) {
	row := l.s.db.queryRow(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE license_key = ?`, key)
	lic, err := scanLicense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("license by key: %w", err)
	}
	return &lic, nil
}

// Sites returns the activated site URLs of a license.
func (l *Licensing) Sites(ctx context.Context, licenseID int64) ([]string, error) {
	rows, err := l.s.db.query(ctx, `SELECT url FROM license_sites WHERE license_id = ? ORDER BY url`, licenseID)
	if err != nil {
		return nil, fmt.Errorf("license %d sites: %w", licenseID, err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan license site: %w", err)
		}
		sites = append(sites, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("license %d sites: %w", licenseID, err)
	}
	return sites, nil
}

// UpgradeOffers returns the upgrade paths of a license.
func (l *Licensing) UpgradeOffers(ctx context.Context, licenseID int64) ([]commerce.UpgradeOffer, error) {
	rows, err := l.s.db.query(ctx,
		`SELECT product_title, price_option, price, currency, purchase_url FROM license_upgrades
WHERE license_id = ? ORDER BY seq`, licenseID)
	if err != nil {
		return nil, fmt.Errorf("license %d upgrades: %w", licenseID, err)
	}
	defer rows.Close()

	var offers []commerce.UpgradeOffer
	for rows.Next() {
		var o commerce.UpgradeOffer
		if err := rows.Scan(&o.ProductTitle, &o.PriceOption, &o.Price, &o.Currency, &o.PurchaseURL); err != nil {
			return nil, fmt.Errorf("scan upgrade offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("license %d upgrades: %w", licenseID, err)
	}
	return offers, nil
}

func (l *Licensing) list(ctx context.Context, query string, arg any) ([]commerce.License, error) {
	rows, err := l.s.db.query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	defer rows.Close()

	var out []commerce.License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan license: %w", err)
		}
		out = append(out, lic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLicense(row scanner) (commerce.License, error) {
	var (
		lic      commerce.License
		expires  sql.NullString
		lifetime int
	)
	err := row.Scan(&lic.ID, &lic.Key, &lic.ProductID, &lic.PaymentID, &lic.CustomerID,
		&lic.ActivationLimit, &lic.ActivationCount, &expires, &lifetime, &lic.Status, &lic.ParentID)
	if err != nil {
		return commerce.License{}, err
	}
	lic.Lifetime = lifetime != 0
	if expires.Valid && expires.String != "" {
		t, err := time.Parse(time.RFC3339, expires.String)
		if err != nil {
			return commerce.License{}, fmt.Errorf("license %d expires_at: %w", lic.ID, err)
		}
		lic.ExpiresAt = &t
	}
	return lic, nil
}

// Recurring is the recurring billing integration backed by the subscriptions table.
type Recurring struct {
	s *Store
}

func (r *Recurring) Name() string { return "recurring" }

func (r *Recurring) Available() bool { return r.s.opts.RecurringEnabled }

// SubscriptionsByCustomer returns the customer's subscriptions by ascending id.
func (r *Recurring) SubscriptionsByCustomer(ctx context.Context, customerID int64) ([]commerce.Subscription, error) {
	rows, err := r.s.db.query(ctx,
		`SELECT id, customer_id, product_title, status FROM subscriptions WHERE customer_id = ? ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("subscriptions of customer %d: %w", customerID, err)
	}
	defer rows.Close()

	var subs []commerce.Subscription
	for rows.Next() {
		var sub commerce.Subscription
		if err := rows.Scan(&sub.ID, &sub.CustomerID, &sub.ProductTitle, &sub.Status); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("subscriptions of customer %d: %w", customerID, err)
	}
	return subs, nil
}
