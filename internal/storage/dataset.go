package storage

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Dataset is a snapshot of commerce data in YAML form, used to seed a store.
type Dataset struct {
	Customers     []CustomerRecord     `yaml:"customers"`
	Payments      []PaymentRecord      `yaml:"payments"`
	Licenses      []LicenseRecord      `yaml:"licenses"`
	Subscriptions []SubscriptionRecord `yaml:"subscriptions"`
}

// CustomerRecord is a customer. The first email is the primary address.
type CustomerRecord struct {
	ID     int64    `yaml:"id"`
	Name   string   `yaml:"name"`
	UserID int64    `yaml:"user_id"`
	Emails []string `yaml:"emails"`
}

type PaymentRecord struct {
	ID       int64        `yaml:"id"`
	Date     string       `yaml:"date"`
	Status   string       `yaml:"status"`
	Amount   float64      `yaml:"amount"`
	Currency string       `yaml:"currency"`
	Gateway  string       `yaml:"gateway"`
	Email    string       `yaml:"email"`
	Notes    []string     `yaml:"notes"`
	Items    []ItemRecord `yaml:"items"`
}

type ItemRecord struct {
	ProductID   int64        `yaml:"product_id"`
	Title       string       `yaml:"title"`
	PriceOption string       `yaml:"price_option"`
	Files       []FileRecord `yaml:"files"`
}

type FileRecord struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type LicenseRecord struct {
	ID              int64           `yaml:"id"`
	Key             string          `yaml:"key"`
	ProductID       int64           `yaml:"product_id"`
	PaymentID       int64           `yaml:"payment_id"`
	CustomerID      int64           `yaml:"customer_id"`
	ActivationLimit int             `yaml:"activation_limit"`
	ActivationCount int             `yaml:"activation_count"`
	ExpiresAt       string          `yaml:"expires_at"`
	Lifetime        bool            `yaml:"lifetime"`
	Status          string          `yaml:"status"`
	ParentID        int64           `yaml:"parent_id"`
	Sites           []string        `yaml:"sites"`
	Upgrades        []UpgradeRecord `yaml:"upgrades"`
}

type UpgradeRecord struct {
	ProductTitle string  `yaml:"product_title"`
	PriceOption  string  `yaml:"price_option"`
	Price        float64 `yaml:"price"`
	Currency     string  `yaml:"currency"`
	PurchaseURL  string  `yaml:"purchase_url"`
}

type SubscriptionRecord struct {
	ID           int64  `yaml:"id"`
	CustomerID   int64  `yaml:"customer_id"`
	ProductTitle string `yaml:"product_title"`
	Status       string `yaml:"status"`
}

// LoadDataset reads a dataset file. Unknown keys are rejected.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes a YAML dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return &ds, nil
}

// parseTimestamp accepts RFC 3339 or a bare date, read as UTC midnight.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

// Import replaces the commerce tables with ds in a single transaction. The
// action queue is left untouched.
func Import(ctx context.Context, db *DB, ds *Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	im := importer{db: db, tx: tx}
	// Children first so foreign keys hold while clearing.
	for _, table := range []string{
		"license_upgrades", "license_sites", "licenses",
		"payment_notes", "payment_items", "payments",
		"customer_emails", "customers", "subscriptions",
	} {
		if err := im.exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range ds.Customers {
		if err := im.customer(ctx, c); err != nil {
			return err
		}
	}
	for _, p := range ds.Payments {
		if err := im.payment(ctx, p); err != nil {
			return err
		}
	}
	for _, l := range ds.Licenses {
		if err := im.license(ctx, l); err != nil {
			return err
		}
	}
	for _, s := range ds.Subscriptions {
		if err := im.exec(ctx,
			`INSERT INTO subscriptions (id, customer_id, product_title, status) VALUES (?, ?, ?, ?)`,
			s.ID, s.CustomerID, s.ProductTitle, s.Status); err != nil {
			return fmt.Errorf("insert subscription %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

type importer struct {
	db *DB
	tx *sql.Tx
}

func (im importer) exec(ctx context.Context, query string, args ...any) error {
	_, err := im.tx.ExecContext(ctx, im.db.Rebind(query), args...)
	return err
}

func (im importer) customer(ctx context.Context, c CustomerRecord) error {
	if err := im.exec(ctx, `INSERT INTO customers (id, name, user_id) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.UserID); err != nil {
		return fmt.Errorf("insert customer %d: %w", c.ID, err)
	}
	for i, email := range c.Emails {
		primary := 0
		if i == 0 {
			primary = 1
		}
		if err := im.exec(ctx, `INSERT INTO customer_emails (customer_id, email, is_primary) VALUES (?, ?, ?)`,
			c.ID, email, primary); err != nil {
			return fmt.Errorf("insert email %q of customer %d: %w", email, c.ID, err)
		}
	}
	return nil
}

func (im importer) payment(ctx context.Context, p PaymentRecord) error {
	date, err := parseTimestamp(p.Date)
	if err != nil {
		return fmt.Errorf("payment %d date: %w", p.ID, err)
	}
	if err := im.exec(ctx,
		`INSERT INTO payments (id, created_at, status, amount, currency, gateway, email) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, date.Format(time.RFC3339), p.Status, p.Amount, p.Currency, p.Gateway, p.Email); err != nil {
		return fmt.Errorf("insert payment %d: %w", p.ID, err)
	}

	for i, item := range p.Items {
		files := make([]commerce.File, 0, len(item.Files))
		for _, f := range item.Files {
			files = append(files, commerce.File{Name: f.Name, URL: f.URL})
		}
		encoded, err := encodeFiles(files)
		if err != nil {
			return fmt.Errorf("payment %d item %d files: %w", p.ID, i, err)
		}
		if err := im.exec(ctx,
			`INSERT INTO payment_items (payment_id, seq, product_id, title, price_option, files) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, i, item.ProductID, item.Title, item.PriceOption, encoded); err != nil {
			return fmt.Errorf("insert payment %d item %d: %w", p.ID, i, err)
		}
	}
	for i, note := range p.Notes {
		if err := im.exec(ctx, `INSERT INTO payment_notes (payment_id, seq, note) VALUES (?, ?, ?)`,
			p.ID, i, note); err != nil {
			return fmt.Errorf("insert payment %d note %d: %w", p.ID, i, err)
		}
	}
	return nil
}

func (im importer) license(ctx context.Context, l LicenseRecord) error {
	var expires any
	if l.ExpiresAt != "" {
		t, err := parseTimestamp(l.ExpiresAt)
		if err != nil {
			return fmt.Errorf("license %d expires_at: %w", l.ID, err)
		}
		expires = t.Format(time.RFC3339)
	}
	lifetime := 0
	if l.Lifetime {
		lifetime = 1
	}

	if err := im.exec(ctx,
		`INSERT INTO licenses (id, license_key, product_id, payment_id, customer_id, activation_limit,
activation_count, expires_at, lifetime, status, parent_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Key, l.ProductID, l.PaymentID, l.CustomerID, l.ActivationLimit,
		l.ActivationCount, expires, lifetime, l.Status, l.ParentID); err != nil {
		return fmt.Errorf("insert license %d: %w", l.ID, err)
	}
	for _, site := range l.Sites {
		if err := im.exec(ctx, `INSERT INTO license_sites (license_id, url) VALUES (?, ?)`, l.ID, site); err != nil {
			return fmt.Errorf("insert site %q of license %d: %w", site, l.ID, err)
		}
	}
	for i, u := range l.Upgrades {
		if err := im.exec(ctx,
			`INSERT INTO license_upgrades (license_id, seq, product_title, price_option, price, currency, purchase_url)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, i, u.ProductTitle, u.PriceOption, u.Price, u.Currency, u.PurchaseURL); err != nil {
			return fmt.Errorf("insert upgrade %d of license %d: %w", i, l.ID, err)
		}
	}
	return nil
}
