package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattjoyce/deskpanel/internal/commerce"
)

// Options switch the optional integrations of the store on and off.
type Options struct {
	LicensingEnabled bool
	LicensingVersion string
	RecurringEnabled bool
}

// Store reads the commerce tables. It implements commerce.CustomerStore and
// commerce.OrderStore; the optional integrations are exposed by Licensing and
// Recurring.
type Store struct {
	db   *DB
	opts Options
}

// NewStore returns a Store over db.
func NewStore(db *DB, opts Options) *Store {
	return &Store{db: db, opts: opts}
}

var (
	_ commerce.CustomerStore     = (*Store)(nil)
	_ commerce.OrderStore        = (*Store)(nil)
	_ commerce.LicenseStore      = (*Licensing)(nil)
	_ commerce.SubscriptionStore = (*Recurring)(nil)
)

// fileJSON is the stored form of a downloadable file.
type fileJSON struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CustomerByEmail returns the customer owning email, matched exactly.
func (s *Store) CustomerByEmail(ctx context.Context, email string) (*commerce.Customer, error) {
	var c commerce.Customer
	err := s.db.queryRow(ctx,
		`SELECT c.id, c.name, c.user_id FROM customers c
JOIN customer_emails e ON e.customer_id = c.id
WHERE e.email = ?
ORDER BY c.id LIMIT 1`, email).Scan(&c.ID, &c.Name, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("customer by email: %w", err)
	}

	rows, err := s.db.query(ctx,
		`SELECT email FROM customer_emails WHERE customer_id = ? ORDER BY is_primary DESC, email`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("customer emails: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan customer email: %w", err)
		}
		c.Emails = append(c.Emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customer emails: %w", err)
	}
	return &c, nil
}

// PaymentIDsByEmails returns ids of payments made with one of emails, newest first.
func (s *Store) PaymentIDsByEmails(ctx context.Context, emails []string) ([]int64, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	args := make([]any, len(emails))
	for i, e := range emails {
		args[i] = e
	}

	rows, err := s.db.query(ctx,
		`SELECT id FROM payments WHERE email IN (`+placeholders(len(emails))+`) ORDER BY created_at DESC, id DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("payments by email: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan payment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments by email: %w", err)
	}
	return ids, nil
}

// Payment returns the payment with its items, or nil when it does not exist.
func (s *Store) Payment(ctx context.Context, id int64) (*commerce.Payment, error) {
	var (
		p       commerce.Payment
		created string
	)
	err := s.db.queryRow(ctx,
		`SELECT id, created_at, status, amount, currency, gateway, email FROM payments WHERE id = ?`, id).
		Scan(&p.ID, &created, &p.Status, &p.Amount, &p.Currency, &p.Gateway, &p.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payment %d: %w", id, err)
	}
	if p.Date, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("payment %d: created_at: %w", id, err)
	}

	rows, err := s.db.query(ctx,
		`SELECT product_id, title, price_option, files FROM payment_items WHERE payment_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("payment %d items: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item  commerce.PaymentItem
			files string
		)
		if err := rows.Scan(&item.ProductID, &item.Title, &item.PriceOption, &files); err != nil {
			return nil, fmt.Errorf("scan payment item: %w", err)
		}
		if item.Files, err = decodeFiles(files); err != nil {
			return nil, fmt.Errorf("payment %d item %d files: %w", id, item.ProductID, err)
		}
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment %d items: %w", id, err)
	}
	return &p, nil
}

// PaymentNotes returns the notes of a payment in the order they were written.
func (s *Store) PaymentNotes(ctx context.Context, id int64) ([]string, error) {
	rows, err := s.db.query(ctx, `SELECT note FROM payment_notes WHERE payment_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("payment %d notes: %w", id, err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan payment note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payment %d notes: %w", id, err)
	}
	return notes, nil
}

func decodeFiles(raw string) ([]commerce.File, error) {
	if raw == "" {
		return nil, nil
	}
	var stored []fileJSON
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, err
	}
	files := make([]commerce.File, 0, len(stored))
	for _, f := range stored {
		files = append(files, commerce.File{Name: f.Name, URL: f.URL})
	}
	return files, nil
}

func encodeFiles(files []commerce.File) (string, error) {
	stored := make([]fileJSON, 0, len(files))
	for _, f := range files {
		stored = append(stored, fileJSON{Name: f.Name, URL: f.URL})
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Licensing returns the licensing integration of the store.
func (s *Store) Licensing() *Licensing {
	return &Licensing{s: s}
}

// Recurring returns the recurring billing integration of the store.
func (s *Store) Recurring() *Recurring {
	return &Recurring{s: s}
}
