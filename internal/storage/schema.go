package storage

import (
	"context"
	"fmt"
)

// The DDL sticks to types both SQLite and Postgres accept. Timestamps are
// RFC 3339 text and booleans are 0/1 integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
  id      BIGINT PRIMARY KEY,
  name    TEXT NOT NULL,
  user_id BIGINT NOT NULL DEFAULT 0
);`,
	`CREATE TABLE IF NOT EXISTS customer_emails (
  customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  email       TEXT NOT NULL,
  is_primary  INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (customer_id, email)
);`,
	`CREATE TABLE IF NOT EXISTS payments (
  id         BIGINT PRIMARY KEY,
  created_at TEXT NOT NULL,
  status     TEXT NOT NULL,
  amount     DOUBLE PRECISION NOT NULL DEFAULT 0,
  currency   TEXT NOT NULL DEFAULT '',
  gateway    TEXT NOT NULL DEFAULT '',
  email      TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS payment_items (
  payment_id   BIGINT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
  seq          INTEGER NOT NULL,
  product_id   BIGINT NOT NULL,
  title        TEXT NOT NULL,
  price_option TEXT NOT NULL DEFAULT '',
  files        TEXT NOT NULL DEFAULT '[]',
  PRIMARY KEY (payment_id, seq)
);`,
	`CREATE TABLE IF NOT EXISTS payment_notes (
  payment_id BIGINT NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
  seq        INTEGER NOT NULL,
  note       TEXT NOT NULL,
  PRIMARY KEY (payment_id, seq)
);`,
	`CREATE TABLE IF NOT EXISTS licenses (
  id               BIGINT PRIMARY KEY,
  license_key      TEXT NOT NULL UNIQUE,
  product_id       BIGINT NOT NULL DEFAULT 0,
  payment_id       BIGINT NOT NULL DEFAULT 0,
  customer_id      BIGINT NOT NULL DEFAULT 0,
  activation_limit INTEGER NOT NULL DEFAULT 0,
  activation_count INTEGER NOT NULL DEFAULT 0,
  expires_at       TEXT,
  lifetime         INTEGER NOT NULL DEFAULT 0,
  status           TEXT NOT NULL,
  parent_id        BIGINT NOT NULL DEFAULT 0
);`,
	`CREATE TABLE IF NOT EXISTS license_sites (
  license_id BIGINT NOT NULL REFERENCES licenses(id) ON DELETE CASCADE,
  url        TEXT NOT NULL,
  PRIMARY KEY (license_id, url)
);`,
	`CREATE TABLE IF NOT EXISTS license_upgrades (
  license_id    BIGINT NOT NULL REFERENCES licenses(id) ON DELETE CASCADE,
  seq           INTEGER NOT NULL,
  product_title TEXT NOT NULL,
  price_option  TEXT NOT NULL DEFAULT '',
  price         DOUBLE PRECISION NOT NULL DEFAULT 0,
  currency      TEXT NOT NULL DEFAULT '',
  purchase_url  TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (license_id, seq)
);`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
  id            BIGINT PRIMARY KEY,
  customer_id   BIGINT NOT NULL,
  product_title TEXT NOT NULL,
  status        TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS action_queue (
  id           TEXT PRIMARY KEY,
  action       TEXT NOT NULL,
  params       TEXT NOT NULL DEFAULT '{}',
  status       TEXT NOT NULL,
  remote_addr  TEXT NOT NULL DEFAULT '',
  requested_at TEXT NOT NULL,
  expires_at   TEXT NOT NULL,
  completed_at TEXT,
  signature    TEXT UNIQUE
);`,
	`CREATE INDEX IF NOT EXISTS customer_emails_email_idx ON customer_emails(email);`,
	`CREATE INDEX IF NOT EXISTS payments_email_idx ON payments(email);`,
	`CREATE INDEX IF NOT EXISTS licenses_customer_idx ON licenses(customer_id);`,
	`CREATE INDEX IF NOT EXISTS licenses_payment_idx ON licenses(payment_id);`,
	`CREATE INDEX IF NOT EXISTS subscriptions_customer_idx ON subscriptions(customer_id);`,
	`CREATE INDEX IF NOT EXISTS action_queue_status_requested_at_idx ON action_queue(status, requested_at);`,
}

// Tables lists the tables created by Bootstrap.
var Tables = []string{
	"customers",
	"customer_emails",
	"payments",
	"payment_items",
	"payment_notes",
	"licenses",
	"license_sites",
	"license_upgrades",
	"subscriptions",
	"action_queue",
}

// Bootstrap creates tables and indexes if missing.
func Bootstrap(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap %s: %w", db.driver, err)
		}
	}
	return nil
}
