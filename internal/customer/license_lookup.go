package customer

import (
	"context"
	"log/slog"

	"github.com/mattjoyce/deskpanel/internal/commerce"
	"github.com/mattjoyce/deskpanel/internal/payload"
)

// LicenseEmailLookup finds the purchase email behind a license key quoted in the
// ticket subject.
type LicenseEmailLookup struct {
	licenses commerce.LicenseStore
	orders   commerce.OrderStore
	logger   *slog.Logger
}

// NewLicenseEmailLookup returns a lookup. licenses may be nil when the store has
// no licensing integration.
func NewLicenseEmailLookup(licenses commerce.LicenseStore, orders commerce.OrderStore, logger *slog.Logger) *LicenseEmailLookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &LicenseEmailLookup{licenses: licenses, orders: orders, logger: logger}
}

// Email returns the email of the payment that bought the license named in the
// ticket subject. It returns false when there is no such license or the
// licensing integration is absent.
func (l *LicenseEmailLookup) Email(ctx context.Context, req *payload.Request) (string, bool) {
	if l == nil || l.licenses == nil || !l.licenses.Available() {
		return "", false
	}
	key, ok := req.LicenseKeyCandidate()
	if !ok {
		return "", false
	}

	lic, err := l.licenses.LicenseByKey(ctx, key)
	if err != nil {
		l.logger.Warn("license key lookup failed", "error", err)
		return "", false
	}
	if lic == nil || lic.PaymentID == 0 {
		return "", false
	}

	p, err := l.orders.Payment(ctx, lic.PaymentID)
	if err != nil {
		l.logger.Warn("payment lookup failed", "payment_id", lic.PaymentID, "error", err)
		return "", false
	}
	if p == nil || p.Email == "" {
		return "", false
	}
	return p.Email, true
}

// Prepend returns inbound with the license email in front when one is found.
func (l *LicenseEmailLookup) Prepend(ctx context.Context, req *payload.Request, inbound []string) []string {
	email, ok := l.Email(ctx, req)
	if !ok {
		return inbound
	}
	out := make([]string, 0, len(inbound)+1)
	out = append(out, email)
	return append(out, inbound...)
}
