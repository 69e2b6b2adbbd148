// Package doctor reviews a loaded deskpanel configuration for settings that
// are valid but likely wrong, and optionally probes the store it points at.
package doctor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattjoyce/deskpanel/internal/aggregate"
	"github.com/mattjoyce/deskpanel/internal/config"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

const (
	minSecretLength = 16
	maxActionTTL    = 7 * 24 * time.Hour
)

// Doctor validates a configuration that config.Load already accepted.
type Doctor struct {
	cfg *config.Config
	db  *storage.DB
}

// New creates a Doctor. db may be nil, in which case the store is not probed.
func New(cfg *config.Config, db *storage.DB) *Doctor {
	return &Doctor{cfg: cfg, db: db}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate(ctx context.Context) *Result {
	r := &Result{Valid: true}

	d.validateServer(r)
	d.validateSigning(r)
	d.validateIntegrations(r)
	d.warnFixture(r)
	d.warnUnlocked(r)
	if d.db != nil {
		d.probeStore(ctx, r)
	}

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateServer(r *Result) {
	if _, _, err := net.SplitHostPort(d.cfg.Server.Listen); err != nil {
		d.addError(r, "server", "server.listen",
			fmt.Sprintf("listen address %q is not host:port: %v", d.cfg.Server.Listen, err))
	}
	if d.cfg.Server.RateLimit.RPS == 0 {
		d.addWarning(r, "server", "server.rate_limit.rps", "rate limiting is disabled")
	}
	if d.cfg.Admin.BaseURL == "" {
		d.addWarning(r, "server", "admin.base_url", "admin links are omitted from the sidebar")
	}
}

func (d *Doctor) validateSigning(r *Result) {
	s := d.cfg.Signing
	if s.Secret != "" && len(s.Secret) < minSecretLength {
		d.addWarning(r, "signing", "signing.secret",
			fmt.Sprintf("secret is shorter than %d characters", minSecretLength))
	}
	if s.ActionTTL > maxActionTTL {
		d.addWarning(r, "signing", "signing.action_ttl",
			fmt.Sprintf("action links stay valid for %s", s.ActionTTL))
	}

	if s.ActionBaseURL == "" {
		d.addWarning(r, "signing", "signing.action_base_url",
			"no action links (resend receipt, deactivate site) will be rendered")
		return
	}
	u, err := url.Parse(s.ActionBaseURL)
	if err != nil {
		return
	}
	if u.RawQuery != "" {
		d.addError(r, "signing", "signing.action_base_url", "action base URL must not carry a query")
	}
	if u.Path != d.cfg.Server.ActionPath {
		d.addWarning(r, "signing", "signing.action_base_url",
			fmt.Sprintf("action links point at %s but this server serves actions at %s", u.Path, d.cfg.Server.ActionPath))
	}
}

func (d *Doctor) validateIntegrations(r *Result) {
	lic := d.cfg.Integrations.Licensing
	if !lic.Enabled {
		if lic.Version != "" {
			d.addWarning(r, "integrations", "integrations.licensing.version",
				"version is set but the licensing integration is disabled")
		}
		return
	}
	if lic.Version == "" {
		d.addWarning(r, "integrations", "integrations.licensing.version",
			"version unset; order items will not show their licenses")
		return
	}
	ok, err := aggregate.ItemLicensesSupported(lic.Version)
	if err != nil {
		d.addError(r, "integrations", "integrations.licensing.version", err.Error())
		return
	}
	if !ok {
		d.addWarning(r, "integrations", "integrations.licensing.version",
			fmt.Sprintf("licensing %s does not tie licenses to order items", lic.Version))
	}
}

func (d *Doctor) warnFixture(r *Result) {
	if !d.cfg.Fixture.Enabled {
		return
	}
	d.addWarning(r, "fixture", "fixture.enabled",
		"fixture mode ignores request bodies and skips signature checks")

	host, _, err := net.SplitHostPort(d.cfg.Server.Listen)
	if err != nil {
		return
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && !ip.IsLoopback()) {
		d.addWarning(r, "fixture", "server.listen",
			fmt.Sprintf("fixture mode is reachable from outside this host on %s", d.cfg.Server.Listen))
	}
}

func (d *Doctor) warnUnlocked(r *Result) {
	if d.cfg.Path == "" {
		return
	}
	if _, err := config.LoadChecksums(filepath.Dir(d.cfg.Path)); err != nil {
		d.addWarning(r, "integrity", config.ChecksumsFile,
			"configuration is not locked (run 'deskpanel config lock')")
	}
}

// probeStore checks that every table of the schema can be read.
func (d *Doctor) probeStore(ctx context.Context, r *Result) {
	for _, table := range storage.Tables {
		rows, err := d.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		if err != nil {
			d.addError(r, "store", table, fmt.Sprintf("table not readable: %v", err))
			continue
		}
		_ = rows.Close()
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid {
		fmt.Fprintf(&b, "Configuration valid (%d warning(s))\n", len(r.Warnings))
	} else {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		writeIssue(&b, "ERROR", e)
	}
	for _, w := range r.Warnings {
		writeIssue(&b, "WARN ", w)
	}
	return b.String()
}

func writeIssue(b *strings.Builder, level string, i Issue) {
	if i.Field != "" {
		fmt.Fprintf(b, "  %s [%s] %s: %s\n", level, i.Category, i.Field, i.Message)
		return
	}
	fmt.Fprintf(b, "  %s [%s] %s\n", level, i.Category, i.Message)
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
