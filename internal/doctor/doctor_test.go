package doctor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/deskpanel/internal/config"
	"github.com/mattjoyce/deskpanel/internal/storage"
)

func validConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Signing.Secret = "0123456789abcdef0123"
	cfg.Signing.ActionBaseURL = "https://shop.example.com/helpdesk/action"
	cfg.Admin.BaseURL = "https://shop.example.com/admin"
	cfg.Integrations.Licensing.Enabled = true
	cfg.Integrations.Licensing.Version = "3.8.1"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()
	r := New(validConfig(), nil).Validate(context.Background())
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %v", r.Warnings)
	}
}

func TestValidate_BadListen(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Server.Listen = "8080"
	r := New(cfg, nil).Validate(context.Background())
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "server", "not host:port")
}

func TestValidate_ShortSecret(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Signing.Secret = "short"
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "signing", "shorter than 16")
}

func TestValidate_LongActionTTL(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Signing.ActionTTL = 30 * 24 * time.Hour
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "signing", "stay valid for")
}

func TestValidate_ActionURLMismatch(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Signing.ActionBaseURL = "https://shop.example.com/other"
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "signing", "serves actions at /helpdesk/action")
}

func TestValidate_ActionURLQuery(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Signing.ActionBaseURL = "https://shop.example.com/helpdesk/action?x=1"
	r := New(cfg, nil).Validate(context.Background())
	assertHasError(t, r, "signing", "must not carry a query")
}

func TestValidate_NoActionURL(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Signing.ActionBaseURL = ""
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "signing", "no action links")
}

func TestValidate_LicensingVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		enabled bool
		version string
		warning string
	}{
		{"old version", true, "3.5.0", "does not tie licenses"},
		{"exactly the gate", true, "3.6.0", "does not tie licenses"},
		{"missing version", true, "", "version unset"},
		{"disabled with version", false, "3.8.0", "integration is disabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Integrations.Licensing.Enabled = tt.enabled
			cfg.Integrations.Licensing.Version = tt.version
			r := New(cfg, nil).Validate(context.Background())
			assertHasWarning(t, r, "integrations", tt.warning)
		})
	}
}

func TestValidate_FixtureOnPublicInterface(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Fixture.Enabled = true
	cfg.Server.Listen = "0.0.0.0:8080"
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "fixture", "skips signature checks")
	assertHasWarning(t, r, "fixture", "reachable from outside")
}

func TestValidate_FixtureOnLoopback(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Fixture.Enabled = true
	r := New(cfg, nil).Validate(context.Background())
	for _, w := range r.Warnings {
		if strings.Contains(w.Message, "reachable from outside") {
			t.Fatalf("unexpected warning for loopback listen: %v", w)
		}
	}
}

func TestValidate_Unlocked(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("service:\n  name: deskpanel\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := validConfig()
	cfg.Path = path
	r := New(cfg, nil).Validate(context.Background())
	assertHasWarning(t, r, "integrity", "not locked")

	if _, err := config.Lock(path, nil, false); err != nil {
		t.Fatal(err)
	}
	r = New(cfg, nil).Validate(context.Background())
	for _, w := range r.Warnings {
		if w.Category == "integrity" {
			t.Fatalf("unexpected integrity warning after lock: %v", w)
		}
	}
}

func TestValidate_ProbeStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := storage.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	r := New(validConfig(), db).Validate(ctx)
	if !r.Valid {
		t.Fatalf("expected valid store, got errors: %v", r.Errors)
	}

	if _, err := db.ExecContext(ctx, "DROP TABLE action_queue"); err != nil {
		t.Fatal(err)
	}
	r = New(validConfig(), db).Validate(ctx)
	assertHasError(t, r, "store", "table not readable")
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:  false,
		Errors: []Issue{{Category: "test", Message: "bad thing"}},
	}
	out, err := FormatJSON(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bad thing") {
		t.Fatalf("expected JSON to contain error message, got: %s", out)
	}
}

func TestFormatHuman_Valid(t *testing.T) {
	t.Parallel()
	out := FormatHuman(&Result{Valid: true})
	if out != "Configuration valid.\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatHuman_Issues(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:    false,
		Errors:   []Issue{{Category: "test", Field: "x.y", Message: "broken"}},
		Warnings: []Issue{{Category: "test", Message: "odd"}},
	}
	out := FormatHuman(r)
	if !strings.Contains(out, "Configuration invalid (1 error(s), 1 warning(s))") {
		t.Fatalf("missing summary: %s", out)
	}
	if !strings.Contains(out, "ERROR [test] x.y: broken") || !strings.Contains(out, "WARN  [test] odd") {
		t.Fatalf("missing issues: %s", out)
	}
}

// --- helpers ---

func assertHasError(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, e := range r.Errors {
		if e.Category == category && strings.Contains(e.Message, substring) {
			return
		}
	}
	t.Fatalf("expected error with category=%q containing %q, got: %v", category, substring, r.Errors)
}

func assertHasWarning(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Category == category && strings.Contains(w.Message, substring) {
			return
		}
	}
	t.Fatalf("expected warning with category=%q containing %q, got: %v", category, substring, r.Warnings)
}
