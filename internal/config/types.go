package config

import "time"

// Config represents the complete deskpanel configuration.
type Config struct {
	Service      ServiceConfig      `yaml:"service"`
	Server       ServerConfig       `yaml:"server"`
	Signing      SigningConfig      `yaml:"signing"`
	Fixture      FixtureConfig      `yaml:"fixture"`
	Store        StoreConfig        `yaml:"store"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	Admin        AdminConfig        `yaml:"admin"`
	Hooks        HooksConfig        `yaml:"hooks"`

	// Path is the absolute path the config was loaded from.
	Path string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Listen          string          `yaml:"listen"`
	SidebarPath     string          `yaml:"sidebar_path"`
	ActionPath      string          `yaml:"action_path"`
	SignatureHeader string          `yaml:"signature_header"`
	MaxBodySize     string          `yaml:"max_body_size"` // e.g. "1MB", "65536"
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per client IP token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SigningConfig holds the shared helpdesk secret and signed action links.
type SigningConfig struct {
	Secret        string        `yaml:"secret"`
	ActionBaseURL string        `yaml:"action_base_url"`
	ActionTTL     time.Duration `yaml:"action_ttl"`
}

// FixtureConfig replaces every sidebar request with a fixed payload. Local
// development only; the signature check is skipped.
type FixtureConfig struct {
	Enabled bool   `yaml:"enabled"`
	Email   string `yaml:"email"`
}

// StoreConfig selects the commerce store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// IntegrationsConfig toggles the optional commerce integrations.
type IntegrationsConfig struct {
	Licensing LicensingConfig `yaml:"licensing"`
	Recurring RecurringConfig `yaml:"recurring"`
}

type LicensingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Version string `yaml:"version"`
}

type RecurringConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AdminConfig points at the commerce admin UI.
type AdminConfig struct {
	BaseURL string `yaml:"base_url"`
}

// HooksConfig registers the built-in sidebar filters.
type HooksConfig struct {
	// GatewayLinks maps a gateway name to a URL template. {payment_id} is
	// replaced by the payment id.
	GatewayLinks map[string]string `yaml:"gateway_links"`

	// EmailAliases maps a customer email to further addresses that are
	// searched alongside it.
	EmailAliases map[string][]string `yaml:"email_aliases"`
}

// ChecksumManifest is the content of a .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with the built-in defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "deskpanel",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Listen:          "127.0.0.1:8080",
			SidebarPath:     "/helpdesk/sidebar",
			ActionPath:      "/helpdesk/action",
			SignatureHeader: "X-HelpScout-Signature",
			MaxBodySize:     "1MB",
			RateLimit: RateLimitConfig{
				RPS:   10,
				Burst: 20,
			},
		},
		Signing: SigningConfig{
			ActionTTL: 24 * time.Hour,
		},
		Fixture: FixtureConfig{
			Email: "user@example.com",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "./data/deskpanel.db",
		},
	}
}
