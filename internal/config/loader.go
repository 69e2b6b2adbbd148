package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// EnvFixture overrides fixture.enabled when set to a boolean.
const EnvFixture = "DESKPANEL_FIXTURE"

// Load reads, verifies and validates the configuration file at configPath. A
// directory is taken to contain config.yaml.
func Load(configPath string) (*Config, error) {
	absPath, err := resolvePath(configPath)
	if err != nil {
		return nil, err
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = absPath

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults after ${VAR} interpolation. It does not
// validate.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	interpolated := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

func resolvePath(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

// verifyConfigHash checks the config file and every other file recorded in
// .checksums next to it. A missing .checksums skips verification.
func verifyConfigHash(path string) error {
	dir := filepath.Dir(path)
	manifest, err := LoadChecksums(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	name := filepath.Base(path)
	expected, ok := manifest.Hashes[name]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
			"Run: deskpanel config lock --config %s", name, dir, path)
	}
	if err := VerifyFileHash(path, expected); err != nil {
		return fmt.Errorf("config verification failed for %s: %w\n"+
			"If you edited this file intentionally, run: deskpanel config lock --config %s", path, err, path)
	}

	others := make([]string, 0, len(manifest.Hashes))
	for file := range manifest.Hashes {
		if file != name {
			others = append(others, file)
		}
	}
	sort.Strings(others)
	for _, file := range others {
		filePath := filepath.Join(dir, file)
		if err := VerifyFileHash(filePath, manifest.Hashes[file]); err != nil {
			return fmt.Errorf("config verification failed for %s: %w\n"+
				"If you edited this file intentionally, run: deskpanel config lock --config %s --include %s", filePath, err, path, file)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	raw, ok := os.LookupEnv(EnvFixture)
	if !ok || raw == "" {
		return nil
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("%s must be a boolean (got %q)", EnvFixture, raw)
	}
	cfg.Fixture.Enabled = enabled
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is and caught by validate.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	for field, value := range map[string]string{
		"signing.secret":          cfg.Signing.Secret,
		"signing.action_base_url": cfg.Signing.ActionBaseURL,
		"store.dsn":               cfg.Store.DSN,
		"admin.base_url":          cfg.Admin.BaseURL,
	} {
		if err := checkUnresolved(field, value); err != nil {
			return err
		}
	}

	if cfg.Signing.Secret == "" && !cfg.Fixture.Enabled {
		return fmt.Errorf("signing.secret is required unless fixture.enabled is set")
	}
	if cfg.Signing.ActionTTL <= 0 {
		return fmt.Errorf("signing.action_ttl must be positive")
	}

	if err := checkPath("server.sidebar_path", cfg.Server.SidebarPath); err != nil {
		return err
	}
	if err := checkPath("server.action_path", cfg.Server.ActionPath); err != nil {
		return err
	}
	if cfg.Server.SidebarPath == cfg.Server.ActionPath {
		return fmt.Errorf("server.sidebar_path and server.action_path must differ")
	}
	if cfg.Server.SignatureHeader == "" {
		return fmt.Errorf("server.signature_header is required")
	}
	if cfg.Server.RateLimit.RPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must not be negative")
	}
	if cfg.Server.RateLimit.RPS > 0 && cfg.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate_limit.burst must be at least 1")
	}

	for field, value := range map[string]string{
		"signing.action_base_url": cfg.Signing.ActionBaseURL,
		"admin.base_url":          cfg.Admin.BaseURL,
	} {
		if err := checkAbsoluteURL(field, value); err != nil {
			return err
		}
	}

	for gateway, tmpl := range cfg.Hooks.GatewayLinks {
		field := "hooks.gateway_links." + gateway
		if gateway == "" {
			return fmt.Errorf("hooks.gateway_links keys must not be empty")
		}
		if err := checkUnresolved(field, tmpl); err != nil {
			return err
		}
		if tmpl == "" {
			return fmt.Errorf("%s must not be empty", field)
		}
		if err := checkAbsoluteURL(field, strings.ReplaceAll(tmpl, "{payment_id}", "0")); err != nil {
			return err
		}
	}

	switch cfg.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.driver must be one of: sqlite, postgres (got %q)", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required")
	}

	if v := cfg.Integrations.Licensing.Version; v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			return fmt.Errorf("integrations.licensing.version %q is not a semantic version: %w", v, err)
		}
	}
	return nil
}

func checkUnresolved(field, value string) error {
	matches := envVarPattern.FindStringSubmatch(value)
	if len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}

func checkPath(field, value string) error {
	if !strings.HasPrefix(value, "/") {
		return fmt.Errorf("%s must start with / (got %q)", field, value)
	}
	return nil
}

// checkAbsoluteURL accepts an empty value.
func checkAbsoluteURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", field, value)
	}
	return nil
}

// EnvConfig names a config file or directory to use when no --config flag is
// given.
const EnvConfig = "DESKPANEL_CONFIG"

// Discover locates the configuration. It checks $DESKPANEL_CONFIG,
// ~/.config/deskpanel, /etc/deskpanel and ./config.yaml in that order.
func Discover() (string, error) {
	candidates := make([]string, 0, 4)
	if p := os.Getenv(EnvConfig); p != "" {
		candidates = append(candidates, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "deskpanel"))
	}
	candidates = append(candidates, "/etc/deskpanel", "./config.yaml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no config found (checked: $%s, ~/.config/deskpanel, /etc/deskpanel, ./config.yaml)", EnvConfig)
}
