package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattjoyce/deskpanel/internal/config"
)

// FromGlobalConfig converts config.ServerConfig to webhook.Config.
func FromGlobalConfig(sc config.ServerConfig) (Config, error) {
	maxBodySize, err := parseMaxBodySize(sc.MaxBodySize)
	if err != nil {
		return Config{}, fmt.Errorf("server.max_body_size %q: %w", sc.MaxBodySize, err)
	}

	return Config{
		Listen:          sc.Listen,
		SidebarPath:     sc.SidebarPath,
		ActionPath:      sc.ActionPath,
		SignatureHeader: sc.SignatureHeader,
		MaxBodySize:     maxBodySize,
		RateLimit: RateLimit{
			RPS:   sc.RateLimit.RPS,
			Burst: sc.RateLimit.Burst,
		},
	}, nil
}

// parseMaxBodySize parses size strings like "1MB", "64KB", "1048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func parseMaxBodySize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		bytes  int64
	}{
		{"KB", 1 << 10},
		{"MB", 1 << 20},
		{"GB", 1 << 30},
	} {
		if strings.HasSuffix(upper, unit.suffix) {
			multiplier = unit.bytes
			upper = strings.TrimSuffix(upper, unit.suffix)
			break
		}
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
