package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jbell/webbridge/internal/bridge"
	"github.com/jbell/webbridge/internal/logging"
)

var ErrInvalidConfig = errors.New("config: invalid")

// BridgeConfig is the on-disk tuning surface for a bridge instance.
type BridgeConfig struct {
	HandshakeTimeoutMS int    `toml:"handshake_timeout_ms"`
	MessageTimeoutMS   int    `toml:"message_timeout_ms"`
	MaxRetries         int    `toml:"max_retries"`
	RetryDelayMS       int    `toml:"retry_delay_ms"`
	RetryMaxDelayMS    int    `toml:"retry_max_delay_ms"`
	EnableLogging      bool   `toml:"enable_logging"`
	LogLevel           string `toml:"log_level"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		HandshakeTimeoutMS: 5000,
		MessageTimeoutMS:   30000,
		MaxRetries:         3,
		RetryDelayMS:       250,
		RetryMaxDelayMS:    5000,
		EnableLogging:      true,
		LogLevel:           "info",
	}
}

// LoadBridgeConfig reads path over the defaults. A missing path returns the
// defaults unchanged.
func LoadBridgeConfig(path string) (BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return BridgeConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return BridgeConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if cfg.HandshakeTimeoutMS <= 0 {
		return fmt.Errorf("%w: handshake_timeout_ms must be positive", ErrInvalidConfig)
	}
	if cfg.MessageTimeoutMS <= 0 {
		return fmt.Errorf("%w: message_timeout_ms must be positive", ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative", ErrInvalidConfig)
	}
	if cfg.RetryDelayMS <= 0 {
		return fmt.Errorf("%w: retry_delay_ms must be positive", ErrInvalidConfig)
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, cfg.LogLevel)
		}
	}
	return nil
}

// Options converts the file shape into bridge options.
func (c BridgeConfig) Options() bridge.Options {
	opts := bridge.DefaultOptions()
	opts.HandshakeTimeout = time.Duration(c.HandshakeTimeoutMS) * time.Millisecond
	opts.MessageTimeout = time.Duration(c.MessageTimeoutMS) * time.Millisecond
	opts.MaxRetries = c.MaxRetries
	opts.RetryDelay = time.Duration(c.RetryDelayMS) * time.Millisecond
	opts.RetryMaxDelay = time.Duration(c.RetryMaxDelayMS) * time.Millisecond
	opts.EnableLogging = c.EnableLogging
	return opts
}
