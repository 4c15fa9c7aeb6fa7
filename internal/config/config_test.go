package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jbell/webbridge/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadBridgeConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadBridgeConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg != DefaultBridgeConfig() {
		t.Fatalf("empty path should yield defaults, got %+v", cfg)
	}
}

func TestLoadBridgeConfigOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
handshake_timeout_ms = 2000
message_timeout_ms = 60000
max_retries = 5
retry_delay_ms = 100
enable_logging = false
log_level = "debug"
`)
	cfg, err := LoadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HandshakeTimeoutMS != 2000 || cfg.MaxRetries != 5 || cfg.EnableLogging {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	opts := cfg.Options()
	if opts.HandshakeTimeout != 2*time.Second {
		t.Fatalf("unexpected handshake timeout %v", opts.HandshakeTimeout)
	}
	if opts.MessageTimeout != time.Minute {
		t.Fatalf("unexpected message timeout %v", opts.MessageTimeout)
	}
	if opts.EnableLogging {
		t.Fatalf("logging should be disabled")
	}
}

func TestLoadBridgeConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"negative retries": "max_retries = -1",
		"zero handshake":   "handshake_timeout_ms = 0",
		"unknown level":    `log_level = "shouty"`,
	}
	for name, body := range cases {
		path := writeConfig(t, body)
		if _, err := LoadBridgeConfig(path); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadBridgeConfigMissingFile(t *testing.T) {
	testlog.Start(t)
	if _, err := LoadBridgeConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("missing file should error")
	}
}
