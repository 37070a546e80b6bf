package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != DefaultHTTPAddr {
		t.Errorf("expected default http addr %s, got %s", DefaultHTTPAddr, cfg.HTTPAddr)
	}
	if cfg.TransitionDelay != 5*time.Second {
		t.Errorf("expected default transition delay 5s, got %v", cfg.TransitionDelay)
	}
	if cfg.DelayedPolicy != DelayedHalt {
		t.Errorf("expected default delayed policy halt, got %s", cfg.DelayedPolicy)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http_addr: ":9090"
webhook_secret: "s3cret"
transition_delay: 10s
delayed_policy: resume
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.HTTPAddr)
	}
	if cfg.WebhookSecret != "s3cret" {
		t.Errorf("expected secret to load, got %q", cfg.WebhookSecret)
	}
	if cfg.TransitionDelay != 10*time.Second {
		t.Errorf("expected 10s, got %v", cfg.TransitionDelay)
	}
	if cfg.DelayedPolicy != DelayedResume {
		t.Errorf("expected resume, got %s", cfg.DelayedPolicy)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`http_addr: ":9090"`), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ORDERTRACK_HTTP_ADDR", ":7070")
	t.Setenv("ORDERTRACK_TRANSITION_DELAY", "250ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":7070" {
		t.Errorf("env should win over file, got %s", cfg.HTTPAddr)
	}
	if cfg.TransitionDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.TransitionDelay)
	}
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DelayedPolicy = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown delayed policy")
	}
}

func TestValidateRejectsBadBackoffBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReconnectMax = cfg.ReconnectBase / 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max below base")
	}
}
