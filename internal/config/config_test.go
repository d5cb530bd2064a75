package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestValidate_InvalidListenerPort(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	cfg.Listener.Port = 70000

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}

	expected := "listener.port must be between 1 and 65535, got 70000"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_OpsPortCollision(t *testing.T) {
	cfg := Config{
		Listener: ListenerConfig{Port: 7000},
		Ops:      OpsConfig{Port: 7000},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when ops and listener share a port")
	}
}

func TestValidate_OpsDisabledIgnoresPort(t *testing.T) {
	disabled := false
	cfg := Config{
		Listener: ListenerConfig{Port: 7000},
		Ops:      OpsConfig{Enabled: &disabled, Port: 7000},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BaseURLScheme(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://api.openai.com/v1/dashboard/billing/usage", false},
		{"http://127.0.0.1:8080/usage", false},
		{"ftp://example.com/usage", true},
		{"api.openai.com/usage", true},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			cfg := Config{Upstream: UpstreamConfig{BaseURL: tc.url}}
			cfg.ApplyDefaults()

			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_NegativeRate(t *testing.T) {
	cfg := Config{Upstream: UpstreamConfig{RequestsPerSecond: -1}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative requests_per_second")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Listener.Host != "0.0.0.0" {
		t.Errorf("expected Host=0.0.0.0, got %q", cfg.Listener.Host)
	}
	if cfg.Listener.Port != 5555 {
		t.Errorf("expected Port=5555, got %d", cfg.Listener.Port)
	}
	if cfg.Listener.ReadTimeout() != 10*time.Second {
		t.Errorf("expected ReadTimeout=10s, got %s", cfg.Listener.ReadTimeout())
	}
	if cfg.Listener.WriteTimeout() != 10*time.Second {
		t.Errorf("expected WriteTimeout=10s, got %s", cfg.Listener.WriteTimeout())
	}
	if cfg.Listener.MaxLineBytes != 1024 {
		t.Errorf("expected MaxLineBytes=1024, got %d", cfg.Listener.MaxLineBytes)
	}
	if cfg.Upstream.BaseURL != DefaultBaseURL {
		t.Errorf("expected BaseURL=%q, got %q", DefaultBaseURL, cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout() != 10*time.Second {
		t.Errorf("expected upstream Timeout=10s, got %s", cfg.Upstream.Timeout())
	}
	if cfg.Ops.Port != 9555 {
		t.Errorf("expected ops Port=9555, got %d", cfg.Ops.Port)
	}
	if !cfg.Ops.IsEnabled() {
		t.Error("ops endpoint should be enabled by default")
	}
	if cfg.Listener.Addr() != "0.0.0.0:5555" {
		t.Errorf("expected Addr=0.0.0.0:5555, got %q", cfg.Listener.Addr())
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Listener: ListenerConfig{Host: "127.0.0.1", Port: 6000, ReadTimeoutSec: 3, MaxLineBytes: 64},
		Upstream: UpstreamConfig{BaseURL: "http://localhost/usage", TimeoutSec: 2},
	}
	cfg.ApplyDefaults()

	if cfg.Listener.Addr() != "127.0.0.1:6000" {
		t.Errorf("expected Addr=127.0.0.1:6000, got %q", cfg.Listener.Addr())
	}
	if cfg.Listener.ReadTimeoutSec != 3 {
		t.Errorf("expected ReadTimeoutSec=3, got %d", cfg.Listener.ReadTimeoutSec)
	}
	if cfg.Listener.MaxLineBytes != 64 {
		t.Errorf("expected MaxLineBytes=64, got %d", cfg.Listener.MaxLineBytes)
	}
	if cfg.Upstream.BaseURL != "http://localhost/usage" {
		t.Errorf("expected custom BaseURL, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSec != 2 {
		t.Errorf("expected TimeoutSec=2, got %d", cfg.Upstream.TimeoutSec)
	}
}

func TestParse_ExpandsCredential(t *testing.T) {
	t.Setenv("SPENDGATE_TEST_KEY", "  sk-test  ")

	cfg, err := Parse([]byte(`
listener:
  port: 5556
upstream:
  api_key: ${SPENDGATE_TEST_KEY}
  base_url: ${SPENDGATE_TEST_MISSING:-http://127.0.0.1:1/usage}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Upstream.APIKey != "sk-test" {
		t.Errorf("expected trimmed api key, got %q", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.BaseURL != "http://127.0.0.1:1/usage" {
		t.Errorf("expected default base url, got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Listener.Port != 5556 {
		t.Errorf("expected port 5556, got %d", cfg.Listener.Port)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("listener: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	body := []byte("listener:\n  port: 6001\nops:\n  enabled: false\n")
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Listener.Port != 6001 {
		t.Errorf("expected port 6001, got %d", cfg.Listener.Port)
	}
	if cfg.Ops.IsEnabled() {
		t.Error("ops endpoint should be disabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_DIR", t.TempDir())

	if _, err := Load("nope"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}

	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
