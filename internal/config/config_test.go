package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.PracticeRunTTL != 12*time.Hour {
		t.Errorf("PracticeRunTTL = %v", cfg.PracticeRunTTL)
	}
	if cfg.PaymentCurrency != "gbp" {
		t.Errorf("PaymentCurrency = %q", cfg.PaymentCurrency)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "server_port: \"9000\"\nlog_level: debug\ndefault_question_limit: 20\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PAYMENT_CURRENCY", "USD")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerPort != "9100" {
		t.Errorf("ServerPort = %q, want env value", cfg.ServerPort)
	}
	if cfg.LogLevel != "debug" || cfg.DefaultQuestionLimit != 20 {
		t.Errorf("file values not applied: %q %d", cfg.LogLevel, cfg.DefaultQuestionLimit)
	}
	if !slices.Equal(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.PaymentCurrency != "usd" {
		t.Errorf("PaymentCurrency = %q", cfg.PaymentCurrency)
	}
	if cfg.BillingEnabled() {
		t.Error("billing enabled without a key")
	}
}
