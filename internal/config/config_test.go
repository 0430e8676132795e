package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is empty")
	}

	t.Setenv("SECRET_KEY", "change_me_in_production")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY uses insecure placeholder")
	}

	t.Setenv("SECRET_KEY", "replace_with_at_least_32_random_characters")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY uses example placeholder")
	}

	t.Setenv("SECRET_KEY", "too-short-secret")
	if _, err := resolveSecretKey(); err == nil {
		t.Fatal("expected error when SECRET_KEY is too short")
	}

	valid := "0123456789abcdef0123456789abcdef"
	t.Setenv("SECRET_KEY", valid)

	secret, err := resolveSecretKey()
	if err != nil {
		t.Fatalf("expected valid secret, got error: %v", err)
	}
	if secret != valid {
		t.Fatalf("expected %q, got %q", valid, secret)
	}
}

func TestResolvePort(t *testing.T) {
	t.Setenv("PORT", "")
	port, err := resolvePort()
	if err != nil {
		t.Fatalf("expected default port, got error: %v", err)
	}
	if port != "8080" {
		t.Fatalf("expected default port 8080, got %q", port)
	}

	t.Setenv("PORT", "9090")
	port, err = resolvePort()
	if err != nil || port != "9090" {
		t.Fatalf("expected port 9090, got %q (%v)", port, err)
	}

	for _, invalid := range []string{"0", "70000", "not-a-number"} {
		t.Setenv("PORT", invalid)
		if _, err := resolvePort(); err == nil {
			t.Fatalf("expected invalid port %q to fail", invalid)
		}
	}
}

func TestLoadReadsEnvFileAndDefaults(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "SECRET_KEY=0123456789abcdef0123456789abcdef\nPAYMENT_PROVIDER=Razorpay\nPAYMENT_TIMEOUT=3s\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("SECRET_KEY", "")
	t.Setenv("PAYMENT_PROVIDER", "")
	t.Setenv("PAYMENT_TIMEOUT", "")
	t.Setenv("PORT", "")
	os.Unsetenv("SECRET_KEY")
	os.Unsetenv("PAYMENT_PROVIDER")
	os.Unsetenv("PAYMENT_TIMEOUT")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PaymentProvider != "razorpay" {
		t.Fatalf("expected normalized provider, got %q", cfg.PaymentProvider)
	}
	if cfg.PaymentTimeout != 3*time.Second {
		t.Fatalf("expected 3s payment timeout, got %s", cfg.PaymentTimeout)
	}
	if cfg.PaymentCurrency != "INR" {
		t.Fatalf("expected INR default currency, got %q", cfg.PaymentCurrency)
	}
	if cfg.DBDriver != "sqlite" || cfg.StorageDriver != "local" || cfg.MailProvider != "log" {
		t.Fatalf("unexpected driver defaults: %+v", cfg)
	}
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("PORT", "")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestGetListSplitsAndTrims(t *testing.T) {
	t.Setenv("SECRET_KEY_PREVIOUS", " first-retired-key , ,second-retired-key")
	got := getList("SECRET_KEY_PREVIOUS")
	if len(got) != 2 || got[0] != "first-retired-key" || got[1] != "second-retired-key" {
		t.Fatalf("unexpected list %q", got)
	}

	t.Setenv("SECRET_KEY_PREVIOUS", "")
	if got := getList("SECRET_KEY_PREVIOUS"); len(got) != 0 {
		t.Fatalf("expected empty list, got %q", got)
	}
}
