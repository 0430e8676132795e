package api

import (
	"strings"
	"testing"
)

func TestSecureCookieCodecRoundTrip(t *testing.T) {
	codec, err := newSecureCookieCodec([]byte(testSecret))
	if err != nil {
		t.Fatalf("newSecureCookieCodec() error: %v", err)
	}

	sealed, err := codec.seal(authCookiePurpose, []byte("token-value"))
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}
	if !strings.HasPrefix(sealed, secureCookieVersion+".") {
		t.Fatalf("expected versioned value, got %q", sealed)
	}
	if strings.Contains(sealed, "token-value") {
		t.Fatal("sealed value leaks plaintext")
	}

	opened, err := codec.open(authCookiePurpose, sealed)
	if err != nil {
		t.Fatalf("open() error: %v", err)
	}
	if string(opened) != "token-value" {
		t.Fatalf("expected round trip, got %q", opened)
	}
}

func TestSecureCookieCodecRejectsForeignValues(t *testing.T) {
	codec, err := newSecureCookieCodec([]byte(testSecret))
	if err != nil {
		t.Fatalf("newSecureCookieCodec() error: %v", err)
	}
	other, err := newSecureCookieCodec([]byte("another-secret-key"))
	if err != nil {
		t.Fatalf("newSecureCookieCodec() error: %v", err)
	}

	sealed, err := codec.seal(authCookiePurpose, []byte("token-value"))
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}

	if _, err := codec.open("other-purpose", sealed); err == nil {
		t.Fatal("expected purpose mismatch to fail")
	}
	if _, err := other.open(authCookiePurpose, sealed); err == nil {
		t.Fatal("expected key mismatch to fail")
	}
	for _, raw := range []string{"", "v1.", "v2." + strings.TrimPrefix(sealed, "v1."), "v1.@@@"} {
		if _, err := codec.open(authCookiePurpose, raw); err == nil {
			t.Fatalf("expected %q to fail", raw)
		}
	}
	if _, err := newSecureCookieCodec(nil); err == nil {
		t.Fatal("expected empty secret to fail")
	}
}

func TestSecureCookieCodecOpensValuesFromRetiredSecret(t *testing.T) {
	retired, err := newSecureCookieCodec([]byte("retired-secret-key"))
	if err != nil {
		t.Fatalf("newSecureCookieCodec() error: %v", err)
	}
	sealed, err := retired.seal(authCookiePurpose, []byte("token-value"))
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}

	rotated, err := newSecureCookieCodec([]byte(testSecret), []byte("retired-secret-key"))
	if err != nil {
		t.Fatalf("newSecureCookieCodec() error: %v", err)
	}
	opened, err := rotated.open(authCookiePurpose, sealed)
	if err != nil || string(opened) != "token-value" {
		t.Fatalf("expected retired value to open, got %q, %v", opened, err)
	}

	resealed, err := rotated.seal(authCookiePurpose, []byte("token-value"))
	if err != nil {
		t.Fatalf("seal() error: %v", err)
	}
	if _, err := retired.open(authCookiePurpose, resealed); err == nil {
		t.Fatal("expected new values to be sealed with the current secret")
	}
}
