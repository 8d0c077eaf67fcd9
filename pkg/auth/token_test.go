package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/aquadrop/pkg/config"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{Secret: "secret", Issuer: "aquadrop", TTLMinutes: 30}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testSessionConfig()
	now := time.Now().UTC()

	token, minted, err := MintSessionToken(cfg, now, "device-1")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if minted.SessionID != "device-1" {
		t.Fatalf("unexpected minted session id %q", minted.SessionID)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.SessionID != "device-1" {
		t.Fatalf("expected sid device-1, got %q", claims.SessionID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(now) {
		t.Fatalf("expected expiry in the future")
	}
}

func TestMintSessionTokenGeneratesID(t *testing.T) {
	_, claims, err := MintSessionToken(testSessionConfig(), time.Now(), " ")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if claims.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
}

func TestParseSessionTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := MintSessionToken(testSessionConfig(), time.Now(), "device-1")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	other := testSessionConfig()
	other.Secret = "different"
	if _, err := ParseSessionToken(other, token); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testSessionConfig()
	token, _, err := MintSessionToken(cfg, time.Now().Add(-2*time.Hour), "device-1")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
