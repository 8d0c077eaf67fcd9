package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.App.Port)
	}
	if cfg.Firestore.CartsCollection != "carts" {
		t.Fatalf("unexpected carts collection %q", cfg.Firestore.CartsCollection)
	}
	if got := cfg.Firestore.RetryBaseDelay; got != time.Second {
		t.Fatalf("expected retry base delay 1s, got %v", got)
	}
	if cfg.Cart.IdentityPolicy != CartPolicyReplace {
		t.Fatalf("expected replace policy by default, got %q", cfg.Cart.IdentityPolicy)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled when no url is set")
	}
}

func TestLoad_ProfileCollectionsList(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvProfileCollections, "customers,vendors")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.Firestore.ProfileCollections) != 2 || cfg.Firestore.ProfileCollections[0] != "customers" {
		t.Fatalf("unexpected profile collections %v", cfg.Firestore.ProfileCollections)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/1")
	t.Setenv(EnvFirestoreRetries, "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Fatalf("expected port override, got %q", cfg.App.Port)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("redis should be enabled once a url is set")
	}
	if cfg.Firestore.RetryAttempts != 5 {
		t.Fatalf("expected 5 retry attempts, got %d", cfg.Firestore.RetryAttempts)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsUnknownIdentityPolicy(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCartIdentityPolicy, "append")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid identity policy to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvGCPProjectID, "aquadrop-test")
	t.Setenv(EnvSessionSecret, "secret")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestSessionTTL(t *testing.T) {
	if got := (SessionConfig{TTLMinutes: 30}).TTL(); got != 30*time.Minute {
		t.Fatalf("unexpected ttl %v", got)
	}
	if got := (SessionConfig{}).TTL(); got != 0 {
		t.Fatalf("expected zero ttl, got %v", got)
	}
}
