package config

import (
	"os"
	"path/filepath"
	"testing"

	"sc3/internal/domain"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.RateLimitWindowSeconds != 60 {
		t.Errorf("RateLimitWindowSeconds = %d", cfg.RateLimitWindowSeconds)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SC3_CVE_SOURCE_URL", "https://osv.internal/v1/query")
	t.Setenv("RATE_LIMIT_REQUESTS", "50")
	t.Setenv("REDIS_DB", "3")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9999" || cfg.CVESourceURL != "https://osv.internal/v1/query" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RateLimitRequests != 50 || cfg.RedisDB != 3 {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
}

func TestLoadPolicyMissingPathYieldsDefault(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if policy.SeverityThreshold != domain.SeverityHigh || policy.MinLevel != 2 || !policy.RequireSignedDeps {
		t.Fatalf("default policy = %+v", policy)
	}
}

func TestLoadPolicyYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	doc := `
severity_threshold: 4
min_level: 3
require_hermetic: true
allowed_attestation_types: [SGX, NITRO]
trusted_builders:
  - builder-a
allowed_licenses: [MIT]
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if policy.SeverityThreshold != domain.SeverityCritical {
		t.Errorf("threshold = %v", policy.SeverityThreshold)
	}
	if policy.MinLevel != 3 || !policy.RequireHermetic {
		t.Errorf("policy = %+v", policy)
	}
	if len(policy.AllowedAttestationTypes) != 2 || policy.AllowedAttestationTypes[0] != domain.AttestationSGX {
		t.Errorf("attestation types = %v", policy.AllowedAttestationTypes)
	}
	// Unset fields keep the baseline defaults.
	if !policy.RequireSignedDeps {
		t.Error("RequireSignedDeps default lost")
	}
}

func TestLoadPolicyBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := LoadPolicy(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}
