package usecase

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
)

type staticCVESource struct {
	cves map[string][]domain.CVE
	err  error

	mu    sync.Mutex
	calls int
}

func (s *staticCVESource) KnownCVEs(_ context.Context, name, version, _ string) ([]domain.CVE, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.cves[name+"@"+version], nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]domain.CVE
}

func (c *memCache) Get(_ context.Context, key string) ([]domain.CVE, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cves, ok := c.data[key]
	return cves, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, cves []domain.CVE, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]domain.CVE)
	}
	c.data[key] = cves
	return nil
}

type staticGate struct {
	err error
}

func (g *staticGate) Allow(_ context.Context, license string, allowed []string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	if len(allowed) == 0 {
		return true, nil
	}
	for _, candidate := range allowed {
		if candidate == license {
			return true, nil
		}
	}
	return false, nil
}

func testKeypair(t *testing.T) (domain.TrustedKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return domain.TrustedKey{
		ID:        "pub-key",
		Alg:       domain.KeyAlgEd25519,
		PublicKey: base64.StdEncoding.EncodeToString(pub),
	}, priv
}

func signedDependency(t *testing.T, priv ed25519.PrivateKey) domain.Dependency {
	t.Helper()
	dep := domain.Dependency{
		Name:        "libfoo",
		Version:     "1.2.3",
		Registry:    "npm",
		Hash:        "hash-1",
		LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	record, err := crypto.DependencyRecordDigest(dep)
	if err != nil {
		t.Fatalf("record digest: %v", err)
	}
	sig, err := crypto.SignEd25519(record, "pub-key", priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	dep.Signature = &domain.DependencySignature{
		Algorithm: sig.Alg,
		Signature: sig.Value,
		KeyID:     sig.KeyID,
	}
	return dep
}

func newTestScanner(t *testing.T, policy domain.Policy, keys []domain.TrustedKey, source CVESource, cache CVECache, gate LicenseGate) *DependencyScanner {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	keyring := NewKeyring(keys, crypto.NewService(), nil, clock)
	return NewDependencyScanner(policy, keyring, source, cache, gate, clock, nil)
}

func TestScanDependenciesSignedAndClean(t *testing.T) {
	key, priv := testKeypair(t)
	policy := domain.Policy{RequireSignedDeps: true}
	scanner := newTestScanner(t, policy, []domain.TrustedKey{key}, nil, nil, nil)

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{signedDependency(t, priv)}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !result.Passed || result.SignedCount != 1 || len(result.UnsignedDependencies) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestScanDependenciesUnsignedRequired(t *testing.T) {
	policy := domain.Policy{RequireSignedDeps: true}
	scanner := newTestScanner(t, policy, nil, nil, nil, nil)
	dep := domain.Dependency{Name: "libbar", Version: "2.0.0", LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.Passed {
		t.Fatal("unsigned dependency passed under RequireSignedDeps")
	}
	assertFailureCode(t, result.Failures, domain.CodeUnsignedDependency)
	if len(result.UnsignedDependencies) != 1 || result.UnsignedDependencies[0] != "libbar@2.0.0" {
		t.Fatalf("unsigned list: %v", result.UnsignedDependencies)
	}
}

func TestScanDependenciesTamperedSignature(t *testing.T) {
	key, priv := testKeypair(t)
	policy := domain.Policy{RequireSignedDeps: true}
	scanner := newTestScanner(t, policy, []domain.TrustedKey{key}, nil, nil, nil)

	dep := signedDependency(t, priv)
	dep.Hash = "tampered"

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertFailureCode(t, result.Failures, domain.CodeSignatureInvalid)
}

func TestScanDependenciesUnknownAndExpiredKeys(t *testing.T) {
	key, priv := testKeypair(t)
	dep := signedDependency(t, priv)

	scanner := newTestScanner(t, domain.Policy{}, nil, nil, nil, nil)
	result, _ := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	assertFailureCode(t, result.Failures, domain.CodeUnknownKey)

	expired := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	key.ExpiresAt = &expired
	scanner = newTestScanner(t, domain.Policy{}, []domain.TrustedKey{key}, nil, nil, nil)
	result, _ = scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	assertFailureCode(t, result.Failures, domain.CodeKeyExpired)
}

func TestScanDependenciesThresholdBoundary(t *testing.T) {
	dep := domain.Dependency{
		Name:        "libvuln",
		Version:     "1.0.0",
		LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CVEs: []domain.CVE{
			{ID: "CVE-AT-THRESHOLD", CVSS: 7.0, AffectedVersions: "<2.0.0"},
			{ID: "CVE-BELOW", CVSS: 6.9, AffectedVersions: "<2.0.0"},
		},
	}
	scanner := newTestScanner(t, domain.Policy{}, nil, nil, nil, nil)

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.CVEViolations) != 1 {
		t.Fatalf("violations = %d, want exactly the at-threshold CVE", len(result.CVEViolations))
	}
	if result.CVEViolations[0].Details["cve"] != "CVE-AT-THRESHOLD" {
		t.Fatalf("wrong CVE flagged: %+v", result.CVEViolations[0])
	}
}

func TestScanDependenciesIgnoresUnaffectedVersions(t *testing.T) {
	dep := domain.Dependency{
		Name:        "libvuln",
		Version:     "3.0.0",
		LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CVEs:        []domain.CVE{{ID: "CVE-OLD", CVSS: 9.8, AffectedVersions: "<2.0.0"}},
	}
	scanner := newTestScanner(t, domain.Policy{}, nil, nil, nil, nil)

	result, _ := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if !result.Passed {
		t.Fatalf("version outside the affected range was flagged: %+v", result.Failures)
	}
}

func TestScanDependenciesStaleDataConsultsSource(t *testing.T) {
	source := &staticCVESource{cves: map[string][]domain.CVE{
		"libstale@1.0.0": {{ID: "CVE-FRESH", CVSS: 9.1, AffectedVersions: "<2.0.0"}},
	}}
	cache := &memCache{}
	dep := domain.Dependency{
		Name:        "libstale",
		Version:     "1.0.0",
		LastScanned: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), // stale
	}
	scanner := newTestScanner(t, domain.Policy{}, nil, source, cache, nil)

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	assertFailureCode(t, result.Failures, domain.CodeCVEThresholdExceeded)
	if source.calls != 1 {
		t.Fatalf("source calls = %d, want 1", source.calls)
	}
	if _, ok, _ := cache.Get(context.Background(), "libstale@1.0.0"); !ok {
		t.Fatal("lookup result was not cached")
	}
}

func TestScanDependenciesSourceFailureDegrades(t *testing.T) {
	source := &staticCVESource{err: errors.New("osv unavailable")}
	dep := domain.Dependency{
		Name:        "libdeg",
		Version:     "1.0.0",
		LastScanned: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), // stale
		CVEs:        []domain.CVE{{ID: "CVE-EMBEDDED", CVSS: 9.0, AffectedVersions: "<2.0.0"}},
	}
	scanner := newTestScanner(t, domain.Policy{}, nil, source, nil, nil)

	result, err := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if err != nil {
		t.Fatalf("scan must not hard-fail on source errors: %v", err)
	}
	assertFailureCode(t, result.Failures, domain.CodeScanDegraded)
	assertFailureCode(t, result.Failures, domain.CodeCVEThresholdExceeded)
}

func TestScanDependenciesLicenseGate(t *testing.T) {
	policy := domain.Policy{AllowedLicenses: []string{"MIT"}}
	dep := domain.Dependency{
		Name:        "libgpl",
		Version:     "1.0.0",
		License:     "GPL-3.0",
		LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	scanner := newTestScanner(t, policy, nil, nil, nil, &staticGate{})

	result, _ := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	assertFailureCode(t, result.Failures, domain.CodeLicenseNotAllowed)
}

func TestScanDependenciesGateErrorFallsBackToPolicy(t *testing.T) {
	policy := domain.Policy{AllowedLicenses: []string{"MIT"}}
	dep := domain.Dependency{
		Name:        "libmit",
		Version:     "1.0.0",
		License:     "MIT",
		LastScanned: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	scanner := newTestScanner(t, policy, nil, nil, nil, &staticGate{err: errors.New("opa down")})

	result, _ := scanner.ScanDependencies(context.Background(), []domain.Dependency{dep}, domain.SeverityHigh)
	if !result.Passed {
		t.Fatalf("static fallback should allow MIT: %+v", result.Failures)
	}
}
