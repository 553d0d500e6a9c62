package usecase

import (
	"context"
	"time"

	"sc3/internal/domain"
)

// CVESource answers "known CVEs for (name, version)". Implementations
// live in infra; lookups must be individually time-bounded by callers.
type CVESource interface {
	KnownCVEs(ctx context.Context, name, version, registry string) ([]domain.CVE, error)
}

// CVECache is the shared 24-hour-freshness cache keyed "name@version".
// Population is last-writer-wins; fetches are idempotent.
type CVECache interface {
	Get(ctx context.Context, key string) ([]domain.CVE, bool, error)
	Put(ctx context.Context, key string, cves []domain.CVE, ttl time.Duration) error
}

// CollateralVerifier checks hardware attestation collateral against the
// external verification service.
type CollateralVerifier interface {
	VerifyCollateral(ctx context.Context, exec domain.ExecutionAttestation) error
}

// LicenseGate decides whether a license passes the allow-list.
type LicenseGate interface {
	Allow(ctx context.Context, license string, allowed []string) (bool, error)
}

// SignatureService verifies signatures for natively handled algorithms.
type SignatureService interface {
	Verify(message []byte, sig domain.Signature, key domain.TrustedKey) error
}

// PGPVerifier verifies armored detached PGP signatures.
type PGPVerifier interface {
	Verify(message []byte, armoredSig, armoredPubKey string) error
}

// LogStore is the producer side of the immutable log service.
type LogStore interface {
	Create(name string) domain.ImmutableLog
	Append(logID string, input LogAppendInput) (domain.ImmutableLogEntry, error)
	Seal(logID string) error
	Get(logID string) (domain.ImmutableLog, error)
	List() []domain.ImmutableLog
}

// LogAppendInput mirrors the store's append shape so callers do not
// depend on the infra package.
type LogAppendInput struct {
	Type         domain.LogEntryType
	ArtifactHash string
	BuildID      string
	Payload      map[string]any
}
